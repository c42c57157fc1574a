package graft

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// key is the canonical, comparable form of an entity identity.
type key string

// scalar converts driver values that are not safe to retain or compare.
func scalar(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// canonical renders a value so that equal identities render equally,
// regardless of the Go integer type the driver chose for them.
func canonical(v any) string {
	switch v := v.(type) {
	case nil:
		return "n"
	case int:
		return "i" + strconv.FormatInt(int64(v), 10)
	case int8:
		return "i" + strconv.FormatInt(int64(v), 10)
	case int16:
		return "i" + strconv.FormatInt(int64(v), 10)
	case int32:
		return "i" + strconv.FormatInt(int64(v), 10)
	case int64:
		return "i" + strconv.FormatInt(v, 10)
	case uint:
		return "i" + strconv.FormatUint(uint64(v), 10)
	case uint8:
		return "i" + strconv.FormatUint(uint64(v), 10)
	case uint16:
		return "i" + strconv.FormatUint(uint64(v), 10)
	case uint32:
		return "i" + strconv.FormatUint(uint64(v), 10)
	case uint64:
		return "i" + strconv.FormatUint(v, 10)
	case float32:
		return "f" + strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return "f" + strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "b1"
		}
		return "b0"
	case string:
		return "s" + v
	case []byte:
		return "s" + string(v)
	case uuid.UUID:
		// UUIDs compare equal to their textual form.
		return "s" + v.String()
	case time.Time:
		return "t" + v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// extractKey builds the identity of a prefix from the given columns. It
// returns the first column that is absent or null when the identity is
// incomplete.
func extractKey(p Prefix, columns []string) (k key, id any, missing string) {
	var (
		b    strings.Builder
		vals = make([]any, 0, len(columns))
	)
	for _, c := range columns {
		v, ok := p[c]
		if !ok || v == nil {
			return "", nil, c
		}
		v = scalar(v)
		s := canonical(v)
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
		vals = append(vals, v)
	}
	if len(vals) == 1 {
		return key(b.String()), vals[0], ""
	}
	return key(b.String()), vals, ""
}

// fields copies the columns of p that are not listed in exclude.
func fields(p Prefix, exclude ...[]string) map[string]any {
	m := make(map[string]any, len(p))
	for c, v := range p {
		if excluded(c, exclude) {
			continue
		}
		m[c] = scalar(v)
	}
	return m
}

func excluded(column string, sets [][]string) bool {
	for _, set := range sets {
		if slices.Contains(set, column) {
			return true
		}
	}
	return false
}

// diff returns the first column, in name order, whose value differs
// between a and b.
func diff(a, b map[string]any) (column string, x, y any, ok bool) {
	names := slices.Collect(maps.Keys(a))
	for c := range b {
		if _, seen := a[c]; !seen {
			names = append(names, c)
		}
	}
	slices.Sort(names)
	for _, c := range names {
		if canonical(a[c]) != canonical(b[c]) {
			return c, a[c], b[c], true
		}
	}
	return "", nil, nil, false
}
