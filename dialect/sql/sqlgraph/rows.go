package sqlgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/syssam/graft"
	"github.com/syssam/graft/dialect"
	"github.com/syssam/graft/dialect/sql"
)

// ErrRowsConsumed is yielded when a sequence returned by QueryRows is
// iterated more than once.
var ErrRowsConsumed = errors.New("sqlgraph: rows already consumed")

// QueryRows returns the rows of the association's join query. The query runs
// when the sequence is first iterated and the sequence can be iterated only
// once; rows are closed when the iteration ends, fails or is stopped.
// Cancelling ctx aborts the retrieval.
func QueryRows(ctx context.Context, drv dialect.Driver, spec *JoinSpec) graft.RowSeq {
	var used atomic.Bool
	return func(yield func(graft.Row, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(graft.Row{}, ErrRowsConsumed)
			return
		}
		query, err := spec.Query(drv.Dialect())
		if err != nil {
			yield(graft.Row{}, err)
			return
		}
		rows := &sql.Rows{}
		if err := drv.Query(ctx, query, []any{}, rows); err != nil {
			yield(graft.Row{}, err)
			return
		}
		defer rows.Close()
		sc, err := newScanner(spec, rows)
		if err != nil {
			yield(graft.Row{}, err)
			return
		}
		for rows.Next() {
			row, err := sc.scan(rows)
			if err != nil {
				yield(graft.Row{}, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(graft.Row{}, fmt.Errorf("sqlgraph: reading rows: %w", err))
		}
	}
}

// scanner splits scanned rows into per-level prefixes.
type scanner struct {
	spec   *JoinSpec
	values []any
	dest   []any
	uuid   []bool
}

func newScanner(spec *JoinSpec, rows sql.ColumnScanner) (*scanner, error) {
	tables := []TableSpec{spec.Parent, spec.Junction}
	if spec.HasChild() {
		tables = append(tables, spec.Child)
	}
	s := &scanner{spec: spec}
	for _, t := range tables {
		for _, c := range t.Columns {
			s.uuid = append(s.uuid, slices.Contains(t.UUID, c))
		}
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlgraph: reading columns: %w", err)
	}
	if len(cols) != len(s.uuid) {
		return nil, fmt.Errorf("sqlgraph: query returned %d columns, expected %d", len(cols), len(s.uuid))
	}
	s.values = make([]any, len(cols))
	s.dest = make([]any, len(cols))
	for i := range s.values {
		s.dest[i] = &s.values[i]
	}
	return s, nil
}

func (s *scanner) scan(rows sql.ColumnScanner) (graft.Row, error) {
	clear(s.values)
	if err := rows.Scan(s.dest...); err != nil {
		return graft.Row{}, fmt.Errorf("sqlgraph: scan: %w", err)
	}
	for i, v := range s.values {
		if s.uuid[i] && v != nil {
			u, err := toUUID(v)
			if err != nil {
				return graft.Row{}, err
			}
			s.values[i] = u
			continue
		}
		// Drivers may reuse the buffer behind a []byte.
		if b, ok := v.([]byte); ok {
			s.values[i] = string(b)
		}
	}
	p := len(s.spec.Parent.Columns)
	j := p + len(s.spec.Junction.Columns)
	row := graft.Row{
		Parent:   graft.NewPrefix(s.spec.Parent.Columns, s.values[:p]),
		Junction: graft.NewPrefix(s.spec.Junction.Columns, s.values[p:j]),
		Child:    graft.AllNull,
	}
	if s.spec.HasChild() {
		row.Child = graft.NewPrefix(s.spec.Child.Columns, s.values[j:])
	}
	return row, nil
}

func toUUID(v any) (uuid.UUID, error) {
	switch v := v.(type) {
	case uuid.UUID:
		return v, nil
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("sqlgraph: unexpected type %T for a uuid column", v)
	}
}
