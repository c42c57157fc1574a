package graft

import "iter"

// Prefix holds the columns of one join level of a flat row, keyed by column name.
//
// A nil Prefix is the outer-join "no match" marker (see AllNull). A non-nil
// Prefix may still carry individual null columns; that is a matched row whose
// columns happen to be null.
type Prefix map[string]any

// AllNull is the prefix of a join level for which every column evaluated to null.
var AllNull Prefix

// NewPrefix zips columns and values into a Prefix. It returns AllNull when
// every value is nil.
func NewPrefix(columns []string, values []any) Prefix {
	null := true
	for _, v := range values {
		if v != nil {
			null = false
			break
		}
	}
	if null {
		return AllNull
	}
	p := make(Prefix, len(columns))
	for i, c := range columns {
		if i < len(values) {
			p[c] = values[i]
		} else {
			p[c] = nil
		}
	}
	return p
}

// IsNull reports whether the prefix is the AllNull marker.
func (p Prefix) IsNull() bool { return p == nil }

// Row is a single flat row produced by a parent LEFT JOIN junction LEFT JOIN
// child query.
type Row struct {
	Parent   Prefix
	Junction Prefix
	Child    Prefix
}

// RowSeq is a finite stream of rows. Sequences backed by a database query can
// be consumed only once.
type RowSeq = iter.Seq2[Row, error]

// Rows returns a RowSeq over the given rows.
func Rows(rows ...Row) RowSeq {
	return func(yield func(Row, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}
