// Package graft rebuilds parent/junction/child object graphs from the flat
// rows of a parent LEFT JOIN junction LEFT JOIN child query.
//
// Each parent receives its junction entries in first-seen order, deduplicated
// by junction identity, and a parent with no junction rows receives an empty
// collection. Junction identity is either an independent key or the pair of
// its foreign keys:
//
//	parents, err := graft.Hydrate(rows, graft.KeySpec{
//	    ParentKey:         []string{"id"},
//	    DeriveJunctionKey: true,
//	    ParentFK:          []string{"block_id"},
//	    ChildFK:           []string{"item_id"},
//	    ChildKey:          []string{"id"},
//	})
//
// The rows usually come from sqlgraph.QueryRows, but any RowSeq works.
package graft

// Parent is the one side of the association.
type Parent struct {
	// ID is the key value, or a []any for multi-column keys.
	ID     any
	Fields map[string]any
	// Children is never nil in hydrated output.
	Children []*Junction
}

// Junction links a parent to one child.
type Junction struct {
	// ID is nil when the junction identity is derived from its foreign keys.
	ID     any
	Fields map[string]any
	// Item is nil only when the child level is not part of the rows.
	Item *Child
}

// Child is the target of a junction. Junctions referencing the same child
// key within one hydration share a single *Child.
type Child struct {
	ID     any
	Fields map[string]any
}
