package graft

import "fmt"

// KeySpec describes how identities are extracted from each join level of a row.
type KeySpec struct {
	// ParentKey lists the parent identity columns.
	ParentKey []string
	// JunctionKey lists the columns of an independent junction key.
	// It is ignored when DeriveJunctionKey is set.
	JunctionKey []string
	// DeriveJunctionKey makes the junction identity the pair
	// (parent key, child key) read from the foreign-key columns.
	DeriveJunctionKey bool
	// ParentFK lists the junction columns referencing ParentKey, in order.
	ParentFK []string
	// ChildFK lists the junction columns referencing ChildKey, in order.
	ChildFK []string
	// ChildKey lists the child identity columns. Empty means the child
	// level is not part of the row.
	ChildKey []string
}

// Validate reports whether the spec can drive a hydration.
func (s KeySpec) Validate() error {
	switch {
	case len(s.ParentKey) == 0:
		return invalidSpec("parent key columns are required")
	case !s.DeriveJunctionKey && len(s.JunctionKey) == 0:
		return invalidSpec("junction key columns are required unless the key is derived")
	case len(s.ParentFK) == 0:
		return invalidSpec("junction foreign-key columns referencing the parent are required")
	case len(s.ParentFK) != len(s.ParentKey):
		return invalidSpec("parent foreign key has %d columns, parent key has %d", len(s.ParentFK), len(s.ParentKey))
	case len(s.ChildFK) == 0:
		return invalidSpec("junction foreign-key columns referencing the child are required")
	case len(s.ChildKey) > 0 && len(s.ChildFK) != len(s.ChildKey):
		return invalidSpec("child foreign key has %d columns, child key has %d", len(s.ChildFK), len(s.ChildKey))
	}
	return nil
}

func invalidSpec(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidKeySpec, fmt.Sprintf(format, args...))
}
