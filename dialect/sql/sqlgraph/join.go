// Package sqlgraph is the row source of the hydrator: it builds and runs the
// parent LEFT JOIN junction LEFT JOIN child query of an association and
// streams its rows, split per join level, as a graft.RowSeq. It also writes
// the parent, child and junction records such a query reads.
package sqlgraph

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/syssam/graft/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// Table aliases used in the join query.
const (
	parentAlias   = "p"
	junctionAlias = "j"
	childAlias    = "c"
)

// TableSpec describes a table of the association.
type TableSpec struct {
	Table string
	// Columns lists every selected column, keys included.
	Columns []string
	// UUID lists the columns holding UUIDs. Their values are parsed
	// into uuid.UUID when scanned and generated by InsertNode when absent.
	UUID []string
}

// JoinSpec describes the parent, junction and child tables of an association
// and the columns joining them.
type JoinSpec struct {
	Parent   TableSpec
	Junction TableSpec
	Child    TableSpec
	// ParentKey is joined with ParentFK, ChildFK with ChildKey.
	ParentKey []string
	ParentFK  []string
	ChildFK   []string
	// ChildKey may be empty, in which case the child table is not joined.
	ChildKey []string
}

// HasChild reports whether the child table is part of the query.
func (s *JoinSpec) HasChild() bool { return len(s.ChildKey) > 0 }

// Validate checks the table and column names and the join arities.
func (s *JoinSpec) Validate() error {
	tables := []TableSpec{s.Parent, s.Junction}
	if s.HasChild() {
		tables = append(tables, s.Child)
	}
	for _, t := range tables {
		if !isValidIdentifier(t.Table) {
			return fmt.Errorf("sqlgraph: invalid table name %q", t.Table)
		}
		if len(t.Columns) == 0 {
			return fmt.Errorf("sqlgraph: table %q has no columns", t.Table)
		}
		for _, c := range t.Columns {
			if !isValidIdentifier(c) {
				return fmt.Errorf("sqlgraph: invalid column name %q in table %q", c, t.Table)
			}
		}
	}
	if len(s.ParentKey) == 0 || len(s.ParentKey) != len(s.ParentFK) {
		return fmt.Errorf("sqlgraph: parent key %v does not match junction columns %v", s.ParentKey, s.ParentFK)
	}
	if len(s.ChildFK) == 0 || s.HasChild() && len(s.ChildKey) != len(s.ChildFK) {
		return fmt.Errorf("sqlgraph: child key %v does not match junction columns %v", s.ChildKey, s.ChildFK)
	}
	selected := []struct {
		table   TableSpec
		columns []string
	}{
		{s.Parent, s.ParentKey},
		{s.Junction, slices.Concat(s.ParentFK, s.ChildFK)},
		{s.Child, s.ChildKey},
	}
	for _, sel := range selected {
		for _, c := range sel.columns {
			if !slices.Contains(sel.table.Columns, c) {
				return fmt.Errorf("sqlgraph: column %q is not selected from table %q", c, sel.table.Table)
			}
		}
	}
	return nil
}

// Query returns the join query of the association in the given dialect.
// Columns are selected parent first, then junction, then child, each in
// TableSpec order, and rows are ordered by the parent key.
func (s *JoinSpec) Query(d string) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	b := &builder{dialect: d}
	b.WriteString("SELECT ")
	b.columns(parentAlias, s.Parent.Columns, false)
	b.columns(junctionAlias, s.Junction.Columns, true)
	if s.HasChild() {
		b.columns(childAlias, s.Child.Columns, true)
	}
	b.WriteString(" FROM ")
	b.table(s.Parent.Table, parentAlias)
	b.WriteString(" LEFT JOIN ")
	b.table(s.Junction.Table, junctionAlias)
	b.on(junctionAlias, s.ParentFK, parentAlias, s.ParentKey)
	if s.HasChild() {
		b.WriteString(" LEFT JOIN ")
		b.table(s.Child.Table, childAlias)
		b.on(childAlias, s.ChildKey, junctionAlias, s.ChildFK)
	}
	b.WriteString(" ORDER BY ")
	b.columns(parentAlias, s.ParentKey, false)
	return b.String(), nil
}

// builder writes dialect-quoted SQL.
type builder struct {
	strings.Builder
	dialect string
}

func (b *builder) quote(ident string) string {
	if b.dialect == dialect.MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

func (b *builder) column(alias, name string) {
	b.WriteString(alias)
	b.WriteByte('.')
	b.WriteString(b.quote(name))
}

func (b *builder) columns(alias string, names []string, leadingComma bool) {
	for i, c := range names {
		if i > 0 || leadingComma {
			b.WriteString(", ")
		}
		b.column(alias, c)
	}
}

func (b *builder) table(name, alias string) {
	b.WriteString(b.quote(name))
	b.WriteString(" AS ")
	b.WriteString(alias)
}

func (b *builder) on(leftAlias string, left []string, rightAlias string, right []string) {
	b.WriteString(" ON ")
	for i := range left {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.column(leftAlias, left[i])
		b.WriteString(" = ")
		b.column(rightAlias, right[i])
	}
}

// placeholder returns the i-th (1-based) bind parameter of the dialect.
func placeholder(d string, i int) string {
	if d == dialect.Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
