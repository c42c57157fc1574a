package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-openapi/inflect"

	"github.com/syssam/graft"
	"github.com/syssam/graft/dialect/sql/sqlgraph"
)

// Key types.
const (
	KeyInt    = "int"
	KeyString = "string"
	KeyUUID   = "uuid"
)

// Entity is a table taking part in an association.
type Entity struct {
	Name  string `yaml:"name"`
	Table string `yaml:"table,omitempty"`
	// Key lists the identity columns. Defaults to "id", except for
	// composite junctions which have none.
	Key     StringList `yaml:"key,omitempty"`
	KeyType string     `yaml:"keyType,omitempty"`
	// Columns lists the selected non-key columns.
	Columns []string `yaml:"columns,omitempty"`
}

// Junction is the associative entity.
type Junction struct {
	Entity `yaml:",inline"`
	// Composite makes the pair of foreign keys the junction identity.
	Composite bool       `yaml:"composite,omitempty"`
	ParentFK  StringList `yaml:"parentFK,omitempty"`
	ChildFK   StringList `yaml:"childFK,omitempty"`
}

// Association is one parent has-many junction belongs-to child relation.
type Association struct {
	// Name is the document key of the parent's junction collection.
	Name string `yaml:"name,omitempty"`
	// Item is the document key of the junction's child.
	Item     string   `yaml:"item,omitempty"`
	Parent   Entity   `yaml:"parent"`
	Junction Junction `yaml:"junction"`
	Child    Entity   `yaml:"child"`
}

// Normalize validates the association and fills in the derived defaults.
func (a *Association) Normalize() error {
	roles := []struct {
		name string
		*Entity
	}{{"parent", &a.Parent}, {"junction", &a.Junction.Entity}, {"child", &a.Child}}
	for _, r := range roles {
		role, e := r.name, r.Entity
		if e.Name == "" {
			return fmt.Errorf("schema: %s name is required", role)
		}
		switch e.KeyType {
		case "":
			e.KeyType = KeyInt
		case KeyInt, KeyString, KeyUUID:
		default:
			return fmt.Errorf("schema: %s %s: unknown key type %q", role, e.Name, e.KeyType)
		}
		if e.Table == "" {
			e.Table = inflect.Pluralize(inflect.Underscore(e.Name))
		}
	}
	for _, e := range []*Entity{&a.Parent, &a.Child} {
		if len(e.Key) == 0 {
			e.Key = StringList{"id"}
		}
	}
	j := &a.Junction
	switch {
	case j.Composite && len(j.Key) > 0:
		return fmt.Errorf("schema: junction %s: composite junctions have no key columns", j.Name)
	case !j.Composite && len(j.Key) == 0:
		j.Key = StringList{"id"}
	}
	if len(j.ParentFK) == 0 {
		j.ParentFK = foreignKeys(a.Parent)
	}
	if len(j.ChildFK) == 0 {
		j.ChildFK = foreignKeys(a.Child)
	}
	if len(j.ParentFK) != len(a.Parent.Key) {
		return fmt.Errorf("schema: junction %s: %d parent foreign keys for a %d column key", j.Name, len(j.ParentFK), len(a.Parent.Key))
	}
	if len(j.ChildFK) != len(a.Child.Key) {
		return fmt.Errorf("schema: junction %s: %d child foreign keys for a %d column key", j.Name, len(j.ChildFK), len(a.Child.Key))
	}
	if a.Name == "" {
		a.Name = inflect.CamelizeDownFirst(inflect.Pluralize(inflect.Underscore(j.Name)))
	}
	if a.Item == "" {
		a.Item = inflect.CamelizeDownFirst(inflect.Underscore(a.Child.Name))
	}
	if err := documentKeys(&a.Parent, nil, a.Name); err != nil {
		return err
	}
	if err := documentKeys(&j.Entity, slices.Concat(j.ParentFK, j.ChildFK), a.Item); err != nil {
		return err
	}
	return documentKeys(&a.Child, nil, "")
}

// documentKeys rejects a non-key column of e that a document would shadow
// with its id or with the edge key.
func documentKeys(e *Entity, omitted []string, edge string) error {
	for _, c := range e.Columns {
		if slices.Contains(e.Key, c) || slices.Contains(omitted, c) {
			continue
		}
		switch c {
		case "id":
			return fmt.Errorf("schema: %s: non-key column %q collides with the document id", e.Name, c)
		case edge:
			return fmt.Errorf("schema: %s: column %q collides with the edge of the same name", e.Name, c)
		}
	}
	return nil
}

// foreignKeys names the columns referencing e, e.g. block_id for Block.id.
func foreignKeys(e Entity) StringList {
	prefix := inflect.Underscore(e.Name)
	fks := make(StringList, len(e.Key))
	for i, k := range e.Key {
		fks[i] = prefix + "_" + k
	}
	return fks
}

// KeySpec returns the hydrator configuration of a normalized association.
func (a *Association) KeySpec() graft.KeySpec {
	s := graft.KeySpec{
		ParentKey:         a.Parent.Key,
		DeriveJunctionKey: a.Junction.Composite,
		ParentFK:          a.Junction.ParentFK,
		ChildFK:           a.Junction.ChildFK,
		ChildKey:          a.Child.Key,
	}
	if !a.Junction.Composite {
		s.JunctionKey = a.Junction.Key
	}
	return s
}

// JoinSpec returns the row source query description of a normalized association.
func (a *Association) JoinSpec() *sqlgraph.JoinSpec {
	j := a.Junction
	junction := sqlgraph.TableSpec{
		Table:   j.Table,
		Columns: columns(j.Key, j.ParentFK, j.ChildFK, j.Columns),
	}
	if j.KeyType == KeyUUID {
		junction.UUID = append(junction.UUID, j.Key...)
	}
	if a.Parent.KeyType == KeyUUID {
		junction.UUID = append(junction.UUID, j.ParentFK...)
	}
	if a.Child.KeyType == KeyUUID {
		junction.UUID = append(junction.UUID, j.ChildFK...)
	}
	return &sqlgraph.JoinSpec{
		Parent:    table(a.Parent),
		Junction:  junction,
		Child:     table(a.Child),
		ParentKey: a.Parent.Key,
		ParentFK:  j.ParentFK,
		ChildFK:   j.ChildFK,
		ChildKey:  a.Child.Key,
	}
}

// Names returns the document keys of the association's edges.
func (a *Association) Names() graft.Names {
	return graft.Names{Children: a.Name, Item: a.Item}
}

func table(e Entity) sqlgraph.TableSpec {
	t := sqlgraph.TableSpec{Table: e.Table, Columns: columns(e.Key, e.Columns)}
	if e.KeyType == KeyUUID {
		t.UUID = e.Key
	}
	return t
}

// columns concatenates column lists, dropping repeats.
func columns(lists ...[]string) []string {
	var cols []string
	for _, l := range lists {
		for _, c := range l {
			if !slices.Contains(cols, c) {
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// File is a set of associations.
type File struct {
	Associations []*Association `yaml:"associations"`
}

// Normalize normalizes every association and rejects duplicate names.
func (f *File) Normalize() error {
	seen := make(map[string]bool, len(f.Associations))
	var errs []error
	for i, a := range f.Associations {
		if err := a.Normalize(); err != nil {
			errs = append(errs, fmt.Errorf("association %d: %w", i, err))
			continue
		}
		key := a.Parent.Name + "." + a.Name
		if seen[key] {
			errs = append(errs, fmt.Errorf("association %d: duplicate edge %s", i, key))
		}
		seen[key] = true
	}
	return errors.Join(errs...)
}

// Lookup returns the association of the given parent entity and edge name.
func (f *File) Lookup(parent, name string) (*Association, bool) {
	for _, a := range f.Associations {
		if a.Parent.Name == parent && a.Name == name {
			return a, true
		}
	}
	return nil, false
}
