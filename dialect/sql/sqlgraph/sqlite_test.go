package sqlgraph_test

import (
	"context"
	stdsql "database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/graft"
	"github.com/syssam/graft/dialect"
	"github.com/syssam/graft/dialect/sql"
	"github.com/syssam/graft/dialect/sql/sqlgraph"
)

const (
	blocksDDL = `CREATE TABLE blocks (id INTEGER PRIMARY KEY AUTOINCREMENT)`
	itemsDDL  = `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT)`

	surrogateDDL = `CREATE TABLE block_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		block_id INTEGER NOT NULL REFERENCES blocks (id),
		item_id INTEGER NOT NULL REFERENCES items (id)
	)`
	compositeDDL = `CREATE TABLE block_items (
		block_id INTEGER NOT NULL REFERENCES blocks (id),
		item_id INTEGER NOT NULL REFERENCES items (id),
		PRIMARY KEY (block_id, item_id)
	)`
)

// openSQLite opens an in-memory database with the given schema. A single
// connection keeps every statement on the same in-memory database.
func openSQLite(t *testing.T, ddl ...string) *sql.Driver {
	t.Helper()
	db, err := stdsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	drv := sql.OpenDB(dialect.SQLite, db)
	ctx := context.Background()
	require.NoError(t, drv.Exec(ctx, "PRAGMA foreign_keys = ON", []any{}, nil))
	for _, stmt := range ddl {
		require.NoError(t, drv.Exec(ctx, stmt, []any{}, nil))
	}
	return drv
}

type variant struct {
	junctionID string
	ddl        string
	spec       *sqlgraph.JoinSpec
	keys       graft.KeySpec
}

func surrogateVariant() variant {
	return variant{
		junctionID: "id",
		ddl:        surrogateDDL,
		spec: &sqlgraph.JoinSpec{
			Parent:    sqlgraph.TableSpec{Table: "blocks", Columns: []string{"id"}},
			Junction:  sqlgraph.TableSpec{Table: "block_items", Columns: []string{"id", "block_id", "item_id"}},
			Child:     sqlgraph.TableSpec{Table: "items", Columns: []string{"id"}},
			ParentKey: []string{"id"},
			ParentFK:  []string{"block_id"},
			ChildFK:   []string{"item_id"},
			ChildKey:  []string{"id"},
		},
		keys: graft.KeySpec{
			ParentKey:   []string{"id"},
			JunctionKey: []string{"id"},
			ParentFK:    []string{"block_id"},
			ChildFK:     []string{"item_id"},
			ChildKey:    []string{"id"},
		},
	}
}

func compositeVariant() variant {
	v := surrogateVariant()
	v.junctionID = ""
	v.ddl = compositeDDL
	v.spec.Junction.Columns = []string{"block_id", "item_id"}
	v.keys.JunctionKey = nil
	v.keys.DeriveJunctionKey = true
	return v
}

func fetchBlocksWithItems(t *testing.T, drv *sql.Driver, v variant) []map[string]any {
	t.Helper()
	parents, err := graft.Hydrate(sqlgraph.QueryRows(context.Background(), drv, v.spec), v.keys)
	require.NoError(t, err)
	return graft.Document(parents, graft.Names{Children: "blockItems"})
}

func TestSQLite_BlockWithItem(t *testing.T) {
	ctx := context.Background()

	t.Run("surrogate key", func(t *testing.T) {
		v := surrogateVariant()
		drv := openSQLite(t, blocksDDL, itemsDDL, v.ddl)
		block, err := sqlgraph.InsertNode(ctx, drv, v.spec.Parent, "id", nil)
		require.NoError(t, err)
		item, err := sqlgraph.InsertNode(ctx, drv, v.spec.Child, "id", nil)
		require.NoError(t, err)
		blockItem, err := sqlgraph.InsertEdge(ctx, drv, v.spec, v.junctionID, block, item, nil)
		require.NoError(t, err)

		assert.Equal(t, []map[string]any{{
			"id": block,
			"blockItems": []any{
				map[string]any{"id": blockItem, "item": map[string]any{"id": item}},
			},
		}}, fetchBlocksWithItems(t, drv, v))
	})

	t.Run("composite key", func(t *testing.T) {
		v := compositeVariant()
		drv := openSQLite(t, blocksDDL, itemsDDL, v.ddl)
		block, err := sqlgraph.InsertNode(ctx, drv, v.spec.Parent, "id", nil)
		require.NoError(t, err)
		item, err := sqlgraph.InsertNode(ctx, drv, v.spec.Child, "id", nil)
		require.NoError(t, err)
		id, err := sqlgraph.InsertEdge(ctx, drv, v.spec, v.junctionID, block, item, nil)
		require.NoError(t, err)
		assert.Nil(t, id)

		assert.Equal(t, []map[string]any{{
			"id": block,
			"blockItems": []any{
				map[string]any{"item": map[string]any{"id": item}},
			},
		}}, fetchBlocksWithItems(t, drv, v))
	})
}

func TestSQLite_BlockWithoutItem(t *testing.T) {
	for name, v := range map[string]variant{"surrogate key": surrogateVariant(), "composite key": compositeVariant()} {
		t.Run(name, func(t *testing.T) {
			drv := openSQLite(t, blocksDDL, itemsDDL, v.ddl)
			block, err := sqlgraph.InsertNode(context.Background(), drv, v.spec.Parent, "id", nil)
			require.NoError(t, err)

			assert.Equal(t, []map[string]any{{
				"id":         block,
				"blockItems": []any{},
			}}, fetchBlocksWithItems(t, drv, v))
		})
	}
}

func TestSQLite_SharedItems(t *testing.T) {
	ctx := context.Background()
	v := compositeVariant()
	drv := openSQLite(t, blocksDDL, itemsDDL, v.ddl)

	var blocks, items []any
	for range 3 {
		id, err := sqlgraph.InsertNode(ctx, drv, v.spec.Parent, "id", nil)
		require.NoError(t, err)
		blocks = append(blocks, id)
	}
	for range 2 {
		id, err := sqlgraph.InsertNode(ctx, drv, v.spec.Child, "id", nil)
		require.NoError(t, err)
		items = append(items, id)
	}
	for _, pair := range [][2]int{{0, 0}, {0, 1}, {2, 1}} {
		_, err := sqlgraph.InsertEdge(ctx, drv, v.spec, "", blocks[pair[0]], items[pair[1]], nil)
		require.NoError(t, err)
	}

	parents, err := graft.Hydrate(sqlgraph.QueryRows(ctx, drv, v.spec), v.keys)
	require.NoError(t, err)
	require.Len(t, parents, 3)
	assert.Len(t, parents[0].Children, 2)
	assert.Empty(t, parents[1].Children)
	require.Len(t, parents[2].Children, 1)
	// Item 1 is shared by blocks 0 and 2.
	shared := parents[2].Children[0].Item
	assert.Equal(t, items[1], shared.ID)
	for _, j := range parents[0].Children {
		if j.Item.ID == items[1] {
			assert.Same(t, shared, j.Item)
		}
	}
}

func TestSQLite_Constraints(t *testing.T) {
	ctx := context.Background()
	v := compositeVariant()
	drv := openSQLite(t, blocksDDL, itemsDDL, v.ddl)

	block, err := sqlgraph.InsertNode(ctx, drv, v.spec.Parent, "id", nil)
	require.NoError(t, err)
	item, err := sqlgraph.InsertNode(ctx, drv, v.spec.Child, "id", nil)
	require.NoError(t, err)
	_, err = sqlgraph.InsertEdge(ctx, drv, v.spec, "", block, item, nil)
	require.NoError(t, err)

	_, err = sqlgraph.InsertEdge(ctx, drv, v.spec, "", block, item, nil)
	require.Error(t, err)
	assert.True(t, graft.IsConstraintError(err))
	assert.True(t, sqlgraph.IsUniqueConstraintError(err))

	_, err = sqlgraph.InsertEdge(ctx, drv, v.spec, "", block, int64(404), nil)
	require.Error(t, err)
	assert.True(t, sqlgraph.IsForeignKeyConstraintError(err))
}

func TestSQLite_UUIDKeys(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t,
		`CREATE TABLE blocks (id TEXT PRIMARY KEY)`,
		`CREATE TABLE items (id TEXT PRIMARY KEY, name TEXT)`,
		`CREATE TABLE block_items (
			block_id TEXT NOT NULL REFERENCES blocks (id),
			item_id TEXT NOT NULL REFERENCES items (id),
			PRIMARY KEY (block_id, item_id)
		)`,
	)
	spec := &sqlgraph.JoinSpec{
		Parent:    sqlgraph.TableSpec{Table: "blocks", Columns: []string{"id"}, UUID: []string{"id"}},
		Junction:  sqlgraph.TableSpec{Table: "block_items", Columns: []string{"block_id", "item_id"}, UUID: []string{"block_id", "item_id"}},
		Child:     sqlgraph.TableSpec{Table: "items", Columns: []string{"id", "name"}, UUID: []string{"id"}},
		ParentKey: []string{"id"},
		ParentFK:  []string{"block_id"},
		ChildFK:   []string{"item_id"},
		ChildKey:  []string{"id"},
	}
	block, err := sqlgraph.InsertNode(ctx, drv, spec.Parent, "id", nil)
	require.NoError(t, err)
	item, err := sqlgraph.InsertNode(ctx, drv, spec.Child, "id", map[string]any{"name": "hammer"})
	require.NoError(t, err)
	_, err = sqlgraph.InsertEdge(ctx, drv, spec, "", block, item, nil)
	require.NoError(t, err)

	parents, err := graft.Hydrate(sqlgraph.QueryRows(ctx, drv, spec), graft.KeySpec{
		ParentKey:         []string{"id"},
		DeriveJunctionKey: true,
		ParentFK:          []string{"block_id"},
		ChildFK:           []string{"item_id"},
		ChildKey:          []string{"id"},
	})
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.IsType(t, uuid.UUID{}, parents[0].ID)
	assert.Equal(t, block, parents[0].ID)
	require.Len(t, parents[0].Children, 1)
	assert.Equal(t, &graft.Child{ID: item, Fields: map[string]any{"name": "hammer"}}, parents[0].Children[0].Item)
}
