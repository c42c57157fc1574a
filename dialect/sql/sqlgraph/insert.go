package sqlgraph

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/syssam/graft"
	"github.com/syssam/graft/dialect"
	"github.com/syssam/graft/dialect/sql"
)

// InsertNode inserts a row into table and returns its id. An absent UUID id
// is generated; other absent ids are assigned by the database.
func InsertNode(ctx context.Context, drv dialect.Driver, table TableSpec, idColumn string, fields map[string]any) (any, error) {
	values := maps.Clone(fields)
	if values == nil {
		values = make(map[string]any)
	}
	if _, ok := values[idColumn]; !ok && slices.Contains(table.UUID, idColumn) {
		values[idColumn] = uuid.New()
	}
	return insert(ctx, drv, table.Table, idColumn, values)
}

// InsertEdge inserts a junction row linking parentID to childID and returns
// its id, or nil when idColumn is empty (the junction is keyed by the pair).
// Multi-column keys are passed as []any in key order.
func InsertEdge(ctx context.Context, drv dialect.Driver, spec *JoinSpec, idColumn string, parentID, childID any, fields map[string]any) (any, error) {
	values := maps.Clone(fields)
	if values == nil {
		values = make(map[string]any)
	}
	if err := spread(values, spec.ParentFK, parentID); err != nil {
		return nil, err
	}
	if err := spread(values, spec.ChildFK, childID); err != nil {
		return nil, err
	}
	if idColumn != "" {
		if _, ok := values[idColumn]; !ok && slices.Contains(spec.Junction.UUID, idColumn) {
			values[idColumn] = uuid.New()
		}
	}
	return insert(ctx, drv, spec.Junction.Table, idColumn, values)
}

func spread(values map[string]any, columns []string, id any) error {
	if len(columns) == 1 {
		values[columns[0]] = id
		return nil
	}
	parts, ok := id.([]any)
	if !ok || len(parts) != len(columns) {
		return fmt.Errorf("sqlgraph: key %v does not match columns %v", id, columns)
	}
	for i, c := range columns {
		values[c] = parts[i]
	}
	return nil
}

func insert(ctx context.Context, drv dialect.Driver, table, idColumn string, values map[string]any) (any, error) {
	if !isValidIdentifier(table) {
		return nil, fmt.Errorf("sqlgraph: invalid table name %q", table)
	}
	columns := slices.Sorted(maps.Keys(values))
	d := drv.Dialect()
	b := &builder{dialect: d}
	b.WriteString("INSERT INTO ")
	b.WriteString(b.quote(table))
	args := make([]any, 0, len(columns))
	switch {
	case len(columns) == 0 && d == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	case len(columns) == 0:
		b.WriteString(" DEFAULT VALUES")
	default:
		b.WriteString(" (")
		for i, c := range columns {
			if !isValidIdentifier(c) {
				return nil, fmt.Errorf("sqlgraph: invalid column name %q", c)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(b.quote(c))
			args = append(args, values[c])
		}
		b.WriteString(") VALUES (")
		for i := range columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholder(d, i+1))
		}
		b.WriteString(")")
	}
	id, provided := values[idColumn]
	switch {
	case idColumn == "" || provided:
		if err := drv.Exec(ctx, b.String(), args, nil); err != nil {
			return nil, wrapInsert(table, err)
		}
		if idColumn == "" {
			return nil, nil
		}
		return id, nil
	case d == dialect.Postgres:
		b.WriteString(" RETURNING ")
		b.WriteString(b.quote(idColumn))
		rows := &sql.Rows{}
		if err := drv.Query(ctx, b.String(), args, rows); err != nil {
			return nil, wrapInsert(table, err)
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, wrapInsert(table, err)
			}
			return nil, fmt.Errorf("sqlgraph: insert %s: no id returned", table)
		}
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlgraph: insert %s: scan id: %w", table, err)
		}
		return id, nil
	default:
		var res sql.Result
		if err := drv.Exec(ctx, b.String(), args, &res); err != nil {
			return nil, wrapInsert(table, err)
		}
		n, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("sqlgraph: insert %s: last insert id: %w", table, err)
		}
		return n, nil
	}
}

func wrapInsert(table string, err error) error {
	if IsConstraintError(err) {
		return graft.NewConstraintError("insert "+table, err)
	}
	return fmt.Errorf("sqlgraph: insert %s: %w", table, err)
}
