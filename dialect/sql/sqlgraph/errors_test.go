package sqlgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type sqlStateErr string

func (e sqlStateErr) Error() string    { return "sqlstate " + string(e) }
func (e sqlStateErr) SQLState() string { return string(e) }

func TestConstraintClassification(t *testing.T) {
	tests := []struct {
		name                      string
		err                       error
		unique, foreignKey, check bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("connection refused")},
		{name: "pq unique", err: &pq.Error{Code: "23505"}, unique: true},
		{name: "pq foreign key", err: &pq.Error{Code: "23503"}, foreignKey: true},
		{name: "pq check", err: &pq.Error{Code: "23514"}, check: true},
		{name: "pq other", err: &pq.Error{Code: "42P01"}},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062}, unique: true},
		{name: "mysql parent row", err: &mysql.MySQLError{Number: 1451}, foreignKey: true},
		{name: "mysql child row", err: &mysql.MySQLError{Number: 1452}, foreignKey: true},
		{name: "mysql check", err: &mysql.MySQLError{Number: 3819}, check: true},
		{name: "sqlstate", err: fmt.Errorf("wrapped: %w", sqlStateErr("23503")), foreignKey: true},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: block_items.block_id, block_items.item_id (1555)"), unique: true},
		{name: "sqlite foreign key", err: errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), foreignKey: true},
		{name: "wrapped mysql", err: fmt.Errorf("dialect/sql: exec: %w", &mysql.MySQLError{Number: 1452}), foreignKey: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.foreignKey, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.foreignKey || tt.check, IsConstraintError(tt.err))
		})
	}
}
