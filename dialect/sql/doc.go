// Package sql adapts database/sql to the dialect.Driver contract.
//
// Driver executes statements through a *sql.DB or *sql.Tx and hands rows
// back through the Rows wrapper:
//
//	drv, err := sql.Open("sqlite", "file:graft.db")
//	if err != nil {
//	    return err
//	}
//	rows := &sql.Rows{}
//	err = drv.Query(ctx, "SELECT id FROM blocks", []any{}, rows)
//
// StatsDriver and DebugDriver wrap a Driver to count statements, report
// slow queries and log statements through log/slog.
package sql
