// Package dialect defines the database contracts the row source and the
// write path run against.
//
// # Dialect Constants
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite3"
//
// The SQLite constant names the dialect, not the registered database/sql
// driver; modernc.org/sqlite registers itself as "sqlite", and
// sql.OpenDB(dialect.SQLite, db) binds the two.
//
// # Sub-packages
//
//   - dialect/sql: database/sql backed Driver, statistics and debug wrappers
//   - dialect/sql/sqlgraph: join queries over an association, row streaming
//     and inserts
package dialect
