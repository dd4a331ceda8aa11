package database

import "context"

// DB is the central contract for all database operations.
// Writers talk only to this interface; they never import the postgres,
// mysql or sqlite packages directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Dialect reports the SQL flavour the driver speaks.
	Dialect() Dialect

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// Begin starts a transaction.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an open transaction. Rollback after Commit is a no-op.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
