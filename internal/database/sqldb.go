package database

import (
	"context"
	"database/sql"
	"errors"
)

// ErrorMapper translates a native driver error into an *errs.Error.
type ErrorMapper func(err error, msg string) error

// SQLDB implements DB over a database/sql pool. The mysql and sqlite drivers
// embed it and supply their own error mapping.
type SQLDB struct {
	db      *sql.DB
	dialect Dialect
	mapErr  ErrorMapper
}

// NewSQLDB wraps an opened *sql.DB.
func NewSQLDB(db *sql.DB, d Dialect, mapErr ErrorMapper) *SQLDB {
	return &SQLDB{db: db, dialect: d, mapErr: mapErr}
}

// Configure applies pool settings from cfg.
func (s *SQLDB) Configure(cfg *Config) {
	s.db.SetMaxOpenConns(int(cfg.MaxConns))
	s.db.SetMaxIdleConns(int(cfg.MinConns))
	s.db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	s.db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
}

func (s *SQLDB) Dialect() Dialect { return s.dialect }

func (s *SQLDB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.mapErr(err, "ping failed")
	}
	return nil
}

func (s *SQLDB) Close() {
	_ = s.db.Close()
}

func (s *SQLDB) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.mapErr(err, "exec failed")
	}
	return nil
}

func (s *SQLDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *SQLDB) TableExists(ctx context.Context, table string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, s.dialect.TableExistsQuery(), table).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, s.mapErr(err, "failed to check table existence")
	}
	return true, nil
}

func (s *SQLDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.mapErr(err, "begin failed")
	}
	return &sqlTx{tx: tx, mapErr: s.mapErr}, nil
}

type sqlTx struct {
	tx     *sql.Tx
	mapErr ErrorMapper
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return t.mapErr(err, "exec failed")
	}
	return nil
}

func (t *sqlTx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return t.mapErr(err, "commit failed")
	}
	return nil
}

func (t *sqlTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return t.mapErr(err, "rollback failed")
	}
	return nil
}
