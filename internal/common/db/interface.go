package db

import (
	"context"
	"database/sql"
)

// Database is the abstraction over a relational store. Repositories depend
// on this interface so tests can substitute fakes.
type Database interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	Transaction(ctx context.Context, fn func(tx Transaction) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Transaction mirrors the query surface of Database inside a transaction.
type Transaction interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	Commit() error
	Rollback() error
}

// Rows wraps an iterable result set.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row wraps a single-row result.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result wraps the outcome of a write statement.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// sqlRows adapts *sql.Rows to Rows.
type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                     { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...interface{}) error { return r.rows.Scan(dest...) }
func (r *sqlRows) Close() error                   { return r.rows.Close() }
func (r *sqlRows) Err() error                     { return r.rows.Err() }

// sqlRow adapts *sql.Row to Row.
type sqlRow struct {
	row *sql.Row
}

func (r *sqlRow) Scan(dest ...interface{}) error { return r.row.Scan(dest...) }
