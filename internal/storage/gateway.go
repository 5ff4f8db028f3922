// Package storage implements the persistence layer of the expense ledger:
// a thin gateway over a single SQLite file plus the ledger operations built
// on top of it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Gateway executes single parameterized statements against the database.
// Every call checks out a dedicated connection from the pool and releases
// it on all exit paths, so no statement ever spans two calls and there are
// no cross-call transactions.
type Gateway struct {
	db *sql.DB
}

// OpenGateway opens (creating if needed) the SQLite database at dbPath.
func OpenGateway(dbPath string) (*Gateway, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Gateway{db: db}, nil
}

func (g *Gateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

// withConn runs fn on a connection scoped to this call.
func (g *Gateway) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// Exec runs a DDL, UPDATE or DELETE statement and returns the number of
// affected rows.
func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := g.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("exec statement: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Database exec failed", "error", err)
		return 0, err
	}
	return affected, nil
}

// Insert runs an INSERT statement and returns the newly assigned row id.
func (g *Gateway) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := g.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert statement: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Database insert failed", "error", err)
		return 0, err
	}
	return id, nil
}

// FetchOne runs a query expected to return at most one row and passes it to
// scan. sql.ErrNoRows from scan is propagated unchanged.
func (g *Gateway) FetchOne(ctx context.Context, query string, args []any, scan func(row *sql.Row) error) error {
	err := g.withConn(ctx, func(conn *sql.Conn) error {
		return scan(conn.QueryRowContext(ctx, query, args...))
	})
	if err != nil && err != sql.ErrNoRows {
		slog.ErrorContext(ctx, "Database query failed", "error", err)
	}
	return err
}

// FetchAll runs a query and invokes scan once per row.
func (g *Gateway) FetchAll(ctx context.Context, query string, args []any, scan func(rows *sql.Rows) error) error {
	err := g.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query statement: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			if err := scan(rows); err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
		}
		return rows.Err()
	})
	if err != nil {
		slog.ErrorContext(ctx, "Database query failed", "error", err)
	}
	return err
}
