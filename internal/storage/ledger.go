package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"catatan/internal/core"
)

// Ledger exposes the five business operations over the transactions table.
// The constructor runs migrations, so every method operates on a ready
// schema. The ledger trusts the shape of its inputs; validation happens at
// the service boundary.
type Ledger struct {
	gateway *Gateway
}

// NewLedger opens the database at dbPath and ensures the schema exists.
func NewLedger(dbPath string) (*Ledger, error) {
	gw, err := OpenGateway(dbPath)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(dbPath); err != nil {
		gw.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Ledger{gateway: gw}, nil
}

func (l *Ledger) Close() error {
	return l.gateway.Close()
}

// Add inserts a transaction and returns the id assigned by storage.
func (l *Ledger) Add(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := l.gateway.Insert(ctx,
		`INSERT INTO transactions (description, amount, category, date) VALUES (?, ?, ?, ?)`,
		tx.Description, tx.Amount, tx.Category, tx.Date.String())
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"description", tx.Description,
		"amount", tx.Amount,
		"category", tx.Category,
		"date", tx.Date.String())

	return id, nil
}

// List returns all transactions, newest date first, insertion order
// (descending id) breaking ties. An empty ledger yields an empty slice,
// distinct from the nil slice returned on read errors.
func (l *Ledger) List(ctx context.Context) ([]core.Transaction, error) {
	out := []core.Transaction{}
	err := l.gateway.FetchAll(ctx,
		`SELECT id, description, amount, category, date FROM transactions ORDER BY date DESC, id DESC`,
		nil,
		func(rows *sql.Rows) error {
			var (
				tx      core.Transaction
				dateStr string
			)
			if err := rows.Scan(&tx.ID, &tx.Description, &tx.Amount, &tx.Category, &dateStr); err != nil {
				return err
			}
			d, err := core.ParseDate(dateStr)
			if err != nil {
				return fmt.Errorf("parse stored date %q: %w", dateStr, err)
			}
			tx.Date = d
			out = append(out, tx)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// Delete removes the transaction with the given id. Deleting an id that
// does not exist is not an error: the statement simply affects zero rows.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	affected, err := l.gateway.Exec(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	if affected == 0 {
		slog.DebugContext(ctx, "Delete matched no rows", "id", id)
	} else {
		slog.InfoContext(ctx, "Transaction deleted", "id", id)
	}
	return nil
}

// Total returns the sum of all amounts, or of the amounts on day when day
// is non-zero. SUM over zero rows is NULL in SQL; that is coalesced to 0
// here so callers always get a number.
func (l *Ledger) Total(ctx context.Context, day core.Date) (float64, error) {
	query := `SELECT SUM(amount) FROM transactions`
	var args []any
	if !day.IsEmpty() {
		query += ` WHERE date = ?`
		args = append(args, day.String())
	}

	var sum sql.NullFloat64
	err := l.gateway.FetchOne(ctx, query, args, func(row *sql.Row) error {
		return row.Scan(&sum)
	})
	if err != nil {
		return 0, fmt.Errorf("total amount: %w", err)
	}
	if !sum.Valid {
		return 0, nil
	}
	return sum.Float64, nil
}

// TotalByCategory returns per-category amount sums, optionally filtered to
// one day. Categories with no matching rows are absent from the map.
func (l *Ledger) TotalByCategory(ctx context.Context, day core.Date) (map[string]float64, error) {
	query := `SELECT category, SUM(amount) FROM transactions`
	var args []any
	if !day.IsEmpty() {
		query += ` WHERE date = ?`
		args = append(args, day.String())
	}
	query += ` GROUP BY category`

	sums := make(map[string]float64)
	err := l.gateway.FetchAll(ctx, query, args, func(rows *sql.Rows) error {
		var (
			category string
			amount   float64
		)
		if err := rows.Scan(&category, &amount); err != nil {
			return err
		}
		sums[category] = amount
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("total by category: %w", err)
	}
	return sums, nil
}
