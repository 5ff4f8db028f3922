// Package services contains the business facade between the UI boundary and
// the storage ledger.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"catatan/internal/core"
)

// Ledger is the persistence contract the service needs. *storage.Ledger
// implements it.
type Ledger interface {
	Add(ctx context.Context, tx core.Transaction) (int64, error)
	List(ctx context.Context) ([]core.Transaction, error)
	Delete(ctx context.Context, id int64) error
	Total(ctx context.Context, day core.Date) (float64, error)
	TotalByCategory(ctx context.Context, day core.Date) (map[string]float64, error)
	Close() error
}

// ExpenseService validates incoming transactions and assembles summaries.
// The storage layer trusts its inputs, so validation lives here, in front
// of it.
type ExpenseService struct {
	ledger Ledger
}

func NewExpenseService(ledger Ledger) *ExpenseService {
	return &ExpenseService{ledger: ledger}
}

// RecordExpense validates and persists a transaction, returning its id.
func (s *ExpenseService) RecordExpense(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	id, err := s.ledger.Add(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("record expense: %w", err)
	}
	return id, nil
}

// ListExpenses returns the full history, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return txs, nil
}

// DeleteExpense removes a transaction by id. Matches the ledger contract:
// an id that no longer exists is not an error.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ReadSummary returns the total and the per-category breakdown, optionally
// filtered to a single day. Categories are sorted by amount descending for
// display, names breaking ties.
func (s *ExpenseService) ReadSummary(ctx context.Context, day core.Date) (core.Summary, error) {
	summary := core.Summary{Date: day}

	total, err := s.ledger.Total(ctx, day)
	if err != nil {
		return summary, fmt.Errorf("read total: %w", err)
	}
	summary.Total = total

	sums, err := s.ledger.TotalByCategory(ctx, day)
	if err != nil {
		return summary, fmt.Errorf("read category sums: %w", err)
	}
	for name, amount := range sums {
		summary.ByCategory = append(summary.ByCategory, core.CategoryTotal{Name: name, Amount: amount})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Name < b.Name
	})

	slog.DebugContext(ctx, "Summary assembled",
		"date", day.String(),
		"total", summary.Total,
		"categories", len(summary.ByCategory))

	return summary, nil
}

// Close releases the underlying storage.
func (s *ExpenseService) Close() error {
	if s.ledger == nil {
		return nil
	}
	if err := s.ledger.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}
