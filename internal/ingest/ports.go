// Package ingest turns raw export files into the canonical transaction model.
// It defines the source ports the report service consumes and the file-backed
// adapters matching the export formats the bank tooling produces.
package ingest

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// ErrNotFound signals that the expected source data for a period or year is
// absent. Callers distinguish it from malformed data with errors.Is: a missing
// period is skipped, a missing balance file means carry-forward.
var ErrNotFound = errors.New("source data not found")

// RawRecord is one row of a transaction export, before normalization.
// Amount keeps the source sign convention (inflow-positive).
type RawRecord struct {
	Date     string
	Category string
	Amount   decimal.Decimal
	Note     string
	Account  string
}

type (
	// RecordSource yields one period's raw records.
	RecordSource interface {
		Records(ctx context.Context, year, month int) ([]RawRecord, error)
	}

	// BudgetSource yields one period's declared budget lines in file order.
	BudgetSource interface {
		Budget(ctx context.Context, year, month int) ([]core.BudgetLine, error)
	}

	// BalanceStore persists per-year starting balances. Load returns
	// ErrNotFound when no balances were saved for the year.
	BalanceStore interface {
		Load(ctx context.Context, year int) (map[string]decimal.Decimal, error)
		Save(ctx context.Context, year int, balances map[string]decimal.Decimal) error
	}
)
