package report

import (
	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// AccountSection lists one non-default account's transactions, amounts
// flipped to the account's own point of view (deposits positive).
type AccountSection struct {
	Account      string
	Transactions []core.Transaction
}

// PeriodSummary carries the period's headline scalars.
type PeriodSummary struct {
	Income    decimal.Decimal
	Expenses  decimal.Decimal
	Remaining decimal.Decimal
}

// BalanceRow is one account's ledger state after the period: running
// balance, this period's net movement, and its spent/saved split.
type BalanceRow struct {
	Account string
	Balance decimal.Decimal
	Net     decimal.Decimal
	Spent   decimal.Decimal
	Saved   decimal.Decimal
}

// Settled reports whether every figure of the row is below the display
// epsilon. Settled rows are suppressed from the rendered balance table but
// still participate in ledger arithmetic.
func (r BalanceRow) Settled() bool {
	return core.Negligible(r.Balance) &&
		core.Negligible(r.Net) &&
		core.Negligible(r.Spent) &&
		core.Negligible(r.Saved)
}

// PeriodReport is everything a renderer needs for one period: the canonical
// transaction sections, the reconciled budget, the pivot tables and the
// cashback scalars. Hidden is a pure presentation hint.
type PeriodReport struct {
	Key   core.PeriodKey
	Title string

	// Account is the default account the period's spending and income
	// sections belong to.
	Account string

	Transactions []core.Transaction
	Spending     []core.Transaction
	Income       []core.Transaction
	Accounts     []AccountSection
	AllExpenses  []core.Transaction

	Summary  PeriodSummary
	Balances []BalanceRow
	Budget   []BudgetRow

	ByCategory []CategoryRow
	ByAccount  []PivotRow
	ByWeekday  [7]PivotRow
	ByDay      [31]PivotRow
	ByCashback []CashbackRow
	CrossTab   CrossTab
	Cashback   CashbackSummary

	Hidden bool
}

// VisibleBalances filters out settled accounts for rendering.
func (r *PeriodReport) VisibleBalances() []BalanceRow {
	rows := make([]BalanceRow, 0, len(r.Balances))
	for _, row := range r.Balances {
		if !row.Settled() {
			rows = append(rows, row)
		}
	}
	return rows
}

// Report is a complete multi-period run. Focus names the period a renderer
// should open on; it carries no computational meaning.
type Report struct {
	Periods []*PeriodReport
	Focus   core.PeriodKey
}

// Period returns the report for key, or nil.
func (r *Report) Period(key core.PeriodKey) *PeriodReport {
	for _, p := range r.Periods {
		if p.Key == key {
			return p
		}
	}
	return nil
}
