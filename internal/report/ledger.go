package report

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// ErrOutOfOrder is returned when periods are applied in anything but month
// ascending order. Carry-forward is an ordered fold; reordering periods
// changes balances, so the ledger refuses instead of trusting the caller.
var ErrOutOfOrder = errors.New("ledger: period applied out of order")

// Ledger tracks per-account running balances across sequential periods.
// Non-default-account entries represent the other side of a transfer, so
// applying a period adds their sign-flipped net to the account balance.
// Starting balances are snapshotted per year; Reset rewinds the working state
// to a year's snapshot, which also allows replaying the same ordered sequence.
type Ledger struct {
	defaultAccount string
	starting       map[int]map[string]decimal.Decimal
	working        map[string]decimal.Decimal
	year           int
	lastMonth      int
}

func NewLedger(defaultAccount string) *Ledger {
	if defaultAccount == "" {
		defaultAccount = core.DefaultAccount
	}
	return &Ledger{
		defaultAccount: defaultAccount,
		starting:       make(map[int]map[string]decimal.Decimal),
		working:        make(map[string]decimal.Decimal),
	}
}

// SetStartingBalances installs persisted starting balances for a year,
// replacing any carried-forward snapshot. The input is copied.
func (l *Ledger) SetStartingBalances(year int, balances map[string]decimal.Decimal) {
	l.starting[year] = cloneBalances(balances)
}

// HasStartingBalances reports whether a starting snapshot exists for year,
// either persisted or carried forward from the previous year's run.
func (l *Ledger) HasStartingBalances(year int) bool {
	_, ok := l.starting[year]
	return ok
}

// StartingBalances returns a copy of the starting snapshot for year.
func (l *Ledger) StartingBalances(year int) map[string]decimal.Decimal {
	return cloneBalances(l.starting[year])
}

// Reset sets the working balances to the year's starting snapshot. The copy
// is deep: later mutation never aliases the stored snapshot.
func (l *Ledger) Reset(year int) {
	l.working = cloneBalances(l.starting[year])
	l.year = year
	l.lastMonth = 0
}

// ApplyPeriod folds one period's non-default-account transactions into the
// working balances. Periods must arrive month ascending within the year the
// ledger was last Reset to; anything else returns ErrOutOfOrder. Accounts not
// seen before are created at zero.
func (l *Ledger) ApplyPeriod(key core.PeriodKey, txs []core.Transaction) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if key.Year != l.year {
		return fmt.Errorf("%w: got year %d, ledger is at %d", ErrOutOfOrder, key.Year, l.year)
	}
	if key.Month <= l.lastMonth {
		return fmt.Errorf("%w: month %d after month %d", ErrOutOfOrder, key.Month, l.lastMonth)
	}
	for _, tx := range txs {
		if tx.Account == l.defaultAccount {
			continue
		}
		l.working[tx.Account] = l.working[tx.Account].Add(tx.Amount.Neg())
	}
	l.lastMonth = key.Month
	return nil
}

// SnapshotNextYearStart captures the current working balances as the next
// year's starting snapshot. Called once per period, so mid-year snapshots are
// available for inspection, not only end-of-year totals.
func (l *Ledger) SnapshotNextYearStart() {
	l.starting[l.year+1] = cloneBalances(l.working)
}

// Balances returns a copy of the working balances.
func (l *Ledger) Balances() map[string]decimal.Decimal {
	return cloneBalances(l.working)
}

// Balance returns the working balance for one account (zero if unseen).
func (l *Ledger) Balance(account string) decimal.Decimal {
	return l.working[account]
}

func cloneBalances(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for account, balance := range in {
		out[account] = balance
	}
	return out
}
