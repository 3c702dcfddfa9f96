// Package report implements the transaction aggregation and
// budget-reconciliation engine: the balance ledger, budget reconciler,
// pivot groupings and period rollups, plus the typed table model handed to
// renderers.
package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

var (
	ErrDuplicatePeriod = errors.New("period already ingested")
	ErrUnknownPeriod   = errors.New("period not ingested")
)

// Options configures an Engine. Zero values fall back to the historical
// defaults carried over from the spreadsheet tooling.
type Options struct {
	DefaultAccount     string
	IncomeCategories   []string
	BudgetExcluded     []string
	CashbackIneligible []string
	// ExcludeTransfersFromAccounts drops transfer rows from the account
	// pivot. Other pivots keep them; see PivotOptions.
	ExcludeTransfersFromAccounts bool
}

// Engine holds all mutable state of one report run: the stored periods and
// budgets, and the balance ledger. It is an explicit context object so that
// multi-year and multi-report runs stay independent; one Engine must not be
// shared across concurrent report generations.
type Engine struct {
	defaultAccount string
	income         core.CategorySet
	budgetExcluded core.CategorySet
	ineligible     core.CategorySet
	accountOpts    PivotOptions

	ledger  *Ledger
	periods map[core.PeriodKey][]core.Transaction
	budgets map[core.PeriodKey][]core.BudgetLine
	order   []core.PeriodKey
}

func NewEngine(opts Options) *Engine {
	if opts.DefaultAccount == "" {
		opts.DefaultAccount = core.DefaultAccount
	}
	if opts.IncomeCategories == nil {
		opts.IncomeCategories = core.DefaultIncomeCategories()
	}
	if opts.BudgetExcluded == nil {
		opts.BudgetExcluded = []string{core.CategoryTransfer}
	}
	if opts.CashbackIneligible == nil {
		opts.CashbackIneligible = core.DefaultCashbackIneligible()
	}
	return &Engine{
		defaultAccount: opts.DefaultAccount,
		income:         core.NewCategorySet(opts.IncomeCategories...),
		budgetExcluded: core.NewCategorySet(opts.BudgetExcluded...),
		ineligible:     core.NewCategorySet(opts.CashbackIneligible...),
		accountOpts:    PivotOptions{ExcludeTransfers: opts.ExcludeTransfersFromAccounts},
		ledger:         NewLedger(opts.DefaultAccount),
		periods:        make(map[core.PeriodKey][]core.Transaction),
		budgets:        make(map[core.PeriodKey][]core.BudgetLine),
	}
}

// Ledger exposes the engine's balance ledger for the period fold.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// AddPeriod stores one period's normalized transactions and budget lines.
// Periods are append-only: re-ingesting a key is an error, never a mutation.
func (e *Engine) AddPeriod(key core.PeriodKey, txs []core.Transaction, budget []core.BudgetLine) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if _, ok := e.periods[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePeriod, key)
	}
	e.periods[key] = txs
	e.budgets[key] = budget
	e.order = append(e.order, key)
	return nil
}

// Periods returns the ingested calendar period keys in chronological order.
func (e *Engine) Periods() []core.PeriodKey {
	keys := append([]core.PeriodKey(nil), e.order...)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

// BuildPeriod assembles the report for one ingested calendar period.
// The ledger must already have this period applied: the balance table shows
// post-period balances.
func (e *Engine) BuildPeriod(key core.PeriodKey) (*PeriodReport, error) {
	txs, ok := e.periods[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, key)
	}
	return e.build(key, txs, e.budgets[key]), nil
}

// BuildYear assembles the whole-year rollup from every ingested month of the
// year. Absent months contribute nothing. Returns ErrUnknownPeriod when no
// month of the year was ingested.
func (e *Engine) BuildYear(year int) (*PeriodReport, error) {
	var txs []core.Transaction
	var budgetSets [][]core.BudgetLine
	for _, key := range e.Periods() {
		if key.Year != year {
			continue
		}
		txs = append(txs, e.periods[key]...)
		budgetSets = append(budgetSets, e.budgets[key])
	}
	if budgetSets == nil {
		return nil, fmt.Errorf("%w: no months for %d", ErrUnknownPeriod, year)
	}
	return e.build(core.NewPeriodKey(year, core.MonthWholeYear), txs, RollupBudget(budgetSets...)), nil
}

// BuildAllTime assembles the rollup across every ingested period.
func (e *Engine) BuildAllTime() (*PeriodReport, error) {
	keys := e.Periods()
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: nothing ingested", ErrUnknownPeriod)
	}
	var txs []core.Transaction
	budgetSets := make([][]core.BudgetLine, 0, len(keys))
	for _, key := range keys {
		txs = append(txs, e.periods[key]...)
		budgetSets = append(budgetSets, e.budgets[key])
	}
	return e.build(core.NewPeriodKey(0, core.MonthAllTime), txs, RollupBudget(budgetSets...)), nil
}

func (e *Engine) build(key core.PeriodKey, txs []core.Transaction, budget []core.BudgetLine) *PeriodReport {
	r := &PeriodReport{Key: key, Title: key.Title(), Account: e.defaultAccount, Transactions: txs}

	var spending, income, allExpenses []core.Transaction
	byAccount := make(map[string][]core.Transaction)
	for _, tx := range txs {
		isIncome := e.income.Has(tx.Category) && tx.Amount.IsNegative()
		if tx.Account == e.defaultAccount {
			if isIncome {
				income = append(income, flip(tx))
			} else {
				spending = append(spending, tx)
			}
		} else {
			byAccount[tx.Account] = append(byAccount[tx.Account], flip(tx))
		}
		if !e.income.Has(tx.Category) {
			allExpenses = append(allExpenses, tx)
		}
	}
	r.Spending = spending
	r.Income = income
	r.AllExpenses = allExpenses

	for _, account := range sortedAccountNames(byAccount) {
		r.Accounts = append(r.Accounts, AccountSection{
			Account:      account,
			Transactions: byAccount[account],
		})
	}

	for _, tx := range income {
		r.Summary.Income = r.Summary.Income.Add(tx.Amount)
	}
	for _, tx := range spending {
		r.Summary.Expenses = r.Summary.Expenses.Add(tx.Amount)
	}
	r.Summary.Remaining = r.Summary.Income.Sub(r.Summary.Expenses)

	r.Balances = e.balanceRows(txs)
	r.Budget = Reconcile(budget, spending, e.budgetExcluded)
	r.ByCategory = PivotByCategory(allExpenses)
	r.ByAccount = PivotByAccount(allExpenses, e.accountOpts)
	r.ByWeekday = PivotByWeekday(allExpenses)
	r.ByDay = PivotByDay(allExpenses)
	r.ByCashback = PivotByCashback(allExpenses)
	r.CrossTab = CrossTabulate(allExpenses)
	r.Cashback = SummarizeCashback(allExpenses, e.ineligible)
	return r
}

// balanceRows joins the ledger's working balances with this period's
// per-account movement. Accounts live in the ledger even when suppressed
// from the rendered table; suppression is a display concern.
func (e *Engine) balanceRows(txs []core.Transaction) []BalanceRow {
	type movement struct {
		spent decimal.Decimal
		saved decimal.Decimal
	}
	moves := make(map[string]movement)
	for _, tx := range txs {
		if tx.Account == e.defaultAccount {
			continue
		}
		m := moves[tx.Account]
		if tx.Amount.IsPositive() {
			// outflow-positive: money pulled back out of the account
			m.spent = m.spent.Add(tx.Amount)
		} else {
			m.saved = m.saved.Add(tx.Amount.Neg())
		}
		moves[tx.Account] = m
	}

	balances := e.ledger.Balances()
	names := make(map[string]bool, len(balances)+len(moves))
	for account := range balances {
		names[account] = true
	}
	for account := range moves {
		names[account] = true
	}

	rows := make([]BalanceRow, 0, len(names))
	for _, account := range sortedKeys(names) {
		m := moves[account]
		rows = append(rows, BalanceRow{
			Account: account,
			Balance: balances[account],
			Net:     m.saved.Sub(m.spent),
			Spent:   m.spent,
			Saved:   m.saved,
		})
	}
	return rows
}

// flip negates a transaction's amount (and reward, keeping the derivation
// invariant) for display sections that present the account's own point of
// view.
func flip(tx core.Transaction) core.Transaction {
	tx.Amount = tx.Amount.Neg()
	tx.CashbackReward = tx.CashbackReward.Neg()
	return tx
}

func sortedAccountNames(byAccount map[string][]core.Transaction) []string {
	names := make([]string, 0, len(byAccount))
	for name := range byAccount {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
