package report

import (
	"errors"
	"testing"
	"time"

	"budgeteer/internal/core"
)

func mustAdd(t *testing.T, e *Engine, key core.PeriodKey, txs []core.Transaction, budget []core.BudgetLine) {
	t.Helper()
	if err := e.AddPeriod(key, txs, budget); err != nil {
		t.Fatalf("AddPeriod(%s): %v", key, err)
	}
	if err := e.Ledger().ApplyPeriod(key, txs); err != nil {
		t.Fatalf("ApplyPeriod(%s): %v", key, err)
	}
	e.Ledger().SnapshotNextYearStart()
}

func TestEngineBuildPeriodSplitsIncomeAndSpending(t *testing.T) {
	e := NewEngine(Options{})
	e.Ledger().Reset(2024)
	key := core.NewPeriodKey(2024, 3)
	txs := []core.Transaction{
		tx(core.DefaultAccount, "Salary", "-1000"),
		tx(core.DefaultAccount, "Food", "250"),
		tx("Savings", core.CategoryTransfer, "-100"),
	}
	mustAdd(t, e, key, txs, nil)

	r, err := e.BuildPeriod(key)
	if err != nil {
		t.Fatalf("BuildPeriod: %v", err)
	}
	if len(r.Income) != 1 || !r.Income[0].Amount.Equal(dec("1000")) {
		t.Fatalf("income section: %+v", r.Income)
	}
	if len(r.Spending) != 1 || r.Spending[0].Category != "Food" {
		t.Fatalf("spending section: %+v", r.Spending)
	}
	if len(r.Accounts) != 1 || r.Accounts[0].Account != "Savings" ||
		!r.Accounts[0].Transactions[0].Amount.Equal(dec("100")) {
		t.Fatalf("account section: %+v", r.Accounts)
	}
	if !r.Summary.Income.Equal(dec("1000")) || !r.Summary.Expenses.Equal(dec("250")) ||
		!r.Summary.Remaining.Equal(dec("750")) {
		t.Fatalf("summary: %+v", r.Summary)
	}
	// income categories never appear in the expense frame
	for _, etx := range r.AllExpenses {
		if etx.Category == "Salary" {
			t.Fatal("income leaked into expenses")
		}
	}
}

func TestEngineRejectsDuplicatePeriod(t *testing.T) {
	e := NewEngine(Options{})
	key := core.NewPeriodKey(2024, 1)
	if err := e.AddPeriod(key, nil, nil); err != nil {
		t.Fatalf("first AddPeriod: %v", err)
	}
	if err := e.AddPeriod(key, nil, nil); !errors.Is(err, ErrDuplicatePeriod) {
		t.Fatalf("duplicate AddPeriod: %v", err)
	}
}

func TestEngineBalanceSuppression(t *testing.T) {
	e := NewEngine(Options{})
	e.Ledger().Reset(2024)
	key := core.NewPeriodKey(2024, 1)
	txs := []core.Transaction{
		tx("Savings", core.CategoryTransfer, "-100"),
		tx("Dust", core.CategoryTransfer, "-0.0005"),
	}
	mustAdd(t, e, key, txs, nil)

	r, err := e.BuildPeriod(key)
	if err != nil {
		t.Fatalf("BuildPeriod: %v", err)
	}
	if len(r.Balances) != 2 {
		t.Fatalf("ledger rows = %d, want 2 (suppression is display-only)", len(r.Balances))
	}
	visible := r.VisibleBalances()
	if len(visible) != 1 || visible[0].Account != "Savings" {
		t.Fatalf("visible rows: %+v", visible)
	}
	if !e.Ledger().Balance("Dust").Equal(dec("0.0005")) {
		t.Fatal("suppressed account must stay in the ledger mapping")
	}
}

func TestEngineYearRollupToleratesMissingMonth(t *testing.T) {
	e := NewEngine(Options{})
	e.Ledger().Reset(2024)
	budget := []core.BudgetLine{line("Food", "100")}
	for month := 1; month <= 12; month++ {
		if month == 6 {
			continue // period file missing upstream
		}
		date := time.Date(2024, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
		mustAdd(t, e, core.NewPeriodKey(2024, month),
			[]core.Transaction{txOn(date, core.DefaultAccount, "Food", "10")}, budget)
	}
	if got := len(e.Periods()); got != 11 {
		t.Fatalf("stored periods = %d, want 11", got)
	}

	year, err := e.BuildYear(2024)
	if err != nil {
		t.Fatalf("BuildYear: %v", err)
	}
	if year.Key.Month != core.MonthWholeYear {
		t.Fatalf("year key = %v", year.Key)
	}
	if len(year.AllExpenses) != 11 {
		t.Fatalf("year aggregates %d transactions, want 11", len(year.AllExpenses))
	}
	if !year.Budget[0].Expected.Equal(dec("1100")) {
		t.Fatalf("year budget expected = %s, want 1100", year.Budget[0].Expected)
	}
	if !year.Budget[0].Actual.Equal(dec("110")) {
		t.Fatalf("year budget actual = %s, want 110", year.Budget[0].Actual)
	}
}

func TestEngineAllTimeRollup(t *testing.T) {
	e := NewEngine(Options{})
	l := e.Ledger()
	l.Reset(2023)
	mustAdd(t, e, core.NewPeriodKey(2023, 12),
		[]core.Transaction{tx(core.DefaultAccount, "Food", "5")}, nil)
	l.Reset(2024)
	mustAdd(t, e, core.NewPeriodKey(2024, 1),
		[]core.Transaction{tx(core.DefaultAccount, "Food", "7")}, nil)

	all, err := e.BuildAllTime()
	if err != nil {
		t.Fatalf("BuildAllTime: %v", err)
	}
	if all.Key.Month != core.MonthAllTime {
		t.Fatalf("all-time key = %v", all.Key)
	}
	if len(all.AllExpenses) != 2 {
		t.Fatalf("all-time transactions = %d", len(all.AllExpenses))
	}
	food := all.ByCategory[0]
	if food.Category != "Food" || !food.Net.Equal(dec("12")) {
		t.Fatalf("all-time category pivot: %+v", food)
	}
}

func TestEngineBuildUnknownPeriod(t *testing.T) {
	e := NewEngine(Options{})
	if _, err := e.BuildPeriod(core.NewPeriodKey(2024, 1)); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
	if _, err := e.BuildYear(2024); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod for empty year, got %v", err)
	}
	if _, err := e.BuildAllTime(); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod for empty engine, got %v", err)
	}
}

func TestRollupBudgetFirstSeenOrder(t *testing.T) {
	jan := []core.BudgetLine{line("Rent", "1000"), line("Food", "200")}
	feb := []core.BudgetLine{line("Food", "250"), line("Travel", "75")}
	merged := RollupBudget(jan, feb)

	want := []struct {
		category string
		expected string
	}{{"Rent", "1000"}, {"Food", "450"}, {"Travel", "75"}}
	if len(merged) != len(want) {
		t.Fatalf("got %d lines", len(merged))
	}
	for i, w := range want {
		if merged[i].Category != w.category || !merged[i].Expected.Equal(dec(w.expected)) {
			t.Fatalf("line %d = %s %s, want %s %s",
				i, merged[i].Category, merged[i].Expected, w.category, w.expected)
		}
	}
}
