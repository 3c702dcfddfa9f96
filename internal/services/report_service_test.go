package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
	"budgeteer/internal/ingest"
	"budgeteer/internal/log"
	"budgeteer/internal/report"
)

type fakeRecords struct {
	records map[string][]ingest.RawRecord
}

func (f *fakeRecords) Records(_ context.Context, year, month int) ([]ingest.RawRecord, error) {
	records, ok := f.records[fmt.Sprintf("%d-%d", year, month)]
	if !ok {
		return nil, fmt.Errorf("%w: %d-%d", ingest.ErrNotFound, year, month)
	}
	return records, nil
}

type fakeBudgets struct {
	budgets map[string][]core.BudgetLine
}

func (f *fakeBudgets) Budget(_ context.Context, year, month int) ([]core.BudgetLine, error) {
	budget, ok := f.budgets[fmt.Sprintf("%d-%d", year, month)]
	if !ok {
		return nil, fmt.Errorf("%w: budget %d-%d", ingest.ErrNotFound, year, month)
	}
	return budget, nil
}

type fakeBalances struct {
	saved     map[int]map[string]decimal.Decimal
	saveCount map[int]int
}

func (f *fakeBalances) Load(_ context.Context, year int) (map[string]decimal.Decimal, error) {
	balances, ok := f.saved[year]
	if !ok {
		return nil, fmt.Errorf("%w: balances %d", ingest.ErrNotFound, year)
	}
	return balances, nil
}

func (f *fakeBalances) Save(_ context.Context, year int, balances map[string]decimal.Decimal) error {
	if f.saved == nil {
		f.saved = make(map[int]map[string]decimal.Decimal)
	}
	if f.saveCount == nil {
		f.saveCount = make(map[int]int)
	}
	f.saved[year] = balances
	f.saveCount[year]++
	return nil
}

type fakeStore struct {
	periods   map[core.PeriodKey][]core.Transaction
	budgets   map[core.PeriodKey][]core.BudgetLine
	snapshots map[int]map[string]decimal.Decimal
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		periods:   make(map[core.PeriodKey][]core.Transaction),
		budgets:   make(map[core.PeriodKey][]core.BudgetLine),
		snapshots: make(map[int]map[string]decimal.Decimal),
	}
}

func (f *fakeStore) SavePeriod(_ context.Context, key core.PeriodKey, txs []core.Transaction) error {
	f.periods[key] = txs
	return nil
}

func (f *fakeStore) SaveBudget(_ context.Context, key core.PeriodKey, lines []core.BudgetLine) error {
	f.budgets[key] = lines
	return nil
}

func (f *fakeStore) SaveBalanceSnapshot(_ context.Context, year int, balances map[string]decimal.Decimal) error {
	f.snapshots[year] = balances
	return nil
}

func (f *fakeStore) LoadPeriod(_ context.Context, key core.PeriodKey) ([]core.Transaction, error) {
	return f.periods[key], nil
}

func (f *fakeStore) LoadBudget(_ context.Context, key core.PeriodKey) ([]core.BudgetLine, error) {
	return f.budgets[key], nil
}

func (f *fakeStore) LoadBalanceSnapshot(_ context.Context, year int) (map[string]decimal.Decimal, error) {
	return f.snapshots[year], nil
}

func (f *fakeStore) Years(_ context.Context) ([]int, error) {
	seen := make(map[int]bool)
	for key := range f.periods {
		seen[key.Year] = true
	}
	var years []int
	for year := range seen {
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError})
}

// newFixture builds a 2024 dataset where every month except June has a
// transaction file and a one-line budget.
func newFixture() (*fakeRecords, *fakeBudgets, *fakeBalances) {
	records := &fakeRecords{records: make(map[string][]ingest.RawRecord)}
	budgets := &fakeBudgets{budgets: make(map[string][]core.BudgetLine)}
	for month := 1; month <= 12; month++ {
		if month == 6 {
			continue
		}
		key := fmt.Sprintf("2024-%d", month)
		records.records[key] = []ingest.RawRecord{
			{
				Date:     fmt.Sprintf("%02d/10/2024", month),
				Category: "Groceries",
				Amount:   dec("-100"),
				Account:  "Monthly",
			},
			{
				Date:     fmt.Sprintf("%02d/01/2024", month),
				Category: "Salary",
				Amount:   dec("1000"),
				Account:  "Monthly",
			},
			{
				Date:     fmt.Sprintf("%02d/15/2024", month),
				Category: "Transfer",
				Amount:   dec("50"),
				Account:  "Savings",
			},
		}
		budgets.budgets[key] = []core.BudgetLine{
			{Category: "Groceries", Expected: dec("100")},
		}
	}
	return records, budgets, &fakeBalances{}
}

func newService(records *fakeRecords, budgets *fakeBudgets, balances *fakeBalances) *ReportService {
	s := NewReportService(records, budgets, balances, nil, nil, report.Options{}, quietLogger())
	s.now = func() time.Time { return time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestRunBuildsElevenMonthsAndYearRollup(t *testing.T) {
	s := newService(newFixture())

	r, err := s.Run(context.Background(), []int{2024})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 11 months plus the whole-year rollup
	if len(r.Periods) != 12 {
		t.Fatalf("got %d periods, want 12", len(r.Periods))
	}
	if p := r.Period(core.NewPeriodKey(2024, 6)); p != nil {
		t.Error("June has no source data and must not be built")
	}

	year := r.Period(core.NewPeriodKey(2024, core.MonthWholeYear))
	if year == nil {
		t.Fatal("missing whole-year rollup")
	}
	if len(year.Budget) == 0 || !year.Budget[0].Expected.Equal(dec("1100")) {
		t.Errorf("year budget expected = %v, want 1100 across 11 months", year.Budget)
	}
	if !year.Summary.Income.Equal(dec("11000")) {
		t.Errorf("year income = %s, want 11000", year.Summary.Income)
	}
}

func TestRunCarriesBalancesIntoNextYear(t *testing.T) {
	records, budgets, balances := newFixture()
	s := newService(records, budgets, balances)

	if _, err := s.Run(context.Background(), []int{2024}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	carried, ok := balances.saved[2025]
	if !ok {
		t.Fatal("closing balances for 2025 were not saved")
	}
	// 11 months of 50 into Savings
	if !carried["Savings"].Equal(dec("550")) {
		t.Errorf("Savings carry = %s, want 550", carried["Savings"])
	}
}

func TestRunUsesSavedStartingBalances(t *testing.T) {
	records, budgets, balances := newFixture()
	balances.saved = map[int]map[string]decimal.Decimal{
		2024: {"Savings": dec("1000")},
	}
	s := newService(records, budgets, balances)

	r, err := s.Run(context.Background(), []int{2024})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	january := r.Period(core.NewPeriodKey(2024, 1))
	if january == nil {
		t.Fatal("missing January")
	}
	var savings *report.BalanceRow
	for i := range january.Balances {
		if january.Balances[i].Account == "Savings" {
			savings = &january.Balances[i]
		}
	}
	if savings == nil {
		t.Fatal("missing Savings balance row")
	}
	if !savings.Balance.Equal(dec("1050")) {
		t.Errorf("January Savings balance = %s, want 1050", savings.Balance)
	}
}

func TestRunFocusAndHiddenHints(t *testing.T) {
	s := newService(newFixture())

	r, err := s.Run(context.Background(), []int{2024})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r.Focus != core.NewPeriodKey(2024, 12) {
		t.Errorf("Focus = %v, want December 2024", r.Focus)
	}
	for _, p := range r.Periods {
		if p.Key.Month > 12 {
			if p.Hidden {
				t.Errorf("rollup %s must not be hidden", p.Title)
			}
			continue
		}
		wantHidden := p.Key != r.Focus
		if p.Hidden != wantHidden {
			t.Errorf("period %s hidden = %v, want %v", p.Title, p.Hidden, wantHidden)
		}
	}
}

func TestRunRejectsEmptyYears(t *testing.T) {
	s := newService(newFixture())
	if _, err := s.Run(context.Background(), nil); err == nil {
		t.Error("expected error for empty year list")
	}
}

func TestRunMultiYearAddsAllTimeRollup(t *testing.T) {
	records, budgets, balances := newFixture()
	// One month of 2023 data
	records.records["2023-12"] = []ingest.RawRecord{
		{Date: "12/05/2023", Category: "Groceries", Amount: dec("-30"), Account: "Monthly"},
	}
	budgets.budgets["2023-12"] = []core.BudgetLine{
		{Category: "Groceries", Expected: dec("50")},
	}
	s := newService(records, budgets, balances)

	r, err := s.Run(context.Background(), []int{2024, 2023})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	allTime := r.Period(core.NewPeriodKey(0, core.MonthAllTime))
	if allTime == nil {
		t.Fatal("missing all-time rollup")
	}
	// 11 * 100 from 2024 plus 30 from 2023
	if !allTime.Summary.Expenses.Equal(dec("1130")) {
		t.Errorf("all-time expenses = %s, want 1130", allTime.Summary.Expenses)
	}

	// Years are processed ascending regardless of request order
	first := r.Periods[0]
	if first.Key.Year != 2023 {
		t.Errorf("first period year = %d, want 2023", first.Key.Year)
	}
}

func TestRunPersistedBalancesWinOverCarry(t *testing.T) {
	records, budgets, balances := newFixture()
	records.records["2025-1"] = []ingest.RawRecord{
		{Date: "01/10/2025", Category: "Transfer", Amount: dec("50"), Account: "Savings"},
	}
	budgets.budgets["2025-1"] = []core.BudgetLine{
		{Category: "Groceries", Expected: dec("100")},
	}
	balances.saved = map[int]map[string]decimal.Decimal{
		2025: {"Savings": dec("9000")},
	}
	s := newService(records, budgets, balances)

	r, err := s.Run(context.Background(), []int{2024, 2025})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	january := r.Period(core.NewPeriodKey(2025, 1))
	if january == nil {
		t.Fatal("missing January 2025")
	}
	var savings *report.BalanceRow
	for i := range january.Balances {
		if january.Balances[i].Account == "Savings" {
			savings = &january.Balances[i]
		}
	}
	if savings == nil {
		t.Fatal("missing Savings balance row")
	}
	if !savings.Balance.Equal(dec("9050")) {
		t.Errorf("January 2025 Savings = %s, want 9050 from the saved starting balance", savings.Balance)
	}

	// The saved 2025 file was authored before this run and must survive it.
	if !balances.saved[2025]["Savings"].Equal(dec("9000")) {
		t.Errorf("2025 balances = %s, want the original 9000", balances.saved[2025]["Savings"])
	}
	// 2026 had no file, so the run's own carry lands there.
	if !balances.saved[2026]["Savings"].Equal(dec("9050")) {
		t.Errorf("2026 carry = %s, want 9050", balances.saved[2026]["Savings"])
	}
}

func TestRunSavesSnapshotAfterEveryPeriod(t *testing.T) {
	records, budgets, balances := newFixture()
	s := newService(records, budgets, balances)

	if _, err := s.Run(context.Background(), []int{2024}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One save per built month, so mid-year snapshots exist on disk.
	if balances.saveCount[2025] != 11 {
		t.Errorf("2025 balance saves = %d, want 11", balances.saveCount[2025])
	}
	if !balances.saved[2025]["Savings"].Equal(dec("550")) {
		t.Errorf("final 2025 carry = %s, want 550", balances.saved[2025]["Savings"])
	}
}

func TestRunPersistsPeriodsToStore(t *testing.T) {
	records, budgets, balances := newFixture()
	store := newFakeStore()
	s := NewReportService(records, budgets, balances, store, nil, report.Options{}, quietLogger())
	s.now = func() time.Time { return time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC) }

	if _, err := s.Run(context.Background(), []int{2024}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.periods) != 11 {
		t.Errorf("stored %d periods, want 11", len(store.periods))
	}
	if !store.snapshots[2025]["Savings"].Equal(dec("550")) {
		t.Errorf("stored 2025 snapshot = %v, want Savings 550", store.snapshots[2025])
	}
}

func TestRebuildFromStore(t *testing.T) {
	records, budgets, balances := newFixture()
	store := newFakeStore()
	s := NewReportService(records, budgets, balances, store, nil, report.Options{}, quietLogger())
	s.now = func() time.Time { return time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC) }

	original, err := s.Run(context.Background(), []int{2024})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Empty years: rebuild discovers every stored year.
	rebuilt, err := s.Rebuild(context.Background(), nil)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	if len(rebuilt.Periods) != len(original.Periods) {
		t.Fatalf("rebuilt %d periods, want %d", len(rebuilt.Periods), len(original.Periods))
	}
	march := rebuilt.Period(core.NewPeriodKey(2024, 3))
	if march == nil {
		t.Fatal("missing rebuilt March")
	}
	if !march.Summary.Expenses.Equal(dec("100")) {
		t.Errorf("rebuilt March expenses = %s, want 100", march.Summary.Expenses)
	}
	if len(march.Budget) == 0 || march.Budget[0].Category != "Groceries" {
		t.Errorf("rebuilt March budget = %v", march.Budget)
	}

	year := rebuilt.Period(core.NewPeriodKey(2024, core.MonthWholeYear))
	if year == nil {
		t.Fatal("missing rebuilt year rollup")
	}
	if !year.Summary.Income.Equal(dec("11000")) {
		t.Errorf("rebuilt year income = %s, want 11000", year.Summary.Income)
	}
}

func TestRebuildWithoutStore(t *testing.T) {
	s := newService(newFixture())
	if _, err := s.Rebuild(context.Background(), nil); err == nil {
		t.Error("expected error rebuilding without a data backend")
	}
}
