// Package services wires the ingest sources, the report engine, persistence
// and export into the report-generation use case.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
	"budgeteer/internal/export"
	"budgeteer/internal/ingest"
	"budgeteer/internal/log"
	"budgeteer/internal/report"
)

// PeriodStore persists built periods and serves them back for rebuilds.
// Satisfied by storage.SQLiteRepository.
type PeriodStore interface {
	SavePeriod(ctx context.Context, key core.PeriodKey, txs []core.Transaction) error
	SaveBudget(ctx context.Context, key core.PeriodKey, lines []core.BudgetLine) error
	SaveBalanceSnapshot(ctx context.Context, year int, balances map[string]decimal.Decimal) error
	LoadPeriod(ctx context.Context, key core.PeriodKey) ([]core.Transaction, error)
	LoadBudget(ctx context.Context, key core.PeriodKey) ([]core.BudgetLine, error)
	LoadBalanceSnapshot(ctx context.Context, year int) (map[string]decimal.Decimal, error)
	Years(ctx context.Context) ([]int, error)
}

// ReportService runs the full pipeline: load a year's files month by month,
// fold them through the engine and ledger, and roll the closing balances
// into the next year.
type ReportService struct {
	records  ingest.RecordSource
	budgets  ingest.BudgetSource
	balances ingest.BalanceStore
	store    PeriodStore
	writer   export.ReportWriter
	opts     report.Options
	logger   *log.Logger
	now      func() time.Time
}

// NewReportService creates the service. store and writer may be nil when
// persistence or export is disabled.
func NewReportService(
	records ingest.RecordSource,
	budgets ingest.BudgetSource,
	balances ingest.BalanceStore,
	store PeriodStore,
	writer export.ReportWriter,
	opts report.Options,
	logger *log.Logger,
) *ReportService {
	return &ReportService{
		records:  records,
		budgets:  budgets,
		balances: balances,
		store:    store,
		writer:   writer,
		opts:     opts,
		logger:   logger.WithComponent(log.ComponentService),
		now:      time.Now,
	}
}

// Run builds the report for the given years, ascending. Each year's closing
// balances are saved and carried into the next; a year without a saved
// balance file starts from the previous year's carry-over.
func (s *ReportService) Run(ctx context.Context, years []int) (*report.Report, error) {
	if len(years) == 0 {
		return nil, errors.New("no years requested")
	}
	years = append([]int(nil), years...)
	sort.Ints(years)

	engine := report.NewEngine(s.opts)
	ledger := engine.Ledger()
	result := &report.Report{}

	var carry map[string]decimal.Decimal
	for _, year := range years {
		starting, err := s.startingBalances(ctx, year, carry)
		if err != nil {
			return nil, err
		}
		ledger.SetStartingBalances(year, starting)
		ledger.Reset(year)

		// A balance file the operator authored for the next year wins over
		// anything this run computes, so it is never overwritten.
		writeNext, err := s.nextYearBalancesWritable(ctx, year+1)
		if err != nil {
			return nil, err
		}

		built := 0
		for month := 1; month <= 12; month++ {
			key := core.NewPeriodKey(year, month)
			periodReport, err := s.buildMonth(ctx, engine, key)
			if err != nil {
				if errors.Is(err, ingest.ErrNotFound) {
					s.logger.Warn("Skipping period without source data",
						log.FieldYear, year, log.FieldMonth, month)
					continue
				}
				return nil, err
			}
			result.Periods = append(result.Periods, periodReport)
			built++

			// Snapshot after every period so mid-year balances are
			// inspectable, not only the year-end state.
			ledger.SnapshotNextYearStart()
			if err := s.saveClosingBalances(ctx, year+1, ledger.StartingBalances(year+1), writeNext); err != nil {
				return nil, err
			}
		}

		if built == 0 {
			s.logger.Warn("No periods built for year", log.FieldYear, year)
			carry = ledger.Balances()
			continue
		}

		carry = ledger.StartingBalances(year + 1)

		yearReport, err := engine.BuildYear(year)
		if err != nil {
			return nil, fmt.Errorf("build year %d: %w", year, err)
		}
		result.Periods = append(result.Periods, yearReport)
	}

	if len(result.Periods) == 0 {
		return nil, fmt.Errorf("no source data for years %v", years)
	}

	if len(years) > 1 {
		allTime, err := engine.BuildAllTime()
		if err != nil {
			return nil, fmt.Errorf("build all-time rollup: %w", err)
		}
		result.Periods = append(result.Periods, allTime)
	}

	s.applyFocus(result)

	s.logger.Info("Report built",
		"years", years,
		log.FieldCount, len(result.Periods))
	return result, nil
}

// Rebuild assembles the report from the persisted store instead of the
// export files. An empty years slice means every stored year. Closing
// balances are not re-saved: the store already holds them.
func (s *ReportService) Rebuild(ctx context.Context, years []int) (*report.Report, error) {
	if s.store == nil {
		return nil, errors.New("no data backend configured, cannot rebuild")
	}
	if len(years) == 0 {
		stored, err := s.store.Years(ctx)
		if err != nil {
			return nil, fmt.Errorf("list stored years: %w", err)
		}
		years = stored
	}
	if len(years) == 0 {
		return nil, errors.New("store holds no periods")
	}
	years = append([]int(nil), years...)
	sort.Ints(years)

	engine := report.NewEngine(s.opts)
	ledger := engine.Ledger()
	result := &report.Report{}

	for _, year := range years {
		starting, err := s.store.LoadBalanceSnapshot(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("load balance snapshot for %d: %w", year, err)
		}
		ledger.SetStartingBalances(year, starting)
		ledger.Reset(year)

		built := 0
		for month := 1; month <= 12; month++ {
			key := core.NewPeriodKey(year, month)
			txs, err := s.store.LoadPeriod(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("load period %s: %w", key, err)
			}
			budget, err := s.store.LoadBudget(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("load budget %s: %w", key, err)
			}
			if txs == nil && budget == nil {
				continue
			}

			if err := engine.AddPeriod(key, txs, budget); err != nil {
				return nil, fmt.Errorf("add period %s: %w", key, err)
			}
			if err := ledger.ApplyPeriod(key, txs); err != nil {
				return nil, fmt.Errorf("apply period %s: %w", key, err)
			}
			periodReport, err := engine.BuildPeriod(key)
			if err != nil {
				return nil, fmt.Errorf("build period %s: %w", key, err)
			}
			result.Periods = append(result.Periods, periodReport)
			built++
		}

		if built == 0 {
			s.logger.Warn("No stored periods for year", log.FieldYear, year)
			continue
		}

		yearReport, err := engine.BuildYear(year)
		if err != nil {
			return nil, fmt.Errorf("build year %d: %w", year, err)
		}
		result.Periods = append(result.Periods, yearReport)
	}

	if len(result.Periods) == 0 {
		return nil, fmt.Errorf("no stored periods for years %v", years)
	}

	if len(years) > 1 {
		allTime, err := engine.BuildAllTime()
		if err != nil {
			return nil, fmt.Errorf("build all-time rollup: %w", err)
		}
		result.Periods = append(result.Periods, allTime)
	}

	s.applyFocus(result)

	s.logger.Info("Report rebuilt from store",
		"years", years,
		log.FieldCount, len(result.Periods))
	return result, nil
}

// StoredYears lists the years with persisted periods. Without a data
// backend it returns nil.
func (s *ReportService) StoredYears(ctx context.Context) ([]int, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Years(ctx)
}

// Export writes the report through the configured writer.
func (s *ReportService) Export(ctx context.Context, r *report.Report) error {
	if s.writer == nil {
		s.logger.Info("Export disabled, skipping")
		return nil
	}
	return s.writer.WriteReport(ctx, r)
}

func (s *ReportService) buildMonth(ctx context.Context, engine *report.Engine, key core.PeriodKey) (*report.PeriodReport, error) {
	records, err := s.records.Records(ctx, key.Year, key.Month)
	if err != nil {
		return nil, err
	}

	txs, err := ingest.Normalize(records)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", key, err)
	}

	budget, err := s.budgets.Budget(ctx, key.Year, key.Month)
	if err != nil {
		return nil, err
	}

	if err := engine.AddPeriod(key, txs, budget); err != nil {
		return nil, fmt.Errorf("add period %s: %w", key, err)
	}
	if err := engine.Ledger().ApplyPeriod(key, txs); err != nil {
		return nil, fmt.Errorf("apply period %s: %w", key, err)
	}

	periodReport, err := engine.BuildPeriod(key)
	if err != nil {
		return nil, fmt.Errorf("build period %s: %w", key, err)
	}

	if s.store != nil {
		if err := s.store.SavePeriod(ctx, key, txs); err != nil {
			return nil, fmt.Errorf("persist period %s: %w", key, err)
		}
		if err := s.store.SaveBudget(ctx, key, budget); err != nil {
			return nil, fmt.Errorf("persist budget %s: %w", key, err)
		}
	}

	s.logger.Debug("Period built",
		log.FieldPeriod, key.String(),
		log.FieldCount, len(txs))
	return periodReport, nil
}

func (s *ReportService) startingBalances(ctx context.Context, year int, carry map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	balances, err := s.balances.Load(ctx, year)
	if err != nil {
		if errors.Is(err, ingest.ErrNotFound) {
			s.logger.Info("No saved balances for year, using carry-over",
				log.FieldYear, year, log.FieldCount, len(carry))
			return carry, nil
		}
		return nil, fmt.Errorf("load balances for %d: %w", year, err)
	}
	return balances, nil
}

// nextYearBalancesWritable reports whether no balance file exists yet for
// year, meaning this run may write its carry-over there.
func (s *ReportService) nextYearBalancesWritable(ctx context.Context, year int) (bool, error) {
	_, err := s.balances.Load(ctx, year)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ingest.ErrNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("check balances for %d: %w", year, err)
	}
}

func (s *ReportService) saveClosingBalances(ctx context.Context, year int, balances map[string]decimal.Decimal, writeFile bool) error {
	if writeFile {
		if err := s.balances.Save(ctx, year, balances); err != nil {
			return fmt.Errorf("save balances for %d: %w", year, err)
		}
	}
	if s.store != nil {
		if err := s.store.SaveBalanceSnapshot(ctx, year, balances); err != nil {
			return fmt.Errorf("persist balance snapshot for %d: %w", year, err)
		}
	}
	return nil
}

// applyFocus marks the current calendar month as the period a renderer
// should open on, falling back to the last monthly period, and hides the
// other months.
func (s *ReportService) applyFocus(r *report.Report) {
	nowKey := core.NewPeriodKey(s.now().Year(), int(s.now().Month()))
	focus := core.PeriodKey{}
	for _, p := range r.Periods {
		if p.Key.Month > 12 {
			continue
		}
		if p.Key == nowKey {
			focus = nowKey
			break
		}
		focus = p.Key
	}
	r.Focus = focus

	for _, p := range r.Periods {
		if p.Key.Month <= 12 && p.Key != focus {
			p.Hidden = true
		}
	}
}
