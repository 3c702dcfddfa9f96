package services

import (
	"context"
	"fmt"

	"budgeteer/internal/config"
	"budgeteer/internal/export"
	"budgeteer/internal/export/csvfile"
	"budgeteer/internal/export/google"
	"budgeteer/internal/ingest"
	"budgeteer/internal/log"
	"budgeteer/internal/report"
	"budgeteer/internal/storage"
)

// NewFromConfig assembles a ReportService from validated configuration.
// The returned cleanup closes whatever backends were opened.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (*ReportService, func() error, error) {
	cleanup := func() error { return nil }

	var store PeriodStore
	if cfg.DataBackend == "sqlite" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite: %w", err)
		}
		store = repo
		cleanup = repo.Close
	}

	writer, err := newWriter(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	opts := report.Options{
		DefaultAccount:               cfg.DefaultAccount,
		IncomeCategories:             cfg.IncomeCategories,
		BudgetExcluded:               cfg.BudgetExcludedCategories,
		CashbackIneligible:           cfg.CashbackIneligibleCategories,
		ExcludeTransfersFromAccounts: cfg.ExcludeTransfersFromAccounts,
	}

	service := NewReportService(
		ingest.NewCSVSource(cfg.TransactionsDir),
		ingest.NewJSONBudgetSource(cfg.BudgetsDir),
		ingest.NewJSONBalanceStore(cfg.BalancesDir),
		store,
		writer,
		opts,
		logger,
	)
	return service, cleanup, nil
}

func newWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (export.ReportWriter, error) {
	switch cfg.Exporter {
	case "csv":
		return csvfile.New(cfg.ReportsDir, logger), nil
	case "sheets":
		client, err := google.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("init sheets exporter: %w", err)
		}
		return client, nil
	default:
		return nil, nil
	}
}
