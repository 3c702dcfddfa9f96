package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"budgeteer/internal/amqp"
	"budgeteer/internal/cli"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
)

var reportYears []int

var rootCmd = &cobra.Command{
	Use:   "budgeteer",
	Short: "Build monthly spending reports from exported transaction files",
	Long: `budgeteer reads exported transaction CSVs, monthly budget files and
account balances, reconciles them into per-month reports with yearly and
all-time rollups, and renders the result to CSV files or a Google Spreadsheet.`,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build and export reports for the given years",
	RunE:  runReport,
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Queue a report rebuild for a worker to pick up",
	RunE:  runRequest,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild and export reports from the persisted store",
	Long: `rebuild reads previously persisted periods, budgets and balance
snapshots from the configured data backend instead of the export files.`,
	RunE: runRebuild,
}

func init() {
	reportCmd.Flags().IntSliceVarP(&reportYears, "year", "y", nil, "Years to build (default: current year)")
	requestCmd.Flags().IntSliceVarP(&reportYears, "year", "y", nil, "Years to rebuild (default: current year)")
	rebuildCmd.Flags().IntSliceVarP(&reportYears, "year", "y", nil, "Years to rebuild (default: every stored year)")
	rootCmd.AddCommand(reportCmd, requestCmd, rebuildCmd)
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func years() []int {
	if len(reportYears) == 0 {
		return []int{time.Now().Year()}
	}
	return reportYears
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	service, cleanup, err := services.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	r, err := service.Run(ctx, years())
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if err := service.Export(ctx, r); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	logger.Info("Done", log.FieldCount, len(r.Periods))
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	service, cleanup, err := services.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	r, err := service.Rebuild(ctx, reportYears)
	if err != nil {
		return fmt.Errorf("rebuild report: %w", err)
	}
	if err := service.Export(ctx, r); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	logger.Info("Done", log.FieldCount, len(r.Periods))
	return nil
}

func runRequest(cmd *cobra.Command, args []string) error {
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL must be set to queue report requests")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	msg, err := client.PublishReportRequest(ctx, years())
	if err != nil {
		return fmt.Errorf("publish request: %w", err)
	}

	logger.Info("Report request queued", log.FieldMessageID, msg.ID, "years", msg.Years)
	return nil
}
