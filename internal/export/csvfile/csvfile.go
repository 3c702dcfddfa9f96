// Package csvfile writes each period of a report as a directory of CSV
// files, one file per table.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"budgeteer/internal/export"
	"budgeteer/internal/log"
	"budgeteer/internal/report"
)

// Writer renders reports under a base output directory.
type Writer struct {
	outputDir string
	logger    *log.Logger
}

// New creates a Writer rooted at outputDir.
func New(outputDir string, logger *log.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		logger:    logger.WithComponent(log.ComponentExport),
	}
}

// WriteReport writes every period concurrently. Each period gets its own
// directory named after its title.
func (w *Writer) WriteReport(ctx context.Context, r *report.Report) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, period := range r.Periods {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return w.writePeriod(period)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	w.logger.Info("Report written",
		log.FieldPath, w.outputDir,
		log.FieldCount, len(r.Periods))
	return nil
}

func (w *Writer) writePeriod(period *report.PeriodReport) error {
	dir := filepath.Join(w.outputDir, period.Title)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create period directory %s: %w", dir, err)
	}

	for _, table := range period.Tables() {
		filename := filepath.Join(dir, table.Name+".csv")
		if err := writeTable(filename, table); err != nil {
			return err
		}
	}

	w.logger.Debug("Period written", log.FieldPeriod, period.Title)
	return nil
}

func writeTable(filename string, table report.Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	headers := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		headers[i] = column.Name
	}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write header to %s: %w", filename, err)
	}

	for _, row := range table.Rows {
		if err := writer.Write(export.FormatRow(row, table.Columns)); err != nil {
			return fmt.Errorf("write row to %s: %w", filename, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filename, err)
	}

	return nil
}
