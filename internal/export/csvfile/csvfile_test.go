package csvfile

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/report"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError})
}

func samplePeriod(t *testing.T) *report.PeriodReport {
	t.Helper()
	return &report.PeriodReport{
		Key:     core.PeriodKey{Year: 2024, Month: 3},
		Title:   "March 2024",
		Account: "Monthly",
		Spending: []core.Transaction{
			{
				Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
				Category: "Groceries",
				Amount:   decimal.RequireFromString("42.50"),
				Note:     "Weekly shop",
				Account:  "Monthly",
			},
		},
		Summary: report.PeriodSummary{
			Income:    decimal.RequireFromString("1000"),
			Expenses:  decimal.RequireFromString("42.50"),
			Remaining: decimal.RequireFromString("957.50"),
		},
	}
}

func TestWriteReportCreatesPeriodDirectories(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, quietLogger())

	r := &report.Report{Periods: []*report.PeriodReport{samplePeriod(t)}}
	if err := w.WriteReport(context.Background(), r); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	periodDir := filepath.Join(dir, "March 2024")
	entries, err := os.ReadDir(periodDir)
	if err != nil {
		t.Fatalf("read period directory: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("period directory is empty")
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".csv" {
			t.Errorf("unexpected file %s", entry.Name())
		}
	}
}

func TestWriteReportFormatsRows(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, quietLogger())

	r := &report.Report{Periods: []*report.PeriodReport{samplePeriod(t)}}
	if err := w.WriteReport(context.Background(), r); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "March 2024", "March2024MonthlyTable.csv"))
	if err != nil {
		t.Fatalf("open spending table: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header plus one row", len(records))
	}
	if records[0][0] != "Date" || records[0][1] != "Category" {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[0] != "03/05/2024" || row[1] != "Groceries" || row[2] != "42.50" {
		t.Errorf("row = %v", row)
	}
}

func TestWriteReportMultiplePeriods(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, quietLogger())

	second := samplePeriod(t)
	second.Key = core.PeriodKey{Year: 2024, Month: 4}
	second.Title = "April 2024"

	r := &report.Report{Periods: []*report.PeriodReport{samplePeriod(t), second}}
	if err := w.WriteReport(context.Background(), r); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	for _, title := range []string{"March 2024", "April 2024"} {
		if _, err := os.Stat(filepath.Join(dir, title)); err != nil {
			t.Errorf("missing period directory %s: %v", title, err)
		}
	}
}
