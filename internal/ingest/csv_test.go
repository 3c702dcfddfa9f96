package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCSVSourceRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Transactions Mar 1, 2024 - Mar 31, 2024.csv",
		"Date, Category, Amount, Note, Account\n"+
			"03/02/2024, Food, -12.50, Lunch|5%, \n"+
			"03/10/2024, Transfer, -100, , Savings\n")

	src := NewCSVSource(dir)
	records, err := src.Records(context.Background(), 2024, 3)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// fields are trimmed of the padding the export writes
	if records[0].Category != "Food" || records[0].Note != "Lunch|5%" {
		t.Fatalf("fields not trimmed: %+v", records[0])
	}
	if !records[0].Amount.Equal(dec("-12.50")) {
		t.Fatalf("amount = %s", records[0].Amount)
	}
	if records[1].Account != "Savings" {
		t.Fatalf("account = %q", records[1].Account)
	}
}

func TestCSVSourcePrefersLatestCopy(t *testing.T) {
	dir := t.TempDir()
	header := "Date,Category,Amount,Note,Account\n"
	writeFile(t, dir, "Transactions Mar 1, 2024 - Mar 31, 2024.csv",
		header+"03/02/2024,Stale,-1,,\n")
	writeFile(t, dir, "Transactions Mar 1, 2024 - Mar 31, 2024 (1).csv",
		header+"03/02/2024,Fresh,-1,,\n")

	records, err := NewCSVSource(dir).Records(context.Background(), 2024, 3)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].Category != "Fresh" {
		t.Fatalf("expected the (1) re-export to win, got %+v", records)
	}
}

func TestCSVSourceMissingPeriod(t *testing.T) {
	src := NewCSVSource(t.TempDir())
	_, err := src.Records(context.Background(), 2024, 6)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCSVSourceHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Transactions Jan 1, 2024 - Jan 31, 2024.csv",
		"Date,Category,Amount,Note,Account\n")
	records, err := NewCSVSource(dir).Records(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("header-only export is empty data, not an error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}

func TestCSVSourceMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Transactions Jan 1, 2024 - Jan 31, 2024.csv",
		"Date,Amount\n01/02/2024,-1\n")
	_, err := NewCSVSource(dir).Records(context.Background(), 2024, 1)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed export must not look like a missing one: %v", err)
	}
}
