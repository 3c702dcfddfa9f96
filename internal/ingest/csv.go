package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"budgeteer/internal/core"
)

// CSVSource reads transaction exports from a directory. Export files are
// named "Transactions <Mon> 1, <year> - <Mon> <dd>, <year>.csv"; re-exports
// get a " (n)" copy suffix and the highest copy wins.
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

var _ RecordSource = (*CSVSource)(nil)

// Records implements RecordSource. A period with no matching export file
// returns ErrNotFound; a file with only a header returns an empty slice.
func (s *CSVSource) Records(ctx context.Context, year, month int) ([]RawRecord, error) {
	path, err := s.resolve(year, month)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", path, err)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", path, err)
	}

	slog.InfoContext(ctx, "Read transaction export",
		"path", path, "year", year, "month", month, "records", len(records))
	return records, nil
}

// resolve finds the newest export file for the period.
func (s *CSVSource) resolve(year, month int) (string, error) {
	pattern := fmt.Sprintf("Transactions %s 1, %d - %s ??, %d*.csv",
		core.MonthShort(month), year, core.MonthShort(month), year)
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no export matching %q: %w", pattern, ErrNotFound)
	}
	// Plain exports sort before their " (n)" copies.
	sort.Slice(matches, func(i, j int) bool {
		return copySortKey(matches[i]) < copySortKey(matches[j])
	})
	return matches[len(matches)-1], nil
}

// copySortKey normalizes a filename without a copy suffix so that it ranks
// as copy zero.
func copySortKey(name string) string {
	if strings.Contains(name, "(") {
		return name
	}
	return strings.Replace(name, ".csv", " (0).csv", 1)
}

func readRecords(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Date", "Category", "Amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	var records []RawRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := core.ParseAmount(field(row, cols, "Amount"))
		if err != nil {
			return nil, fmt.Errorf("line %d: amount: %w", line, err)
		}
		records = append(records, RawRecord{
			Date:     field(row, cols, "Date"),
			Category: field(row, cols, "Category"),
			Amount:   amount,
			Note:     field(row, cols, "Note"),
			Account:  field(row, cols, "Account"),
		})
	}
	return records, nil
}

// field returns a trimmed cell, tolerating rows shorter than the header.
func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
