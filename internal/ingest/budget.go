package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// JSONBudgetSource loads per-period budget declarations from files named
// YYYYMMbudget.json. Each file is an object of category name to expected
// amount; declaration order is load-bearing for the report, so the object is
// decoded token by token instead of into a map.
type JSONBudgetSource struct {
	dir string
}

func NewJSONBudgetSource(dir string) *JSONBudgetSource {
	return &JSONBudgetSource{dir: dir}
}

var _ BudgetSource = (*JSONBudgetSource)(nil)

func (s *JSONBudgetSource) Budget(ctx context.Context, year, month int) ([]core.BudgetLine, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%04d%02dbudget.json", year, month))
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("budget %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open budget %s: %w", path, err)
	}
	defer f.Close()

	lines, err := decodeBudget(f)
	if err != nil {
		return nil, fmt.Errorf("parse budget %s: %w", path, err)
	}
	return lines, nil
}

func decodeBudget(f *os.File) ([]core.BudgetLine, error) {
	dec := json.NewDecoder(f)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var lines []core.BudgetLine
	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		category, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected category name, got %v", keyTok)
		}
		if seen[category] {
			return nil, fmt.Errorf("duplicate budget line %q", category)
		}
		seen[category] = true

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("budget line %q: expected number, got %v", category, valTok)
		}
		expected, err := decimal.NewFromString(num.String())
		if err != nil {
			return nil, fmt.Errorf("budget line %q: %w", category, err)
		}
		lines = append(lines, core.BudgetLine{Category: category, Expected: expected})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return lines, nil
}
