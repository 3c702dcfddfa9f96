package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// JSONBalanceStore persists per-year starting balances as YYYYbalances.json
// files, an object of account name to balance. Absence of a year's file is
// not an error at this layer; the ledger inherits the prior year's carry.
type JSONBalanceStore struct {
	dir string
}

func NewJSONBalanceStore(dir string) *JSONBalanceStore {
	return &JSONBalanceStore{dir: dir}
}

var _ BalanceStore = (*JSONBalanceStore)(nil)

func (s *JSONBalanceStore) path(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%04dbalances.json", year))
}

func (s *JSONBalanceStore) Load(ctx context.Context, year int) (map[string]decimal.Decimal, error) {
	data, err := os.ReadFile(s.path(year))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("balances for %d: %w", year, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read balances for %d: %w", year, err)
	}

	balances := make(map[string]decimal.Decimal)
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, fmt.Errorf("parse balances for %d: %w", year, err)
	}
	return balances, nil
}

func (s *JSONBalanceStore) Save(ctx context.Context, year int, balances map[string]decimal.Decimal) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create balances directory: %w", err)
	}
	data, err := json.MarshalIndent(balances, "", "\t")
	if err != nil {
		return fmt.Errorf("marshal balances for %d: %w", year, err)
	}
	if err := os.WriteFile(s.path(year), data, 0644); err != nil {
		return fmt.Errorf("write balances for %d: %w", year, err)
	}
	return nil
}
