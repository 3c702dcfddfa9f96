// Package storage persists built periods, their budgets, and year-end
// balance snapshots in SQLite so reports can be rebuilt without re-reading
// the exported files.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"budgeteer/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SavePeriod replaces the stored transactions for a period. Saving the
// same period twice keeps only the latest build.
func (r *SQLiteRepository) SavePeriod(ctx context.Context, key core.PeriodKey, txs []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO periods (year, month, built_at) VALUES (?, ?, ?)
		 ON CONFLICT(year, month) DO UPDATE SET built_at = excluded.built_at`,
		key.Year, key.Month, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert period: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE year = ? AND month = ?`,
		key.Year, key.Month); err != nil {
		return fmt.Errorf("clear period transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, year, month, date, category, amount, note, account, cashback_percent, cashback_reward)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), key.Year, key.Month, t.Date,
			t.Category, t.Amount.String(), t.Note, t.Account,
			t.CashbackPercent.String(), t.CashbackReward.String()); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit period: %w", err)
	}

	slog.InfoContext(ctx, "Period saved to SQLite",
		"year", key.Year, "month", key.Month, "count", len(txs))
	return nil
}

// SaveBudget replaces the stored budget lines for a period, preserving
// declaration order.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, key core.PeriodKey, lines []core.BudgetLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM budget_lines WHERE year = ? AND month = ?`,
		key.Year, key.Month); err != nil {
		return fmt.Errorf("clear budget lines: %w", err)
	}

	for i, line := range lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budget_lines (year, month, position, category, expected) VALUES (?, ?, ?, ?, ?)`,
			key.Year, key.Month, i, line.Category, line.Expected.String()); err != nil {
			return fmt.Errorf("insert budget line: %w", err)
		}
	}

	return tx.Commit()
}

// SaveBalanceSnapshot stores the opening balances for a year.
func (r *SQLiteRepository) SaveBalanceSnapshot(ctx context.Context, year int, balances map[string]decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM balance_snapshots WHERE year = ?`, year); err != nil {
		return fmt.Errorf("clear balance snapshot: %w", err)
	}

	for account, amount := range balances {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO balance_snapshots (year, account, amount) VALUES (?, ?, ?)`,
			year, account, amount.String()); err != nil {
			return fmt.Errorf("insert balance snapshot: %w", err)
		}
	}

	return tx.Commit()
}

// LoadPeriod returns the stored transactions for a period in date order.
func (r *SQLiteRepository) LoadPeriod(ctx context.Context, key core.PeriodKey) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, category, amount, note, account, cashback_percent, cashback_reward
		 FROM transactions WHERE year = ? AND month = ? ORDER BY date, id`,
		key.Year, key.Month)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var amount, percent, reward string
		if err := rows.Scan(&t.Date, &t.Category, &amount, &t.Note, &t.Account, &percent, &reward); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		if t.CashbackPercent, err = decimal.NewFromString(percent); err != nil {
			return nil, fmt.Errorf("parse stored cashback percent %q: %w", percent, err)
		}
		if t.CashbackReward, err = decimal.NewFromString(reward); err != nil {
			return nil, fmt.Errorf("parse stored cashback reward %q: %w", reward, err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// LoadBudget returns the stored budget lines for a period in declaration order.
func (r *SQLiteRepository) LoadBudget(ctx context.Context, key core.PeriodKey) ([]core.BudgetLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, expected FROM budget_lines WHERE year = ? AND month = ? ORDER BY position`,
		key.Year, key.Month)
	if err != nil {
		return nil, fmt.Errorf("query budget lines: %w", err)
	}
	defer rows.Close()

	var lines []core.BudgetLine
	for rows.Next() {
		var line core.BudgetLine
		var expected string
		if err := rows.Scan(&line.Category, &expected); err != nil {
			return nil, fmt.Errorf("scan budget line: %w", err)
		}
		if line.Expected, err = decimal.NewFromString(expected); err != nil {
			return nil, fmt.Errorf("parse stored expected %q: %w", expected, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// LoadBalanceSnapshot returns the stored opening balances for a year.
func (r *SQLiteRepository) LoadBalanceSnapshot(ctx context.Context, year int) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account, amount FROM balance_snapshots WHERE year = ?`, year)
	if err != nil {
		return nil, fmt.Errorf("query balance snapshot: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal)
	for rows.Next() {
		var account, amount string
		if err := rows.Scan(&account, &amount); err != nil {
			return nil, fmt.Errorf("scan balance snapshot: %w", err)
		}
		if balances[account], err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse stored balance %q: %w", amount, err)
		}
	}
	return balances, rows.Err()
}

// Years returns the distinct years with at least one stored period,
// ascending.
func (r *SQLiteRepository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT year FROM periods ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, year)
	}
	return years, rows.Err()
}
