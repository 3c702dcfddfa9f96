package ingest

import (
	"fmt"
	"sort"
	"time"

	"budgeteer/internal/core"
)

// DateLayout is the calendar format of export date fields (month/day/year).
const DateLayout = "01/02/2006"

// Normalize turns one period's raw records into the canonical transaction
// collection. In order: amounts are negated so that positive means outflow,
// "Carry Over" rows are dropped (they seed balances, they are not spending),
// dates are parsed, notes are split from their cashback annotation, the
// reward is derived, and the result is sorted by date ascending with the
// original order preserved within a day.
func Normalize(records []RawRecord) ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0, len(records))
	for i, rec := range records {
		if rec.Category == core.CategoryCarryOver {
			continue
		}
		date, err := time.Parse(DateLayout, rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: parse date %q: %w", i, rec.Date, err)
		}
		amount := rec.Amount.Neg()
		note, rate := core.ParseNote(rec.Note, core.NoteSeparator)
		account := rec.Account
		if account == "" {
			account = core.DefaultAccount
		}
		txs = append(txs, core.Transaction{
			Date:            date,
			Category:        rec.Category,
			Amount:          amount,
			Note:            note,
			Account:         account,
			CashbackPercent: rate,
			CashbackReward:  amount.Mul(rate),
		})
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs, nil
}
