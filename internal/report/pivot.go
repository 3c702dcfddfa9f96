package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// PivotRow is the aggregate triple for one bucket of a grouping.
type PivotRow struct {
	Key    string
	Amount decimal.Decimal
	Reward decimal.Decimal
	Count  int
}

// CategoryRow extends the triple with the spent/reimbursed split: Spent sums
// only positive (outflow) amounts, Reimbursed only negative ones, and Net is
// their sum.
type CategoryRow struct {
	Category   string
	Spent      decimal.Decimal
	Reimbursed decimal.Decimal
	Net        decimal.Decimal
	Reward     decimal.Decimal
	Count      int
}

// CashbackRow groups by the discrete cashback rate.
type CashbackRow struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
	Reward decimal.Decimal
	Count  int
}

// CrossTab is the category by account sum-of-amount matrix with margins.
// Cells[i][j] is the sum for Categories[i] in Accounts[j]; missing cells are
// zero and transfers are excluded.
type CrossTab struct {
	Categories   []string
	Accounts     []string
	Cells        [][]decimal.Decimal
	RowTotals    []decimal.Decimal
	ColumnTotals []decimal.Decimal
	Grand        decimal.Decimal
}

// CashbackSummary carries the derived cashback scalars. Both averages are NaN
// when their denominator is zero.
type CashbackSummary struct {
	EligibleSpend       decimal.Decimal
	RewardSum           decimal.Decimal
	AverageYield        float64
	AverageYieldNonzero float64
}

// PivotOptions configures per-aggregate behavior that the source handled
// inconsistently; transfer inclusion is deliberately a flag, not a rule.
type PivotOptions struct {
	ExcludeTransfers bool
}

// PivotByCategory groups expenses by category, sorted by name.
func PivotByCategory(txs []core.Transaction) []CategoryRow {
	byCategory := make(map[string]*CategoryRow)
	for _, tx := range txs {
		row, ok := byCategory[tx.Category]
		if !ok {
			row = &CategoryRow{Category: tx.Category}
			byCategory[tx.Category] = row
		}
		if tx.Amount.IsPositive() {
			row.Spent = row.Spent.Add(tx.Amount)
		} else if tx.Amount.IsNegative() {
			row.Reimbursed = row.Reimbursed.Add(tx.Amount)
		}
		row.Net = row.Net.Add(tx.Amount)
		row.Reward = row.Reward.Add(tx.CashbackReward)
		row.Count++
	}
	rows := make([]CategoryRow, 0, len(byCategory))
	for _, row := range byCategory {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
	return rows
}

// PivotByAccount groups by account, sorted by name.
func PivotByAccount(txs []core.Transaction, opts PivotOptions) []PivotRow {
	byAccount := make(map[string]*PivotRow)
	for _, tx := range txs {
		if opts.ExcludeTransfers && tx.Category == core.CategoryTransfer {
			continue
		}
		row, ok := byAccount[tx.Account]
		if !ok {
			row = &PivotRow{Key: tx.Account}
			byAccount[tx.Account] = row
		}
		row.Amount = row.Amount.Add(tx.Amount)
		row.Reward = row.Reward.Add(tx.CashbackReward)
		row.Count++
	}
	rows := make([]PivotRow, 0, len(byAccount))
	for _, row := range byAccount {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

// PivotByWeekday returns seven buckets in fixed Sun..Sat order. Weekdays with
// no transactions are zero-filled, not omitted.
func PivotByWeekday(txs []core.Transaction) [7]PivotRow {
	var rows [7]PivotRow
	for day := time.Sunday; day <= time.Saturday; day++ {
		rows[day].Key = day.String()[:3]
	}
	for _, tx := range txs {
		row := &rows[tx.Date.Weekday()]
		row.Amount = row.Amount.Add(tx.Amount)
		row.Reward = row.Reward.Add(tx.CashbackReward)
		row.Count++
	}
	return rows
}

// PivotByDay returns 31 buckets for days 1..31, zero-filled. Months with
// fewer days simply never populate the missing numbers.
func PivotByDay(txs []core.Transaction) [31]PivotRow {
	var rows [31]PivotRow
	for i := range rows {
		rows[i].Key = ordinalDay(i + 1)
	}
	for _, tx := range txs {
		row := &rows[tx.Date.Day()-1]
		row.Amount = row.Amount.Add(tx.Amount)
		row.Reward = row.Reward.Add(tx.CashbackReward)
		row.Count++
	}
	return rows
}

// ordinalDay formats a day of month as 1st, 2nd, 3rd, 4th...
func ordinalDay(day int) string {
	suffix := "th"
	switch day % 10 {
	case 1:
		if day != 11 {
			suffix = "st"
		}
	case 2:
		if day != 12 {
			suffix = "nd"
		}
	case 3:
		if day != 13 {
			suffix = "rd"
		}
	}
	return strconv.Itoa(day) + suffix
}

// PivotByCashback groups by the discrete cashback rate, ascending.
func PivotByCashback(txs []core.Transaction) []CashbackRow {
	byRate := make(map[string]*CashbackRow)
	for _, tx := range txs {
		key := tx.CashbackPercent.String()
		row, ok := byRate[key]
		if !ok {
			row = &CashbackRow{Rate: tx.CashbackPercent}
			byRate[key] = row
		}
		row.Amount = row.Amount.Add(tx.Amount)
		row.Reward = row.Reward.Add(tx.CashbackReward)
		row.Count++
	}
	rows := make([]CashbackRow, 0, len(byRate))
	for _, row := range byRate {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Rate.LessThan(rows[j].Rate) })
	return rows
}

// CrossTabulate builds the category by account matrix with grand-total
// margins. Transfer rows are always excluded here: a transfer shows up on
// both sides and would cancel the margins into noise.
func CrossTabulate(txs []core.Transaction) CrossTab {
	categorySet := make(map[string]bool)
	accountSet := make(map[string]bool)
	type cellKey struct{ category, account string }
	sums := make(map[cellKey]decimal.Decimal)
	for _, tx := range txs {
		if tx.Category == core.CategoryTransfer {
			continue
		}
		categorySet[tx.Category] = true
		accountSet[tx.Account] = true
		k := cellKey{tx.Category, tx.Account}
		sums[k] = sums[k].Add(tx.Amount)
	}

	ct := CrossTab{
		Categories: sortedKeys(categorySet),
		Accounts:   sortedKeys(accountSet),
	}
	ct.Cells = make([][]decimal.Decimal, len(ct.Categories))
	ct.RowTotals = make([]decimal.Decimal, len(ct.Categories))
	ct.ColumnTotals = make([]decimal.Decimal, len(ct.Accounts))
	for i, category := range ct.Categories {
		ct.Cells[i] = make([]decimal.Decimal, len(ct.Accounts))
		for j, account := range ct.Accounts {
			cell := sums[cellKey{category, account}]
			ct.Cells[i][j] = cell
			ct.RowTotals[i] = ct.RowTotals[i].Add(cell)
			ct.ColumnTotals[j] = ct.ColumnTotals[j].Add(cell)
			ct.Grand = ct.Grand.Add(cell)
		}
	}
	return ct
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SummarizeCashback derives the cashback scalars over a period's expenses.
// Eligible spend excludes the ineligible categories; the reward sum covers
// all expenses, matching how the rates were annotated at the source.
func SummarizeCashback(txs []core.Transaction, ineligible core.CategorySet) CashbackSummary {
	var s CashbackSummary
	spendAtNonzero := decimal.Zero
	for _, tx := range txs {
		if !ineligible.Has(tx.Category) {
			s.EligibleSpend = s.EligibleSpend.Add(tx.Amount)
		}
		s.RewardSum = s.RewardSum.Add(tx.CashbackReward)
		if !tx.CashbackPercent.IsZero() {
			spendAtNonzero = spendAtNonzero.Add(tx.Amount)
		}
	}
	s.AverageYield = core.Ratio(s.RewardSum, s.EligibleSpend)
	s.AverageYieldNonzero = core.Ratio(s.RewardSum, spendAtNonzero)
	return s
}
