package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// BudgetRow is one reconciled budget line.
type BudgetRow struct {
	Category  string
	Expected  decimal.Decimal
	Actual    decimal.Decimal
	Remaining decimal.Decimal
	Reward    decimal.Decimal
	Usage     float64 // NaN when Expected is zero
	Count     int
}

type categoryTotals struct {
	amount decimal.Decimal
	reward decimal.Decimal
	count  int
}

// Reconcile matches actual per-category spend against the declared budget
// lines, in declaration order.
//
// A composite line ("A & B & C") fans in: its actual is the sum over every
// category named in the split set. The "Other" line is the residual: the sum
// over every expense category no line referenced, excluding the categories in
// excluded (transfers are balance movements, not spend). A referenced
// category with no spend contributes zero; that is not an error.
func Reconcile(lines []core.BudgetLine, expenses []core.Transaction, excluded core.CategorySet) []BudgetRow {
	groups := make(map[string]categoryTotals)
	for _, tx := range expenses {
		g := groups[tx.Category]
		g.amount = g.amount.Add(tx.Amount)
		g.reward = g.reward.Add(tx.CashbackReward)
		g.count++
		groups[tx.Category] = g
	}

	// Every category any line references, plain or composite. Built once;
	// only membership is consulted per line.
	referenced := core.NewCategorySet()
	for _, line := range lines {
		for _, name := range splitComposite(line.Category) {
			referenced.Add(name)
		}
	}

	rows := make([]BudgetRow, 0, len(lines))
	for _, line := range lines {
		var totals categoryTotals
		switch {
		case line.Category == core.CategoryOther:
			for category, g := range groups {
				if excluded.Has(category) {
					continue
				}
				if referenced.Has(category) && category != core.CategoryOther {
					continue
				}
				totals.amount = totals.amount.Add(g.amount)
				totals.reward = totals.reward.Add(g.reward)
				totals.count += g.count
			}
		default:
			for _, name := range splitComposite(line.Category) {
				g := groups[name]
				totals.amount = totals.amount.Add(g.amount)
				totals.reward = totals.reward.Add(g.reward)
				totals.count += g.count
			}
		}
		rows = append(rows, BudgetRow{
			Category:  line.Category,
			Expected:  line.Expected,
			Actual:    totals.amount,
			Remaining: line.Expected.Sub(totals.amount),
			Reward:    totals.reward,
			Usage:     core.Ratio(totals.amount, line.Expected),
			Count:     totals.count,
		})
	}
	return rows
}

// splitComposite splits a budget category on the composite marker, trimming
// whitespace. Plain names come back as a single element.
func splitComposite(category string) []string {
	if !strings.Contains(category, core.CompositeMarker) {
		return []string{category}
	}
	parts := strings.Split(category, core.CompositeMarker)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		names = append(names, strings.TrimSpace(part))
	}
	return names
}
