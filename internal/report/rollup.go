package report

import "budgeteer/internal/core"

// RollupBudget concatenates several periods' budget declarations into one,
// grouping by category in first-seen order and summing expected amounts.
// Used for the whole-year and all-time views.
func RollupBudget(sets ...[]core.BudgetLine) []core.BudgetLine {
	index := make(map[string]int)
	var merged []core.BudgetLine
	for _, set := range sets {
		for _, line := range set {
			if i, ok := index[line.Category]; ok {
				merged[i].Expected = merged[i].Expected.Add(line.Expected)
				continue
			}
			index[line.Category] = len(merged)
			merged = append(merged, line)
		}
	}
	return merged
}
