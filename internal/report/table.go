package report

import (
	"strings"

	"budgeteer/internal/core"
)

// ColumnType is the semantic type of a table column. Renderers pick number
// formats from it; it carries no business logic.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnCurrency
	ColumnPercent
	ColumnDate
	ColumnCount
)

// Column describes one named, typed table column.
type Column struct {
	Name string
	Type ColumnType
}

// Table is an ordered table of named columns handed to a renderer.
// Cell values are core domain types: decimal.Decimal for currency,
// float64 for percentages (possibly NaN), time.Time for dates, int for
// counts, string for text.
type Table struct {
	Name     string
	Title    string
	Columns  []Column
	Rows     [][]any
	TotalRow bool
}

func newTable(prefix, title string, columns []Column) Table {
	return Table{
		Name:    prefix + strings.ReplaceAll(title, " ", "") + "Table",
		Title:   title,
		Columns: columns,
	}
}

var transactionColumns = []Column{
	{Name: "Date", Type: ColumnDate},
	{Name: "Category", Type: ColumnText},
	{Name: "Amount", Type: ColumnCurrency},
	{Name: "Note", Type: ColumnText},
	{Name: "CashBack %", Type: ColumnPercent},
	{Name: "CashBack Reward", Type: ColumnCurrency},
}

var pivotColumns = func(keyName string, keyType ColumnType) []Column {
	return []Column{
		{Name: keyName, Type: keyType},
		{Name: "Amount", Type: ColumnCurrency},
		{Name: "CashBack Reward", Type: ColumnCurrency},
		{Name: "Count", Type: ColumnCount},
	}
}

// Tables converts the report into the ordered collection of typed tables a
// renderer consumes, mirroring the layout of the historical spreadsheet.
func (r *PeriodReport) Tables() []Table {
	prefix := strings.ReplaceAll(r.Title, " ", "")
	var tables []Table

	tables = append(tables, transactionTable(prefix, r.Account, r.Spending, true))
	tables = append(tables, incomeTable(prefix, r.Account, r.Income))
	for _, section := range r.Accounts {
		tables = append(tables, transactionTable(prefix, section.Account, section.Transactions, true))
	}
	tables = append(tables, transactionTable(prefix, "All Expenses", r.AllExpenses, true))
	tables = append(tables, summaryTable(prefix, r.Account, r.Summary))
	tables = append(tables, balanceTable(prefix, r.VisibleBalances()))
	tables = append(tables, budgetTable(prefix, r.Budget))
	tables = append(tables, categoryPivotTable(prefix, r.ByCategory))
	tables = append(tables, accountPivotTable(prefix, r.ByAccount))
	tables = append(tables, weekdayTable(prefix, r.ByWeekday))
	tables = append(tables, dayNumberTable(prefix, r.ByDay))
	tables = append(tables, cashbackPivotTable(prefix, r.ByCashback))
	tables = append(tables, cashbackInfoTable(prefix, r.Cashback))
	tables = append(tables, crossTabTable(prefix, r.CrossTab))
	return tables
}

func transactionTable(prefix, title string, txs []core.Transaction, total bool) Table {
	t := newTable(prefix, title, transactionColumns)
	t.TotalRow = total
	for _, tx := range txs {
		t.Rows = append(t.Rows, []any{
			tx.Date, tx.Category, tx.Amount, tx.Note,
			tx.CashbackPercent.InexactFloat64(), tx.CashbackReward,
		})
	}
	return t
}

func incomeTable(prefix, account string, txs []core.Transaction) Table {
	t := newTable(prefix, account+" Income", []Column{
		{Name: "Date", Type: ColumnDate},
		{Name: "Category", Type: ColumnText},
		{Name: "Amount", Type: ColumnCurrency},
		{Name: "Note", Type: ColumnText},
	})
	t.TotalRow = true
	for _, tx := range txs {
		t.Rows = append(t.Rows, []any{tx.Date, tx.Category, tx.Amount, tx.Note})
	}
	return t
}

func summaryTable(prefix, account string, s PeriodSummary) Table {
	t := newTable(prefix, "Summary", []Column{
		{Name: "Label", Type: ColumnText},
		{Name: "Amount", Type: ColumnCurrency},
	})
	t.Rows = [][]any{
		{account + " Income", s.Income},
		{account + " Expenses", s.Expenses},
		{"Remaining", s.Remaining},
	}
	return t
}

func balanceTable(prefix string, rows []BalanceRow) Table {
	t := newTable(prefix, "Balances", []Column{
		{Name: "Account", Type: ColumnText},
		{Name: "Balance", Type: ColumnCurrency},
		{Name: "Net", Type: ColumnCurrency},
		{Name: "Spent", Type: ColumnCurrency},
		{Name: "Saved", Type: ColumnCurrency},
	})
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{row.Account, row.Balance, row.Net, row.Spent, row.Saved})
	}
	return t
}

func budgetTable(prefix string, rows []BudgetRow) Table {
	t := newTable(prefix, "Budget Categories", []Column{
		{Name: "Category", Type: ColumnText},
		{Name: "Expected", Type: ColumnCurrency},
		{Name: "Amount", Type: ColumnCurrency},
		{Name: "Remaining", Type: ColumnCurrency},
		{Name: "Usage %", Type: ColumnPercent},
		{Name: "Count", Type: ColumnCount},
	})
	t.TotalRow = true
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.Category, row.Expected, row.Actual, row.Remaining, row.Usage, row.Count,
		})
	}
	return t
}

func categoryPivotTable(prefix string, rows []CategoryRow) Table {
	t := newTable(prefix, "Categories Pivot", []Column{
		{Name: "Category", Type: ColumnText},
		{Name: "Spent", Type: ColumnCurrency},
		{Name: "Reimbursed/Refunded", Type: ColumnCurrency},
		{Name: "Amount", Type: ColumnCurrency},
		{Name: "CashBack Reward", Type: ColumnCurrency},
		{Name: "Count", Type: ColumnCount},
	})
	t.TotalRow = true
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.Category, row.Spent, row.Reimbursed, row.Net, row.Reward, row.Count,
		})
	}
	return t
}

func accountPivotTable(prefix string, rows []PivotRow) Table {
	t := newTable(prefix, "Accounts Pivot", pivotColumns("Account", ColumnText))
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{row.Key, row.Amount, row.Reward, row.Count})
	}
	return t
}

func weekdayTable(prefix string, rows [7]PivotRow) Table {
	t := newTable(prefix, "Day Pivot", pivotColumns("Day", ColumnText))
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{row.Key, row.Amount, row.Reward, row.Count})
	}
	return t
}

func dayNumberTable(prefix string, rows [31]PivotRow) Table {
	t := newTable(prefix, "Day Number Pivot", pivotColumns("Day Number", ColumnText))
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{row.Key, row.Amount, row.Reward, row.Count})
	}
	return t
}

func cashbackPivotTable(prefix string, rows []CashbackRow) Table {
	t := newTable(prefix, "Cashback Pivot", pivotColumns("CashBack %", ColumnPercent))
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{row.Rate.InexactFloat64(), row.Amount, row.Reward, row.Count})
	}
	return t
}

func cashbackInfoTable(prefix string, s CashbackSummary) Table {
	t := newTable(prefix, "Cashback Info", []Column{
		{Name: "Eligible Spending Sum", Type: ColumnCurrency},
		{Name: "Cashback Sum", Type: ColumnCurrency},
		{Name: "Average cashback yield", Type: ColumnPercent},
		{Name: "Average cashback yield excluding 0% cashback", Type: ColumnPercent},
	})
	t.Rows = [][]any{{s.EligibleSpend, s.RewardSum, s.AverageYield, s.AverageYieldNonzero}}
	return t
}

func crossTabTable(prefix string, ct CrossTab) Table {
	columns := []Column{{Name: "Category", Type: ColumnText}}
	for _, account := range ct.Accounts {
		columns = append(columns, Column{Name: account, Type: ColumnCurrency})
	}
	columns = append(columns, Column{Name: "Total", Type: ColumnCurrency})

	t := newTable(prefix, "Category Account Pivot", columns)
	for i, category := range ct.Categories {
		row := []any{category}
		for j := range ct.Accounts {
			row = append(row, ct.Cells[i][j])
		}
		row = append(row, ct.RowTotals[i])
		t.Rows = append(t.Rows, row)
	}
	totals := []any{"Total"}
	for _, columnTotal := range ct.ColumnTotals {
		totals = append(totals, columnTotal)
	}
	totals = append(totals, ct.Grand)
	t.Rows = append(t.Rows, totals)
	return t
}
