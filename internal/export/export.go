// Package export renders built reports to external destinations. Each
// adapter consumes the typed tables produced by the report package.
package export

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/report"
)

// ReportWriter renders a complete report somewhere.
type ReportWriter interface {
	WriteReport(ctx context.Context, r *report.Report) error
}

// DateLayout is how exported dates are rendered.
const DateLayout = "01/02/2006"

// FormatCell renders one table cell as a string using its column type.
func FormatCell(value any, columnType report.ColumnType) string {
	switch columnType {
	case report.ColumnCurrency:
		if d, ok := value.(decimal.Decimal); ok {
			return d.StringFixed(2)
		}
	case report.ColumnPercent:
		if f, ok := value.(float64); ok {
			if math.IsNaN(f) {
				return ""
			}
			return fmt.Sprintf("%.2f%%", f*100)
		}
	case report.ColumnDate:
		if t, ok := value.(time.Time); ok {
			return t.Format(DateLayout)
		}
	case report.ColumnCount:
		if n, ok := value.(int); ok {
			return fmt.Sprintf("%d", n)
		}
	}
	return fmt.Sprintf("%v", value)
}

// FormatRow renders a full row against the table's columns. Cells past the
// column list render as text.
func FormatRow(row []any, columns []report.Column) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		columnType := report.ColumnText
		if i < len(columns) {
			columnType = columns[i].Type
		}
		out[i] = FormatCell(cell, columnType)
	}
	return out
}
