package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account and category names with fixed meaning in the engine.
const (
	DefaultAccount = "Monthly"

	CategoryCarryOver = "Carry Over"
	CategoryTransfer  = "Transfer"
	CategoryInvesting = "Investing"
	CategoryOther     = "Other"

	// CompositeMarker joins several transaction categories into one budget line.
	CompositeMarker = "&"

	// NoteSeparator splits the free-text note from the cashback annotation.
	NoteSeparator = "|"
)

// Synthetic month indexes for rollup periods.
const (
	MonthWholeYear = 13
	MonthAllTime   = 14
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidAmount = errors.New("invalid amount")
)

// PeriodKey identifies one stored period. Months 1-12 are calendar months,
// 13 is the whole-year rollup and 14 the all-time rollup (year is ignored).
type PeriodKey struct {
	Year  int
	Month int
}

func NewPeriodKey(year, month int) PeriodKey {
	return PeriodKey{Year: year, Month: month}
}

// Validate reports whether the key names a real calendar period.
// Synthetic rollup keys are built by the engine and never ingested.
func (k PeriodKey) Validate() error {
	if k.Year < 1 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, k.Year)
	}
	if k.Month < 1 || k.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, k.Month)
	}
	return nil
}

// Before reports chronological order.
func (k PeriodKey) Before(other PeriodKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

func (k PeriodKey) String() string {
	switch k.Month {
	case MonthWholeYear:
		return fmt.Sprintf("%04d", k.Year)
	case MonthAllTime:
		return "all-time"
	default:
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	}
}

// Title returns the human sheet name used by renderers.
func (k PeriodKey) Title() string {
	switch k.Month {
	case MonthWholeYear:
		return fmt.Sprintf("%d Summary", k.Year)
	case MonthAllTime:
		return "All Time"
	default:
		return fmt.Sprintf("%s %d", MonthName(k.Month), k.Year)
	}
}

// MonthName returns the English month name for 1-12, or "" otherwise.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// MonthShort returns the three letter month abbreviation used in the
// transaction export file names.
func MonthShort(month int) string {
	name := MonthName(month)
	if name == "" {
		return ""
	}
	return name[:3]
}

// Transaction is one normalized record. Amounts follow the outflow-positive
// convention: money spent is positive, money received is negative. Immutable
// once produced by the normalizer.
type Transaction struct {
	Date            time.Time
	Category        string
	Amount          decimal.Decimal
	Note            string
	Account         string
	CashbackPercent decimal.Decimal // ratio in [0, 1]
	CashbackReward  decimal.Decimal // Amount * CashbackPercent
}

// BudgetLine is one declared budget entry. Category may be a composite
// "A & B" name covering the sum of several transaction categories.
type BudgetLine struct {
	Category string
	Expected decimal.Decimal
}

// CategorySet is a closed set of category names.
type CategorySet map[string]struct{}

func NewCategorySet(names ...string) CategorySet {
	s := make(CategorySet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s CategorySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s CategorySet) Add(name string) {
	s[name] = struct{}{}
}

// DefaultIncomeCategories is the closed set of categories treated as income
// rather than spending. Everything else is an expense category.
func DefaultIncomeCategories() []string {
	return []string{
		"Cashback",
		"Salary",
		"Fatherly Support",
		"Check",
		"Reward",
		"Sale",
		CategoryCarryOver,
	}
}

// DefaultCashbackIneligible lists the expense categories excluded from
// cashback yield analysis.
func DefaultCashbackIneligible() []string {
	return []string{CategoryInvesting, CategoryTransfer}
}
