// Package stats computes rolling financial summaries over the expense set:
// month-window totals, year-to-date projection with recurring accrual, a
// trimmed-mean typical expense, and category frequency.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GuildOfCalamity/BalanceAct/internal/model"
	"github.com/GuildOfCalamity/BalanceAct/internal/money"
)

// ErrNoItems is returned when the record set is empty. Callers leave any
// previously displayed values unchanged rather than zeroing them.
var ErrNoItems = errors.New("stats: no records to summarize")

// ErrNoPreviousTotal signals the division-by-zero condition in the
// percentage-change computation. It is an explicit error, never a silent
// zero: the caller decides the fallback display behavior.
var ErrNoPreviousTotal = errors.New("stats: previous-month total is zero")

// Report holds every derived summary value for the record set.
type Report struct {
	CurrentMonthTotal  decimal.Decimal
	PreviousMonthTotal decimal.Decimal
	YearToDateTotal    decimal.Decimal
	ProjectedYearTotal decimal.Decimal
	AverageExpense     decimal.Decimal
	AveragePerMonth    decimal.Decimal
	FrequentCategory   model.Category

	// Diagnostics lists records whose amount failed to parse. They are
	// excluded from every aggregate; the caller is expected to surface
	// them rather than silently ignore the records.
	Diagnostics []Diagnostic
}

// Diagnostic identifies a record excluded from the aggregates.
type Diagnostic struct {
	ID     int
	Amount string
	Reason string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("record %d: amount %q: %s", d.ID, d.Amount, d.Reason)
}

// PercentChange computes the previous-month delta as a percentage. A zero
// previous total yields ErrNoPreviousTotal.
func PercentChange(current, previous decimal.Decimal) (decimal.Decimal, error) {
	if previous.IsZero() {
		return decimal.Zero, ErrNoPreviousTotal
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)), nil
}

// MonthsSinceStartOfYear returns the inclusive count of month boundaries
// crossed since January 1 of now's year (3 for any day in March).
func MonthsSinceStartOfYear(now time.Time) int {
	return int(now.Month())
}

// Summarize is a pure function of the record set and the given "now". An
// empty set returns (nil, ErrNoItems) so the caller treats it as a no-op.
func Summarize(items []model.ExpenseItem, now time.Time) (*Report, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	report := &Report{}
	months := decimal.NewFromInt(int64(MonthsSinceStartOfYear(now)))

	type parsed struct {
		item  *model.ExpenseItem
		value decimal.Decimal
	}
	records := make([]parsed, 0, len(items))
	for i := range items {
		v, err := money.Parse(items[i].Amount)
		if err != nil {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				ID:     items[i].ID,
				Amount: items[i].Amount,
				Reason: err.Error(),
			})
			continue
		}
		records = append(records, parsed{item: &items[i], value: v})
	}

	monthsPresent := make(map[[2]int]struct{})
	categoryCounts := make(map[model.Category]int)
	var categoryOrder []model.Category

	for _, rec := range records {
		// Recurring records are fixed monthly commitments: they count
		// toward both month windows and accrue in the year-to-date
		// total once per elapsed month. One-time records fall into
		// the 30-day or 60-day window, never both.
		if rec.item.Recurring {
			report.CurrentMonthTotal = report.CurrentMonthTotal.Add(rec.value)
			report.PreviousMonthTotal = report.PreviousMonthTotal.Add(rec.value)
			report.YearToDateTotal = report.YearToDateTotal.Add(rec.value.Mul(months))
		} else {
			ageDays := now.Sub(rec.item.Date).Hours() / 24
			if ageDays <= 30 {
				report.CurrentMonthTotal = report.CurrentMonthTotal.Add(rec.value)
			} else if ageDays <= 60 {
				report.PreviousMonthTotal = report.PreviousMonthTotal.Add(rec.value)
			}
			report.YearToDateTotal = report.YearToDateTotal.Add(rec.value)
		}

		monthsPresent[[2]int{rec.item.Date.Year(), int(rec.item.Date.Month())}] = struct{}{}

		if _, seen := categoryCounts[rec.item.Category]; !seen {
			categoryOrder = append(categoryOrder, rec.item.Category)
		}
		categoryCounts[rec.item.Category]++
	}

	report.ProjectedYearTotal = report.CurrentMonthTotal.Mul(decimal.NewFromInt(12))

	values := make([]decimal.Decimal, len(records))
	for i, rec := range records {
		values[i] = rec.value
	}
	report.AverageExpense = trimmedMean(values)

	if n := len(monthsPresent); n > 0 {
		report.AveragePerMonth = report.YearToDateTotal.Div(decimal.NewFromInt(int64(n)))
	}

	// First-seen order breaks ties, so the strictly-greater comparison
	// keeps the earliest category with the max count.
	best := 0
	for _, cat := range categoryOrder {
		if categoryCounts[cat] > best {
			best = categoryCounts[cat]
			report.FrequentCategory = cat
		}
	}

	return report, nil
}

// trimmedMean averages a centered window of the sorted values, discarding
// the extremes so large one-off purchases do not distort the typical
// expense figure. The window holds min(n/2, n-2) values (n-1 when the set
// has two or fewer records), starting at |n - window| / 2.
func trimmedMean(values []decimal.Decimal) decimal.Decimal {
	n := len(values)
	if n == 0 {
		return decimal.Zero
	}

	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	sample := n / 2
	if sample > n-2 {
		sample = n - 2
	}
	if n <= 2 {
		sample = n - 1
	}
	if sample < 1 {
		sample = 1
	}

	start := (n - sample) / 2

	sum := decimal.Zero
	for _, v := range sorted[start : start+sample] {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(sample)))
}
