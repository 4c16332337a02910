// Package model defines the expense record entity shared by every other package.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/GuildOfCalamity/BalanceAct/internal/money"
)

// Category is the expense category label. Imported rows are matched against
// the standard set case-insensitively; labels that match nothing keep their
// raw imported text.
type Category = string

const (
	CategoryAutomotive    Category = "Automotive"
	CategoryBills         Category = "Bills & Utilities"
	CategoryEducation     Category = "Education"
	CategoryEntertainment Category = "Entertainment"
	CategoryFees          Category = "Fees & Adjustments"
	CategoryFood          Category = "Food & Drink"
	CategoryGas           Category = "Gas"
	CategoryGifts         Category = "Gifts & Donations"
	CategoryGroceries     Category = "Groceries"
	CategoryHealth        Category = "Health & Wellness"
	CategoryHome          Category = "Home"
	CategoryInsurance     Category = "Insurance"
	CategoryMiscellaneous Category = "Miscellaneous"
	CategoryPersonal      Category = "Personal"
	CategoryProfessional  Category = "Professional Services"
	CategoryShopping      Category = "Shopping"
	CategoryTravel        Category = "Travel"
	CategoryWorkplace     Category = "Workplace"
	CategoryUndefined     Category = "Undefined"
)

// StandardCategories lists the fixed category set in display order.
var StandardCategories = []Category{
	CategoryAutomotive, CategoryBills, CategoryEducation, CategoryEntertainment,
	CategoryFees, CategoryFood, CategoryGas, CategoryGifts, CategoryGroceries,
	CategoryHealth, CategoryHome, CategoryInsurance, CategoryMiscellaneous,
	CategoryPersonal, CategoryProfessional, CategoryShopping, CategoryTravel,
	CategoryWorkplace, CategoryUndefined,
}

// IsStandardCategory reports whether label exactly matches a standard category.
func IsStandardCategory(label string) bool {
	for _, c := range StandardCategories {
		if label == c {
			return true
		}
	}
	return false
}

// MatchCategory resolves a raw imported label to a standard category using a
// case-insensitive comparison. Labels that match nothing are returned
// unchanged so the imported text is never lost.
func MatchCategory(raw string) Category {
	trimmed := strings.TrimSpace(raw)
	for _, c := range StandardCategories {
		if strings.EqualFold(trimmed, c) {
			return c
		}
	}
	return trimmed
}

// ExpenseItem is one financial transaction. Amount holds the display text
// with a leading currency symbol (e.g. "$54.62") and is always a positive
// magnitude; the record itself represents an expense, not a signed entry.
type ExpenseItem struct {
	ID          int       `json:"Id"`
	Category    Category  `json:"Category,omitempty"`
	Description string    `json:"Description,omitempty"`
	Codes       string    `json:"Codes,omitempty"`
	Amount      string    `json:"Amount,omitempty"`
	Date        time.Time `json:"Date"`
	Recurring   bool      `json:"Recurring,omitempty"`
}

// AmountValue parses the stored amount text into a decimal value.
func (e *ExpenseItem) AmountValue() (decimalValue money.Value, err error) {
	return money.Parse(e.Amount)
}

// SameDay reports whether both records fall on the same calendar day.
// Time-of-day is not meaningful on expense dates and is ignored.
func (e *ExpenseItem) SameDay(other *ExpenseItem) bool {
	ay, am, ad := e.Date.Date()
	by, bm, bd := other.Date.Date()
	return ay == by && am == bm && ad == bd
}

// Validate checks the invariants a record must hold before it enters the
// live set: a parseable positive amount and a non-empty description.
// Category may be empty on a draft record; the persistence layer filters
// category-less records out of the saved document.
func (e *ExpenseItem) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("item %d: description cannot be empty", e.ID)
	}
	v, err := money.Parse(e.Amount)
	if err != nil {
		return fmt.Errorf("item %d: invalid amount %q: %w", e.ID, e.Amount, err)
	}
	if !v.IsPositive() {
		return fmt.Errorf("item %d: amount %q must be a positive magnitude", e.ID, e.Amount)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("item %d: date cannot be zero", e.ID)
	}
	return nil
}

// ValidateSet checks every record in a loaded set and additionally enforces
// id uniqueness across the live set.
func ValidateSet(items []ExpenseItem) error {
	seen := make(map[int]struct{}, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[items[i].ID]; dup {
			return fmt.Errorf("duplicate item id %d", items[i].ID)
		}
		seen[items[i].ID] = struct{}{}
	}
	return nil
}
