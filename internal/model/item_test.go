package model

import (
	"testing"
	"time"
)

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Category
	}{
		{
			name:     "exact match",
			input:    "Groceries",
			expected: CategoryGroceries,
		},
		{
			name:     "case-insensitive match",
			input:    "groceries",
			expected: CategoryGroceries,
		},
		{
			name:     "uppercase match",
			input:    "FOOD & DRINK",
			expected: CategoryFood,
		},
		{
			name:     "surrounding whitespace",
			input:    "  Gas  ",
			expected: CategoryGas,
		},
		{
			name:     "unmatched label kept",
			input:    "Pet Supplies",
			expected: "Pet Supplies",
		},
		{
			name:     "empty stays empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchCategory(tt.input); got != tt.expected {
				t.Errorf("MatchCategory(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsStandardCategory(t *testing.T) {
	if !IsStandardCategory(CategoryTravel) {
		t.Error("IsStandardCategory(Travel) = false, want true")
	}
	if IsStandardCategory("travel") {
		t.Error("IsStandardCategory is case-sensitive; lowercase should not match")
	}
	if IsStandardCategory("") {
		t.Error("IsStandardCategory(\"\") = true, want false")
	}
}

func TestSameDay(t *testing.T) {
	base := ExpenseItem{Date: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)}

	tests := []struct {
		name     string
		other    time.Time
		expected bool
	}{
		{
			name:     "same day different time",
			other:    time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC),
			expected: true,
		},
		{
			name:     "next day",
			other:    time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "same day next year",
			other:    time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := ExpenseItem{Date: tt.other}
			if got := base.SameDay(&other); got != tt.expected {
				t.Errorf("SameDay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := ExpenseItem{
		ID:          1,
		Category:    CategoryGroceries,
		Description: "Grocery run",
		Amount:      "$54.62",
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		mutate  func(*ExpenseItem)
		wantErr bool
	}{
		{
			name:   "valid record",
			mutate: func(e *ExpenseItem) {},
		},
		{
			name:   "empty category is a draft, still valid",
			mutate: func(e *ExpenseItem) { e.Category = "" },
		},
		{
			name:    "empty description",
			mutate:  func(e *ExpenseItem) { e.Description = "   " },
			wantErr: true,
		},
		{
			name:    "unparsable amount",
			mutate:  func(e *ExpenseItem) { e.Amount = "lots" },
			wantErr: true,
		},
		{
			name:    "negative amount",
			mutate:  func(e *ExpenseItem) { e.Amount = "-$5.00" },
			wantErr: true,
		},
		{
			name:    "zero amount",
			mutate:  func(e *ExpenseItem) { e.Amount = "$0.00" },
			wantErr: true,
		},
		{
			name:    "zero date",
			mutate:  func(e *ExpenseItem) { e.Date = time.Time{} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid
			tt.mutate(&item)
			err := item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSet(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	a := ExpenseItem{ID: 1, Description: "a", Amount: "$1.00", Date: date}
	b := ExpenseItem{ID: 2, Description: "b", Amount: "$2.00", Date: date}

	if err := ValidateSet([]ExpenseItem{a, b}); err != nil {
		t.Errorf("ValidateSet() unexpected error: %v", err)
	}

	dup := b
	dup.ID = 1
	if err := ValidateSet([]ExpenseItem{a, dup}); err == nil {
		t.Error("ValidateSet() expected duplicate id error, got nil")
	}

	if err := ValidateSet(nil); err != nil {
		t.Errorf("ValidateSet(nil) unexpected error: %v", err)
	}
}
