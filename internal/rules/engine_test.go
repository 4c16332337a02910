package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GuildOfCalamity/BalanceAct/internal/model"
)

func TestNewRule(t *testing.T) {
	tests := []struct {
		name      string
		ruleName  string
		pattern   string
		matchType MatchType
		priority  int
		category  string
		wantErr   bool
	}{
		{
			name:      "valid rule",
			ruleName:  "coffee",
			pattern:   "starbucks",
			matchType: MatchTypeContains,
			priority:  100,
			category:  model.CategoryFood,
		},
		{
			name:      "unknown category",
			ruleName:  "bad",
			pattern:   "x",
			matchType: MatchTypeExact,
			priority:  10,
			category:  "Pets",
			wantErr:   true,
		},
		{
			name:      "priority out of range",
			ruleName:  "bad",
			pattern:   "x",
			matchType: MatchTypeExact,
			priority:  1000,
			category:  model.CategoryFood,
			wantErr:   true,
		},
		{
			name:      "negative priority",
			ruleName:  "bad",
			pattern:   "x",
			matchType: MatchTypeExact,
			priority:  -1,
			category:  model.CategoryFood,
			wantErr:   true,
		},
		{
			name:      "empty pattern",
			ruleName:  "bad",
			pattern:   "  ",
			matchType: MatchTypeContains,
			priority:  10,
			category:  model.CategoryFood,
			wantErr:   true,
		},
		{
			name:      "bad match type",
			ruleName:  "bad",
			pattern:   "x",
			matchType: "regex",
			priority:  10,
			category:  model.CategoryFood,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRule(tt.ruleName, tt.pattern, tt.matchType, tt.priority, tt.category)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatchPriorityOrder(t *testing.T) {
	yaml := `
rules:
  - name: generic-shop
    pattern: shop
    match_type: contains
    priority: 10
    category: Shopping
  - name: coffee-shop
    pattern: coffee shop
    match_type: contains
    priority: 100
    category: Food & Drink
`
	engine, err := NewEngine([]byte(yaml))
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	cat, ok := engine.Match("CORNER COFFEE SHOP #42")
	if !ok {
		t.Fatal("Match() = no match, want coffee-shop rule")
	}
	if cat != model.CategoryFood {
		t.Errorf("Match() = %q, want %q (higher priority rule should win)", cat, model.CategoryFood)
	}
}

func TestMatchExactVsContains(t *testing.T) {
	yaml := `
rules:
  - name: exact-only
    pattern: shell
    match_type: exact
    priority: 50
    category: Gas
`
	engine, err := NewEngine([]byte(yaml))
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	if cat, ok := engine.Match("SHELL"); !ok || cat != model.CategoryGas {
		t.Errorf("Match(%q) = (%q, %v), want exact case-insensitive match", "SHELL", cat, ok)
	}
	if _, ok := engine.Match("SHELL OIL 5701"); ok {
		t.Error("Match() matched a substring under exact match_type")
	}
}

func TestMatchNoRules(t *testing.T) {
	engine, err := NewEngine([]byte("rules: []"))
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	if _, ok := engine.Match("anything"); ok {
		t.Error("Match() on empty rule set should not match")
	}
}

func TestLoadEmbedded(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error: %v", err)
	}
	if len(engine.Rules()) == 0 {
		t.Fatal("LoadEmbedded() produced no rules")
	}

	// Spot-check a well-known merchant from the embedded set.
	if cat, ok := engine.Match("NETFLIX.COM 866-579-7172"); !ok || cat != model.CategoryEntertainment {
		t.Errorf("Match(netflix) = (%q, %v), want Entertainment", cat, ok)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
rules:
  - name: vet
    pattern: veterinary
    match_type: contains
    priority: 20
    category: Miscellaneous
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	engine, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cat, ok := engine.Match("CITY VETERINARY CLINIC"); !ok || cat != model.CategoryMiscellaneous {
		t.Errorf("Match() = (%q, %v), want Miscellaneous", cat, ok)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFromFile() on missing file expected error")
	}
}

func TestEngineRejectsInvalidRule(t *testing.T) {
	yaml := `
rules:
  - name: bad
    pattern: x
    match_type: contains
    priority: 10
    category: NotACategory
`
	if _, err := NewEngine([]byte(yaml)); err == nil {
		t.Error("NewEngine() expected validation error for unknown category")
	}
}
