// Package reconcile merges candidate records into the existing expense set
// while suppressing duplicates, behind a forced-backup precondition and a
// persist-then-reload round trip.
package reconcile

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GuildOfCalamity/BalanceAct/internal/model"
	"github.com/GuildOfCalamity/BalanceAct/internal/money"
	"github.com/GuildOfCalamity/BalanceAct/internal/store"
)

// Policy names a duplicate-matching rule. The manual-add flow and the
// import flow historically diverged; both behaviors are kept as explicit
// policies so the choice is visible at every call site.
type Policy int

const (
	// StrictMatch is the manual-add rule: same calendar day, identical
	// category (case-sensitive), equal amount. Description is ignored.
	StrictMatch Policy = iota
	// ImportMatch is the import rule: same calendar day, category and
	// description equal case-insensitively, equal amount.
	ImportMatch
)

func (p Policy) String() string {
	switch p {
	case StrictMatch:
		return "strict"
	case ImportMatch:
		return "import"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Matches reports whether candidate duplicates existing under this policy.
// Amounts compare equal after normalizing both to decimal, so "$5.00" and
// "$5" are the same amount. An unparsable amount on either side never
// matches; the candidate will surface as a new record instead of being
// silently dropped.
func (p Policy) Matches(existing, candidate *model.ExpenseItem) bool {
	if !existing.SameDay(candidate) {
		return false
	}

	switch p {
	case StrictMatch:
		if existing.Category != candidate.Category {
			return false
		}
	case ImportMatch:
		if !strings.EqualFold(existing.Category, candidate.Category) {
			return false
		}
		if !strings.EqualFold(existing.Description, candidate.Description) {
			return false
		}
	}

	ea, err := money.Parse(existing.Amount)
	if err != nil {
		return false
	}
	ca, err := money.Parse(candidate.Amount)
	if err != nil {
		return false
	}
	return ea.Equal(ca)
}

// MergeResult reports the outcome of one import-triggered merge.
type MergeResult struct {
	BatchID string // identifier for the import-history ledger
	Added   int
	Skipped int                 // duplicates suppressed
	Items   []model.ExpenseItem // the merged, reloaded record set
}

// Merge folds candidates into existing, assigning max(id)+1 to each
// non-duplicate. Duplicates are skipped and counted; existing records are
// never mutated. The returned slice is a new slice; existing is not
// modified.
func Merge(existing, candidates []model.ExpenseItem, policy Policy) (merged []model.ExpenseItem, added, skipped int) {
	merged = make([]model.ExpenseItem, len(existing))
	copy(merged, existing)

	nextID := maxID(merged) + 1
	for _, cand := range candidates {
		if isDuplicate(merged, &cand, policy) {
			skipped++
			continue
		}
		cand.ID = nextID
		nextID++
		merged = append(merged, cand)
		added++
	}
	return merged, added, skipped
}

func isDuplicate(set []model.ExpenseItem, cand *model.ExpenseItem, policy Policy) bool {
	for i := range set {
		if policy.Matches(&set[i], cand) {
			return true
		}
	}
	return false
}

// maxID scans the live set. Ids are never reused after removal, so the scan
// is over whatever currently exists, not a stored counter.
func maxID(items []model.ExpenseItem) int {
	max := 0
	for i := range items {
		if items[i].ID > max {
			max = items[i].ID
		}
	}
	return max
}

// Engine runs backup-gated merges against a store. The mutex serializes
// concurrent imports: two batches racing on the backup file could otherwise
// leave no usable restore point.
type Engine struct {
	mu    sync.Mutex
	store *store.Store
	log   zerolog.Logger
}

// NewEngine creates a reconciliation engine bound to a store.
func NewEngine(s *store.Store, log zerolog.Logger) *Engine {
	return &Engine{
		store: s,
		log:   log.With().Str("component", "reconcile").Logger(),
	}
}

// Import merges candidates into the current set under the given policy.
// The sequence is fixed:
//
//  1. force a backup of the current set — failure aborts the merge
//     entirely, this is a hard precondition, not best-effort;
//  2. merge in memory;
//  3. persist the full merged set;
//  4. reload it from the persisted form, so any serialization issue
//     surfaces now instead of silently drifting from disk state.
func (e *Engine) Import(existing, candidates []model.ExpenseItem, policy Policy) (*MergeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	batchID := uuid.New().String()
	log := e.log.With().Str("batch", batchID).Logger()

	if ok := e.store.MakeBackup(existing); !ok {
		return nil, fmt.Errorf("aborting merge: could not create restore point at %s", e.store.BackupPath())
	}

	merged, added, skipped := Merge(existing, candidates, policy)
	log.Info().Int("added", added).Int("skipped", skipped).Stringer("policy", policy).Msg("merge complete")

	// Validate before touching the store: a bad candidate must not leave
	// a half-merged document behind.
	if err := model.ValidateSet(merged); err != nil {
		return nil, fmt.Errorf("aborting merge: %w", err)
	}
	if err := e.store.Save(merged); err != nil {
		return nil, fmt.Errorf("failed to persist merged set: %w", err)
	}
	reloaded, err := e.store.Load()
	if err != nil {
		return nil, fmt.Errorf("round-trip verification failed: %w", err)
	}
	if err := model.ValidateSet(reloaded); err != nil {
		return nil, fmt.Errorf("round-trip verification failed: %w", err)
	}

	return &MergeResult{
		BatchID: batchID,
		Added:   added,
		Skipped: skipped,
		Items:   reloaded,
	}, nil
}

// Remove deletes the record with the given id and persists the shrunken
// set. Ids are never reused: the next merge scans max over whatever
// remains, so a removed id stays retired unless it was the maximum.
// Returns the updated set and whether a record was actually removed.
func (e *Engine) Remove(existing []model.ExpenseItem, id int) ([]model.ExpenseItem, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := make([]model.ExpenseItem, 0, len(existing))
	removed := false
	for _, it := range existing {
		if it.ID == id {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return existing, false, nil
	}
	if err := e.store.Save(kept); err != nil {
		return nil, false, fmt.Errorf("failed to persist record set: %w", err)
	}
	return kept, true, nil
}

// Add appends a single manually entered record under the strict policy,
// without the backup gate: manual entry is not a risky bulk operation.
// Returns the updated set and whether the record was added or suppressed as
// a duplicate.
func (e *Engine) Add(existing []model.ExpenseItem, item model.ExpenseItem) ([]model.ExpenseItem, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := item.Validate(); err != nil {
		return existing, false, err
	}
	merged, added, _ := Merge(existing, []model.ExpenseItem{item}, StrictMatch)
	if added == 0 {
		return existing, false, nil
	}
	if err := e.store.Save(merged); err != nil {
		return nil, false, fmt.Errorf("failed to persist record set: %w", err)
	}
	return merged, true, nil
}
