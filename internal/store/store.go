// Package store persists the expense record set as a pretty-printed JSON
// document with an automatic sibling ".bak" snapshot.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/GuildOfCalamity/BalanceAct/internal/model"
)

// BackupExt is appended to the document path to form the backup path.
const BackupExt = ".bak"

// Store reads and writes one expense document. Load and Save surface I/O
// failures as errors the caller must handle; MakeBackup and Restore swallow
// them and report failure through their return value. The asymmetry is
// deliberate: startup/shutdown persistence must be visible, while "try to
// snapshot before something risky" flows degrade gracefully.
type Store struct {
	path          string
	retentionDays int
	log           zerolog.Logger
}

// New creates a store for the given document path. retentionDays controls
// backup rotation: a zero or negative value makes the backup always eligible
// for replacement.
func New(path string, retentionDays int, log zerolog.Logger) *Store {
	return &Store{
		path:          path,
		retentionDays: retentionDays,
		log:           log.With().Str("component", "store").Logger(),
	}
}

// Path returns the document path.
func (s *Store) Path() string { return s.path }

// BackupPath returns the sibling backup path.
func (s *Store) BackupPath() string { return s.path + BackupExt }

// Load deserializes the document. A missing file is not an error: the caller
// receives (nil, nil) and decides whether to seed defaults.
func (s *Store) Load() ([]model.ExpenseItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debug().Str("path", s.path).Msg("document does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var items []model.ExpenseItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return items, nil
}

// Save serializes the record set, omitting null fields and filtering out
// records that lack a category. Any read-only flag on the target is cleared
// before writing. Before the live document is overwritten its current
// content is rotated into the backup, so the backup always lags the live
// document by one generation. An existing backup is only replaced once its
// last write time falls outside the retention window.
func (s *Store) Save(items []model.ExpenseItem) error {
	data, err := marshalItems(items)
	if err != nil {
		return err
	}

	s.rotateBackup()

	if err := s.writeDocument(s.path, data); err != nil {
		return err
	}
	s.log.Debug().Str("path", s.path).Int("records", len(items)).Msg("document saved")
	return nil
}

// MakeBackup force-writes a fresh backup of the given record set regardless
// of the rotation policy. It never returns an error: a false result tells
// the caller the restore point could not be created.
func (s *Store) MakeBackup(items []model.ExpenseItem) bool {
	data, err := marshalItems(items)
	if err != nil {
		s.log.Warn().Err(err).Msg("backup serialization failed")
		return false
	}
	if err := s.writeDocument(s.BackupPath(), data); err != nil {
		s.log.Warn().Err(err).Str("path", s.BackupPath()).Msg("backup write failed")
		return false
	}
	return true
}

// Restore swaps the backup over the live document. It fails (returns false)
// when either file is missing or the replacement cannot be completed. The
// backup file itself is left in place.
func (s *Store) Restore() bool {
	if _, err := os.Stat(s.path); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("restore: live document missing")
		return false
	}
	data, err := os.ReadFile(s.BackupPath())
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.BackupPath()).Msg("restore: backup missing")
		return false
	}
	if err := s.writeDocument(s.path, data); err != nil {
		s.log.Warn().Err(err).Msg("restore: replace failed")
		return false
	}
	s.log.Info().Str("path", s.path).Msg("document restored from backup")
	return true
}

// marshalItems produces the document bytes: a pretty-printed JSON array of
// every record carrying a category. Records without one are draft entries
// and are excluded from persistence.
func marshalItems(items []model.ExpenseItem) ([]byte, error) {
	kept := make([]model.ExpenseItem, 0, len(items))
	for _, it := range items {
		if it.Category == "" {
			continue
		}
		kept = append(kept, it)
	}

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record set: %w", err)
	}
	return data, nil
}

// writeDocument writes bytes with the atomic temp-file-then-rename pattern,
// clearing any read-only flag on an existing target first.
func (s *Store) writeDocument(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	// Clear read-only flag on an existing target.
	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0200 == 0 {
		if err := os.Chmod(path, info.Mode().Perm()|0200); err != nil {
			return fmt.Errorf("failed to clear read-only flag on %s: %w", path, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// rotateBackup snapshots the current live document into the backup before
// it is overwritten. The first save has nothing to rotate; an existing
// backup is replaced only once its last write time is older than the
// retention window. Rotation failures are logged, never fatal.
func (s *Store) rotateBackup() {
	prev, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("backup rotation: read failed")
		}
		return
	}

	bak := s.BackupPath()
	if info, err := os.Stat(bak); err == nil {
		cutoff := time.Now().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)
		if s.retentionDays > 0 && info.ModTime().After(cutoff) {
			return // still within the retention window
		}
	} else if !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", bak).Msg("backup rotation: stat failed")
		return
	}

	if err := s.writeDocument(bak, prev); err != nil {
		s.log.Warn().Err(err).Msg("backup rotation: refresh failed")
	}
}
