// Package importer defines the strategy interface shared by all bank-export
// parsers and the registry that picks one by sniffing file headers.
package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/GuildOfCalamity/BalanceAct/internal/model"
)

// Parser is the strategy interface for all import file formats.
type Parser interface {
	// Name returns the parser identifier (e.g. "csv", "ofx").
	Name() string

	// CanParse checks if this parser can handle the file, based on the
	// path and the first bytes of content.
	CanParse(path string, header []byte) bool

	// Parse converts the raw export into candidate expense records. Row
	// level failures never abort the batch; they are reported in the
	// result so the caller can summarize them.
	Parse(ctx context.Context, r io.Reader, meta *Metadata) (*Result, error)
}

// Result is the outcome of parsing one export file. Candidate records have
// no id assigned; the reconciliation engine assigns ids on merge.
type Result struct {
	Items    []model.ExpenseItem
	Deposits int // rows skipped because the amount was not a withdrawal
	Bad      []RowError
}

// RowError is a row-level diagnostic for an unparsable line. The row is
// skipped, the rest of the batch continues.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Metadata carries context about the file being parsed, used for error
// messages and import-history records.
type Metadata struct {
	filePath   string
	detectedAt time.Time
}

// NewMetadata creates metadata for a source file.
func NewMetadata(filePath string, detectedAt time.Time) (*Metadata, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if detectedAt.IsZero() {
		return nil, fmt.Errorf("detected time cannot be zero")
	}
	return &Metadata{filePath: filePath, detectedAt: detectedAt}, nil
}

// FilePath returns the source file path.
func (m *Metadata) FilePath() string { return m.filePath }

// DetectedAt returns when the file was discovered.
func (m *Metadata) DetectedAt() time.Time { return m.detectedAt }

// FileInfo formats the source path for error messages.
func FileInfo(meta *Metadata) string {
	if meta != nil && meta.FilePath() != "" {
		return fmt.Sprintf(" from %s", meta.FilePath())
	}
	return ""
}
