// Package csv parses delimited bank and credit-card exports into candidate
// expense records, inferring the column layout from the header row.
package csv

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/GuildOfCalamity/BalanceAct/internal/importer"
	"github.com/GuildOfCalamity/BalanceAct/internal/model"
	"github.com/GuildOfCalamity/BalanceAct/internal/money"
	"github.com/GuildOfCalamity/BalanceAct/internal/rules"
)

// memoDelims are tried in this fixed priority order when a description has
// an embedded order/confirmation code and the file carries no memo column.
var memoDelims = []byte{'*', '#', '~', '%'}

// dateLayouts accepted for the date column.
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"2006/01/02",
	"1/2/06",
	"Jan 2, 2006",
}

// Parser converts delimited text exports into candidate records. Rows whose
// amount is not a withdrawal (a negative number) are skipped: deposits are
// not expenses.
type Parser struct {
	categorizer *rules.Engine
	log         zerolog.Logger
}

// NewParser creates a CSV parser. The rules engine supplies a category for
// rows that carry none; it may be nil, in which case such rows fall back to
// the Undefined category.
func NewParser(categorizer *rules.Engine, log zerolog.Logger) *Parser {
	return &Parser{
		categorizer: categorizer,
		log:         log.With().Str("component", "csv-import").Logger(),
	}
}

// Name returns the parser identifier.
func (p *Parser) Name() string { return "csv" }

// CanParse checks the extension and that the header row looks delimited.
func (p *Parser) CanParse(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	first := string(header)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return strings.Contains(first, ",")
}

// columns holds the inferred index of each field in a row.
type columns struct {
	date, desc, cat, amt, memo int
}

// sniffColumns inspects header tokens case-insensitively for the well-known
// substrings and falls back to positions 0-3 for anything unmatched. The
// "amount" token must not also mention "credit" so paired debit/credit
// exports pick the debit column.
func sniffColumns(header []string) columns {
	cols := columns{date: 0, desc: 1, cat: 2, amt: 3, memo: -1}
	for i, tok := range header {
		t := strings.ToLower(strings.TrimSpace(tok))
		switch {
		case strings.Contains(t, "date"):
			cols.date = i
		case strings.Contains(t, "description"):
			cols.desc = i
		case strings.Contains(t, "category"):
			cols.cat = i
		case strings.Contains(t, "amount") && !strings.Contains(t, "credit"):
			cols.amt = i
		case strings.Contains(t, "memo") || strings.Contains(t, "additional"):
			cols.memo = i
		}
	}
	return cols
}

// splitRow comma-splits a line with quote characters stripped. The original
// export format quotes whole fields, so stripping rather than honoring
// quotes matches the data seen in practice.
func splitRow(line string) []string {
	tokens := strings.Split(line, ",")
	for i, tok := range tokens {
		tokens[i] = strings.TrimSpace(strings.ReplaceAll(tok, `"`, ""))
	}
	return tokens
}

// Parse reads the export line by line. The first line is the header; each
// following row either yields a candidate record, counts as a skipped
// deposit, or produces a row diagnostic. One bad row never aborts the batch.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *importer.Metadata) (*importer.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read CSV content%s: %w", importer.FileInfo(meta), err)
		}
		return nil, fmt.Errorf("CSV file is empty%s", importer.FileInfo(meta))
	}
	cols := sniffColumns(splitRow(scanner.Text()))

	result := &importer.Result{}
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		tokens := splitRow(text)
		if len(tokens) < 4 {
			p.log.Warn().Int("line", line).Int("tokens", len(tokens)).Msg("row has too few columns, skipping")
			result.Bad = append(result.Bad, importer.RowError{Line: line, Reason: fmt.Sprintf("expected at least 4 columns, got %d", len(tokens))})
			continue
		}

		item, deposit, err := p.parseRow(tokens, cols)
		if err != nil {
			p.log.Warn().Int("line", line).Err(err).Msg("row rejected")
			result.Bad = append(result.Bad, importer.RowError{Line: line, Reason: err.Error()})
			continue
		}
		if deposit {
			result.Deposits++
			continue
		}
		result.Items = append(result.Items, *item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CSV content%s: %w", importer.FileInfo(meta), err)
	}

	return result, nil
}

// parseRow converts one token row. The deposit flag is set when the amount
// parsed cleanly but was not negative; such rows are skipped, not errors.
func (p *Parser) parseRow(tokens []string, cols columns) (*model.ExpenseItem, bool, error) {
	get := func(idx int) string {
		if idx >= 0 && idx < len(tokens) {
			return tokens[idx]
		}
		return ""
	}

	amount, err := money.Parse(get(cols.amt))
	if err != nil {
		return nil, false, fmt.Errorf("invalid amount %q: %w", get(cols.amt), err)
	}
	// Withdrawals only. A positive amount is a deposit and is skipped.
	if !amount.IsNegative() {
		return nil, true, nil
	}

	date, err := parseDate(get(cols.date))
	if err != nil {
		return nil, false, err
	}

	description := get(cols.desc)
	codes := ""
	if cols.memo >= 0 {
		codes = get(cols.memo)
	} else {
		description, codes = splitDescription(description)
	}
	if description == "" {
		description, codes = codes, ""
	}
	if description == "" {
		return nil, false, fmt.Errorf("row has no description or memo")
	}

	category := model.MatchCategory(get(cols.cat))
	if category == "" {
		category = p.categorize(description)
	}

	return &model.ExpenseItem{
		Category:    category,
		Description: description,
		Codes:       codes,
		Amount:      money.Text(amount.Abs()),
		Date:        date,
	}, false, nil
}

// categorize consults the rules engine for rows without a category column.
func (p *Parser) categorize(description string) model.Category {
	if p.categorizer != nil {
		if cat, ok := p.categorizer.Match(description); ok {
			return cat
		}
	}
	return model.CategoryUndefined
}

// parseDate tries each accepted layout in turn.
func parseDate(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// splitDescription heuristically splits an embedded memo/confirmation code
// out of the description on the first delimiter found, in fixed priority
// order. Best-effort: when the split would leave an empty description the
// original text is returned unchanged.
func splitDescription(description string) (string, string) {
	for _, delim := range memoDelims {
		idx := strings.IndexByte(description, delim)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(description[:idx])
		right := strings.TrimSpace(description[idx+1:])
		if left == "" {
			return description, ""
		}
		return left, right
	}
	return description, ""
}
