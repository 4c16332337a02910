// Package ofx parses OFX/QFX financial-exchange exports. The raw file is
// split into its colon-delimited header block and SGML body, sanitized into
// well-formed XML, then parsed through the ofxgo backend with a fixed-schema
// decode as the fallback for documents ofxgo rejects.
package ofx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/rs/zerolog"

	"github.com/GuildOfCalamity/BalanceAct/internal/importer"
	"github.com/GuildOfCalamity/BalanceAct/internal/model"
	"github.com/GuildOfCalamity/BalanceAct/internal/money"
	"github.com/GuildOfCalamity/BalanceAct/internal/rules"
)

// Parser converts OFX/QFX exports into candidate expense records.
type Parser struct {
	categorizer *rules.Engine
	log         zerolog.Logger
}

// NewParser creates an OFX parser. The rules engine may be nil; rows that
// match no rule fall back to the Undefined category.
func NewParser(categorizer *rules.Engine, log zerolog.Logger) *Parser {
	return &Parser{
		categorizer: categorizer,
		log:         log.With().Str("component", "ofx-import").Logger(),
	}
}

// Name returns the parser identifier.
func (p *Parser) Name() string { return "ofx" }

// CanParse checks the extension and header for OFX markers (both the v1
// colon header and v2 XML forms).
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ofx" && ext != ".qfx" {
		return false
	}
	headerUpper := strings.ToUpper(string(header))
	return strings.Contains(headerUpper, "OFXHEADER") ||
		strings.Contains(headerUpper, "<?OFX") ||
		strings.Contains(headerUpper, "<OFX>")
}

// Parse reads the whole export, sanitizes it, and extracts candidate
// records. Deposits (non-negative amounts) are skipped; record-level
// failures become row diagnostics rather than aborting the batch.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *importer.Metadata) (*importer.Result, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX content%s: %w", importer.FileInfo(meta), err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	doc := Split(string(content))
	body := Sanitize(doc.Body)
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("no OFX body found%s", importer.FileInfo(meta))
	}

	resp, err := ofxgo.ParseResponse(bytes.NewReader([]byte(Reassemble(doc, body))))
	if err != nil {
		p.log.Debug().Err(err).Msg("ofxgo rejected document, trying fixed-schema decode")
		stmt, ferr := decodeDocument(body)
		if ferr != nil {
			return nil, fmt.Errorf("failed to parse OFX file%s (%d bytes): %w", importer.FileInfo(meta), len(content), ferr)
		}
		return p.fromStatement(stmt), nil
	}
	return p.fromResponse(resp)
}

// fromResponse maps an ofxgo response to candidate records. Credit-card
// statements are checked first, then bank statements, matching the export
// shapes credit-card-centric institutions emit.
func (p *Parser) fromResponse(resp *ofxgo.Response) (*importer.Result, error) {
	if len(resp.CreditCard) > 0 {
		ccStmt, ok := resp.CreditCard[0].(*ofxgo.CCStatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected credit card statement type %T", resp.CreditCard[0])
		}
		if ccStmt.BankTranList == nil {
			return nil, fmt.Errorf("missing transaction list in credit card statement")
		}
		return p.fromTransactions(ccStmt.BankTranList.Transactions), nil
	}

	if len(resp.Bank) > 0 {
		bankStmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected bank statement type %T", resp.Bank[0])
		}
		if bankStmt.BankTranList == nil {
			return nil, fmt.Errorf("missing transaction list in bank statement")
		}
		return p.fromTransactions(bankStmt.BankTranList.Transactions), nil
	}

	return nil, fmt.Errorf("no credit-card or bank statement found in OFX response (creditcard: %d, bank: %d)",
		len(resp.CreditCard), len(resp.Bank))
}

// fromTransactions converts ofxgo transactions into candidate records.
func (p *Parser) fromTransactions(txns []ofxgo.Transaction) *importer.Result {
	result := &importer.Result{}
	for i, txn := range txns {
		amount, err := money.Parse(txn.TrnAmt.String())
		if err != nil {
			result.Bad = append(result.Bad, importer.RowError{Line: i + 1, Reason: fmt.Sprintf("invalid amount %q", txn.TrnAmt.String())})
			continue
		}
		if !amount.IsNegative() {
			result.Deposits++
			continue
		}

		date := txn.DtPosted.Time
		if date.IsZero() {
			date = txn.DtUser.Time
		}
		if date.IsZero() {
			result.Bad = append(result.Bad, importer.RowError{Line: i + 1, Reason: fmt.Sprintf("transaction %s has no posted or user date", txn.FiTID.String())})
			continue
		}

		description := strings.TrimSpace(txn.Name.String())
		memo := strings.TrimSpace(txn.Memo.String())
		if description == "" {
			description, memo = memo, ""
		}
		if description == "" {
			result.Bad = append(result.Bad, importer.RowError{Line: i + 1, Reason: fmt.Sprintf("transaction %s has no name or memo", txn.FiTID.String())})
			continue
		}

		result.Items = append(result.Items, model.ExpenseItem{
			Category:    p.categorize(description),
			Description: description,
			Codes:       p.codes(txn.CheckNum.String(), memo),
			Amount:      money.Text(amount.Abs()),
			Date:        truncateDay(date),
		})
	}
	return result
}

// fromStatement converts a fixed-schema statement into candidate records.
func (p *Parser) fromStatement(stmt *statement) *importer.Result {
	result := &importer.Result{}
	for i, txn := range stmt.Transactions.Transactions {
		amount, err := money.Parse(txn.Amount)
		if err != nil {
			result.Bad = append(result.Bad, importer.RowError{Line: i + 1, Reason: fmt.Sprintf("invalid amount %q", txn.Amount)})
			continue
		}
		if !amount.IsNegative() {
			result.Deposits++
			continue
		}

		date, err := ParseDate(txn.Posted)
		if err != nil {
			result.Bad = append(result.Bad, importer.RowError{Line: i + 1, Reason: err.Error()})
			continue
		}

		description := strings.TrimSpace(txn.Name)
		memo := strings.TrimSpace(txn.Memo)
		if description == "" {
			description, memo = memo, ""
		}
		if description == "" {
			result.Bad = append(result.Bad, importer.RowError{Line: i + 1, Reason: fmt.Sprintf("transaction %s has no name or memo", txn.FiTID)})
			continue
		}

		result.Items = append(result.Items, model.ExpenseItem{
			Category:    p.categorize(description),
			Description: description,
			Codes:       p.codes(txn.CheckNum, memo),
			Amount:      money.Text(amount.Abs()),
			Date:        truncateDay(date),
		})
	}
	return result
}

// codes picks the confirmation/check text for the record's codes field.
func (p *Parser) codes(checkNum, memo string) string {
	if c := strings.TrimSpace(checkNum); c != "" {
		return c
	}
	return memo
}

func (p *Parser) categorize(description string) model.Category {
	if p.categorizer != nil {
		if cat, ok := p.categorizer.Match(description); ok {
			return cat
		}
	}
	return model.CategoryUndefined
}

// truncateDay drops the time-of-day portion of an OFX stamp; only the
// calendar date is meaningful for an expense record.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
