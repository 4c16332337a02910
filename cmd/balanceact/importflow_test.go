package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuildOfCalamity/BalanceAct/internal/importer"
	csvparser "github.com/GuildOfCalamity/BalanceAct/internal/importer/csv"
	ofxparser "github.com/GuildOfCalamity/BalanceAct/internal/importer/ofx"
	"github.com/GuildOfCalamity/BalanceAct/internal/logging"
	"github.com/GuildOfCalamity/BalanceAct/internal/model"
	"github.com/GuildOfCalamity/BalanceAct/internal/reconcile"
	"github.com/GuildOfCalamity/BalanceAct/internal/rules"
	"github.com/GuildOfCalamity/BalanceAct/internal/store"
)

const sampleCSV = `Transaction Date,Description,Category,Amount,Memo
03/15/2024,SHELL OIL #5701,Gas,-42.54,
03/16/2024,PAYROLL DEPOSIT,,1500.00,
03/17/2024,NETFLIX.COM,,-15.49,
03/18/2024,GROCERY OUTLET,Groceries,-84.12,store 1181
`

// Exercises the full pipeline the import flow runs: discovery, header
// sniffing, parsing, categorization, backup-gated merge, persistence, and a
// second pass that must add nothing.
func TestImportFlowEndToEnd(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "march.csv")
	require.NoError(t, os.WriteFile(exportPath, []byte(sampleCSV), 0644))

	st := store.New(filepath.Join(dir, "expenses.json"), 0, logging.Nop())
	engine, err := rules.LoadEmbedded()
	require.NoError(t, err)

	reg := importer.NewRegistry(
		csvparser.NewParser(engine, logging.Nop()),
		ofxparser.NewParser(engine, logging.Nop()),
	)

	files, err := importer.Discover(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	parser, err := reg.FindParser(files[0].FilePath())
	require.NoError(t, err)
	require.Equal(t, "csv", parser.Name())

	f, err := os.Open(files[0].FilePath())
	require.NoError(t, err)
	parsed, err := parser.Parse(context.Background(), f, files[0])
	f.Close()
	require.NoError(t, err)

	require.Len(t, parsed.Items, 3, "three withdrawals")
	assert.Equal(t, 1, parsed.Deposits, "payroll deposit skipped")
	assert.Empty(t, parsed.Bad)

	// Uncategorized netflix row resolved through the rules engine.
	assert.Equal(t, model.CategoryEntertainment, parsed.Items[1].Category)

	eng := reconcile.NewEngine(st, logging.Nop())
	result, err := eng.Import(nil, parsed.Items, reconcile.ImportMatch)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 0, result.Skipped)

	loaded, err := st.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	require.NoError(t, model.ValidateSet(loaded))
	assert.Equal(t, "$42.54", loaded[0].Amount)

	// Importing the same export again must be a no-op.
	again, err := eng.Import(result.Items, parsed.Items, reconcile.ImportMatch)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Added)
	assert.Equal(t, 3, again.Skipped)
	assert.Len(t, again.Items, 3)
}

func TestImportFlowMixedFormats(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(sampleCSV), 0644))

	qfx := strings.Join([]string{
		"OFXHEADER:100",
		"DATA:OFXSGML",
		"VERSION:102",
		"",
		"<OFX>",
		"<SIGNONMSGSRSV1>",
		"<SONRS>",
		"<STATUS>",
		"<CODE>0",
		"<SEVERITY>INFO",
		"</STATUS>",
		"<DTSERVER>20240315120000",
		"<LANGUAGE>ENG",
		"</SONRS>",
		"</SIGNONMSGSRSV1>",
		"<CREDITCARDMSGSRSV1>",
		"<CCSTMTTRNRS>",
		"<TRNUID>1",
		"<STATUS>",
		"<CODE>0",
		"<SEVERITY>INFO",
		"</STATUS>",
		"<CCSTMTRS>",
		"<CURDEF>USD",
		"<CCACCTFROM>",
		"<ACCTID>1234",
		"</CCACCTFROM>",
		"<BANKTRANLIST>",
		"<DTSTART>20240301",
		"<DTEND>20240331",
		"<STMTTRN>",
		"<TRNTYPE>DEBIT",
		"<DTPOSTED>20240320",
		"<TRNAMT>-30.00",
		"<FITID>x1",
		"<NAME>HOME DEPOT",
		"</STMTTRN>",
		"</BANKTRANLIST>",
		"</CCSTMTRS>",
		"</CCSTMTTRNRS>",
		"</CREDITCARDMSGSRSV1>",
		"</OFX>",
		"",
	}, "\r\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.qfx"), []byte(qfx), 0644))

	reg := importer.NewRegistry(
		csvparser.NewParser(nil, logging.Nop()),
		ofxparser.NewParser(nil, logging.Nop()),
	)

	files, err := importer.Discover(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	var candidates []model.ExpenseItem
	for _, meta := range files {
		parser, err := reg.FindParser(meta.FilePath())
		require.NoError(t, err)

		f, err := os.Open(meta.FilePath())
		require.NoError(t, err)
		parsed, err := parser.Parse(context.Background(), f, meta)
		f.Close()
		require.NoError(t, err)
		candidates = append(candidates, parsed.Items...)
	}

	assert.Len(t, candidates, 4, "three CSV withdrawals plus one OFX debit")
}
