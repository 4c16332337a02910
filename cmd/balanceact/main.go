package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/GuildOfCalamity/BalanceAct/internal/config"
	"github.com/GuildOfCalamity/BalanceAct/internal/history"
	"github.com/GuildOfCalamity/BalanceAct/internal/importer"
	csvparser "github.com/GuildOfCalamity/BalanceAct/internal/importer/csv"
	ofxparser "github.com/GuildOfCalamity/BalanceAct/internal/importer/ofx"
	"github.com/GuildOfCalamity/BalanceAct/internal/logging"
	"github.com/GuildOfCalamity/BalanceAct/internal/model"
	"github.com/GuildOfCalamity/BalanceAct/internal/money"
	"github.com/GuildOfCalamity/BalanceAct/internal/reconcile"
	"github.com/GuildOfCalamity/BalanceAct/internal/rules"
	"github.com/GuildOfCalamity/BalanceAct/internal/stats"
	"github.com/GuildOfCalamity/BalanceAct/internal/store"
	"github.com/GuildOfCalamity/BalanceAct/internal/ui"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")
	verbose     = flag.Bool("verbose", false, "Show detailed logs")

	// Store flags
	configFile = flag.String("config", "", "YAML config file")
	storePath  = flag.String("store", "", "Record store path (overrides config)")
	retention  = flag.Int("retention", -1, "Backup retention in days (overrides config)")

	// Operations
	importPath  = flag.String("import", "", "Statement file or directory to import")
	dryRun      = flag.Bool("dry-run", false, "Parse statements without merging")
	summaryFlag = flag.Bool("summary", false, "Print summary statistics")
	restoreFlag = flag.Bool("restore", false, "Restore the store from its backup")
	seedFlag    = flag.Bool("seed", false, "Seed an empty store with starter records")
	removeID    = flag.Int("remove", 0, "Remove the record with this id")
	historyN    = flag.Int("history", 0, "Show the N most recent import batches")

	// Rules
	rulesFile = flag.String("rules", "", "Category rules file (default: embedded rules)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `balanceact - Expense tracker with statement import and reconciliation

Usage:
  balanceact [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Import a month of statements and merge into the store
  balanceact -import ~/statements -store expenses.json

  # Preview an import without touching the store
  balanceact -import chase.csv -dry-run -verbose

  # Print summary statistics
  balanceact -summary

  # Roll the store back to its last backup
  balanceact -restore

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("balanceact version %s\n", version)
		os.Exit(0)
	}

	if *importPath == "" && !*summaryFlag && !*restoreFlag && !*seedFlag && *removeID == 0 && *historyN == 0 {
		fmt.Fprintf(os.Stderr, "Error: no operation given (-import, -summary, -restore, -seed, -remove or -history)\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	log := logging.New(*verbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st := store.New(cfg.StorePath, cfg.RetentionDays, log)

	if *restoreFlag {
		if !st.Restore() {
			return fmt.Errorf("restore failed: %s has no backup to restore from", cfg.StorePath)
		}
		ui.Success("Restored %s from %s", st.Path(), st.BackupPath())
		return nil
	}

	items, err := st.Load()
	if err != nil {
		return fmt.Errorf("failed to load record store: %w", err)
	}

	if *seedFlag {
		items, err = seed(st, items)
		if err != nil {
			return err
		}
	}

	if *importPath != "" {
		items, err = runImport(ctx, cfg, st, items, log)
		if err != nil {
			return err
		}
	}

	if *removeID != 0 {
		eng := reconcile.NewEngine(st, log)
		updated, removed, err := eng.Remove(items, *removeID)
		if err != nil {
			return err
		}
		if !removed {
			ui.Warning("No record with id %d", *removeID)
		} else {
			ui.Success("Removed record %d", *removeID)
		}
		items = updated
	}

	if *summaryFlag {
		if err := printSummary(items); err != nil {
			return err
		}
	}

	if *historyN > 0 {
		if err := printHistory(cfg, *historyN, log); err != nil {
			return err
		}
	}

	return nil
}

// loadConfig merges defaults, the optional config file, and flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *retention >= 0 {
		cfg.RetentionDays = *retention
	}
	if *rulesFile != "" {
		cfg.RulesFile = *rulesFile
	}
	return cfg, nil
}

func loadRules(cfg config.Config) (*rules.Engine, error) {
	if cfg.RulesFile != "" {
		engine, err := rules.LoadFromFile(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules file: %w", err)
		}
		return engine, nil
	}
	engine, err := rules.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules: %w", err)
	}
	return engine, nil
}

func runImport(ctx context.Context, cfg config.Config, st *store.Store, items []model.ExpenseItem, log zerolog.Logger) ([]model.ExpenseItem, error) {
	if !*verbose {
		ui.Header("Importing Statements")
		ui.Step(1, 3, "Discovering statement files")
	}

	files, err := importer.Discover(*importPath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", *importPath, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no statement files found at %s (supported: .csv, .ofx, .qfx)", *importPath)
	}
	if !*verbose {
		ui.Success("Found %d statement files", len(files))
	}

	engine, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}

	reg := importer.NewRegistry(
		csvparser.NewParser(engine, log),
		ofxparser.NewParser(engine, log),
	)

	if !*verbose {
		ui.Step(2, 3, "Parsing statements")
	}

	var (
		candidates  []model.ExpenseItem
		unparsable  int
		deposits    int
		parserNames []string
	)
	for _, meta := range files {
		parser, err := reg.FindParser(meta.FilePath())
		if err != nil {
			return nil, fmt.Errorf("failed to find parser for %s: %w", meta.FilePath(), err)
		}
		parserNames = append(parserNames, parser.Name())

		f, err := os.Open(meta.FilePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", meta.FilePath(), err)
		}

		result, err := parser.Parse(ctx, f, meta)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", meta.FilePath(), err)
		}

		if *verbose {
			log.Debug().
				Str("file", meta.FilePath()).
				Str("parser", parser.Name()).
				Int("records", len(result.Items)).
				Int("deposits", result.Deposits).
				Int("bad_rows", len(result.Bad)).
				Msg("parsed statement")
		}
		for _, bad := range result.Bad {
			ui.Warning("%s: %s", meta.FilePath(), bad.String())
		}

		candidates = append(candidates, result.Items...)
		unparsable += len(result.Bad)
		deposits += result.Deposits
	}

	if *dryRun {
		ui.Info("Dry run complete. Would merge %d records (%d deposits skipped, %d unparsable).",
			len(candidates), deposits, unparsable)
		return items, nil
	}

	if !*verbose {
		ui.Step(3, 3, "Reconciling against the store")
	}

	eng := reconcile.NewEngine(st, log)
	result, err := eng.Import(items, candidates, reconcile.ImportMatch)
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}

	recordBatch(cfg, log, history.Batch{
		ID:         result.BatchID,
		Source:     *importPath,
		Parser:     parserList(parserNames),
		Added:      result.Added,
		Skipped:    result.Skipped,
		Unparsable: unparsable,
		Deposits:   deposits,
	})

	ui.Success("Import complete: added %d, skipped %d, %d unparsable", result.Added, result.Skipped, unparsable)
	return result.Items, nil
}

// parserList joins the distinct parser names used across a batch, in the
// order first used. A mixed CSV+OFX directory records both.
func parserList(names []string) string {
	var out []string
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return strings.Join(out, ",")
}

// recordBatch writes the batch to the ledger. Ledger failures are logged,
// never fatal: the merge already happened.
func recordBatch(cfg config.Config, log zerolog.Logger, b history.Batch) {
	ledger, err := history.Open(cfg.HistoryPath, log)
	if err != nil {
		log.Warn().Err(err).Msg("import ledger unavailable")
		return
	}
	defer ledger.Close()

	if err := ledger.Record(b); err != nil {
		log.Warn().Err(err).Str("batch_id", b.ID).Msg("failed to record batch")
	}
}

func printSummary(items []model.ExpenseItem) error {
	report, err := stats.Summarize(items, time.Now())
	if errors.Is(err, stats.ErrNoItems) {
		ui.Info("No records to summarize.")
		return nil
	}
	if err != nil {
		return err
	}

	ui.Header("Expense Summary")
	ui.Info("Current month total:  %s", money.Display(report.CurrentMonthTotal))
	ui.Info("Previous month total: %s", money.Display(report.PreviousMonthTotal))

	change, err := stats.PercentChange(report.CurrentMonthTotal, report.PreviousMonthTotal)
	if errors.Is(err, stats.ErrNoPreviousTotal) {
		ui.Info("Change vs previous:   n/a (no previous-month spending)")
	} else {
		ui.Info("Change vs previous:   %s%%", change.StringFixed(1))
	}

	ui.Info("Year to date:         %s", money.Display(report.YearToDateTotal))
	ui.Info("Projected year:       %s", money.Display(report.ProjectedYearTotal))
	ui.Info("Typical expense:      %s", money.Display(report.AverageExpense))
	ui.Info("Average per month:    %s", money.Display(report.AveragePerMonth))
	if report.FrequentCategory != "" {
		ui.Info("Most frequent:        %s", report.FrequentCategory)
	}

	for _, d := range report.Diagnostics {
		ui.Warning("excluded from totals: %s", d.String())
	}
	return nil
}

func printHistory(cfg config.Config, limit int, log zerolog.Logger) error {
	ledger, err := history.Open(cfg.HistoryPath, log)
	if err != nil {
		return err
	}
	defer ledger.Close()

	batches, err := ledger.Recent(limit)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		ui.Info("No import batches recorded.")
		return nil
	}

	ui.Header("Recent Imports")
	for _, b := range batches {
		ui.Info("%s  %-28s %s  added=%d skipped=%d unparsable=%d deposits=%d",
			b.CreatedAt.Format("2006-01-02 15:04"), b.Source, b.Parser,
			b.Added, b.Skipped, b.Unparsable, b.Deposits)
	}
	return nil
}

// seed writes a small set of starter records when the store is empty, so a
// fresh install has something to show.
func seed(st *store.Store, items []model.ExpenseItem) ([]model.ExpenseItem, error) {
	if len(items) > 0 {
		ui.Warning("Store already has %d records, skipping seed", len(items))
		return items, nil
	}

	now := time.Now()
	seeded := []model.ExpenseItem{
		{ID: 1, Category: model.CategoryGroceries, Description: "Grocery run", Amount: "$84.12", Date: now.AddDate(0, 0, -3)},
		{ID: 2, Category: model.CategoryGas, Description: "Fuel", Amount: "$43.50", Date: now.AddDate(0, 0, -7)},
		{ID: 3, Category: model.CategoryBills, Description: "Internet service", Amount: "$79.99", Date: now.AddDate(0, 0, -10), Recurring: true},
	}

	if err := st.Save(seeded); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}
	ui.Success("Seeded %d starter records into %s", len(seeded), st.Path())
	return seeded, nil
}
