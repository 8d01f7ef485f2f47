package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/ledgerkeep/buxsync/internal/cli"
	"github.com/ledgerkeep/buxsync/internal/engine"
	"github.com/ledgerkeep/buxsync/internal/model"
	"github.com/ledgerkeep/buxsync/internal/ofx"
	"github.com/ledgerkeep/buxsync/internal/plaid"
	"github.com/ledgerkeep/buxsync/internal/reconcile"
	"github.com/ledgerkeep/buxsync/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile candidate transactions against Buxfer and submit the difference",
		Long: `Read candidate transactions from a JSON file, an OFX/QFX statement, or
Plaid, classify them against the ledger's current state, and submit new
transactions in batches. Duplicates are never re-submitted.`,
		RunE: runSync,
	}

	cmd.Flags().StringP("file", "f", "", "JSON file with candidate transactions")
	cmd.Flags().String("ofx", "", "OFX/QFX statement file with candidate transactions")
	cmd.Flags().Int64("account", 0, "ledger account ID for OFX candidates")
	cmd.Flags().String("source", "", "candidate source (plaid)")
	cmd.Flags().IntP("days", "d", 30, "number of days to fetch when using a remote source")

	cmd.Flags().Bool("update", false, "edit remote transactions whose status or description changed")
	cmd.Flags().Bool("ignore-future", true, "defer candidates dated after today")
	cmd.Flags().Int("batch-size", engine.DefaultBatchSize, "concurrent writes per batch")
	cmd.Flags().Bool("dry-run", false, "classify without submitting anything")

	_ = viper.BindPFlag("sync.update", cmd.Flags().Lookup("update"))
	_ = viper.BindPFlag("sync.ignore_future", cmd.Flags().Lookup("ignore-future"))
	_ = viper.BindPFlag("sync.batch_size", cmd.Flags().Lookup("batch-size"))

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	candidates, err := loadCandidates(ctx, cmd)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Syncing transactions to Buxfer"))
	slog.Info("Loaded candidates", "count", len(candidates))

	client, err := initClient(ctx)
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return runDryRun(ctx, client, candidates)
	}

	syncEngine := engine.New(client, engine.Config{
		BatchSize:      viper.GetInt("sync.batch_size"),
		UpdateExisting: viper.GetBool("sync.update"),
		IgnoreFuture:   viper.GetBool("sync.ignore_future"),
		ProgressWriter: os.Stderr,
	})

	startedAt := time.Now()
	result, err := syncEngine.Sync(ctx, candidates)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	recordRun(ctx, result, startedAt)
	printSyncResult(result)

	return nil
}

// runDryRun reads the baseline and classifies without touching the ledger.
func runDryRun(ctx context.Context, ledger service.Ledger, candidates []model.Transaction) error {
	startDate, endDate, err := reconcile.DateRange(candidates)
	if err != nil {
		return err
	}

	baseline, err := ledger.TransactionsInWindow(ctx, startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to read baseline: %w", err)
	}

	classification := reconcile.Reconcile(candidates, baseline, reconcile.Options{
		IgnoreFuture: viper.GetBool("sync.ignore_future"),
	})

	slog.Info(cli.FormatInfo("Dry run, nothing submitted"),
		"window_start", startDate,
		"window_end", endDate,
		"new", len(classification.New),
		"duplicate", len(classification.Duplicate),
		"update_required", len(classification.UpdateRequired),
		"future", len(classification.Future))

	return nil
}

// loadCandidates resolves the candidate source from flags.
func loadCandidates(ctx context.Context, cmd *cobra.Command) ([]model.Transaction, error) {
	file, _ := cmd.Flags().GetString("file")
	ofxFile, _ := cmd.Flags().GetString("ofx")
	source, _ := cmd.Flags().GetString("source")

	switch {
	case file != "":
		return loadJSONCandidates(file)
	case ofxFile != "":
		accountID, _ := cmd.Flags().GetInt64("account")
		if accountID == 0 {
			return nil, fmt.Errorf("--account is required with --ofx")
		}
		return loadOFXCandidates(ctx, ofxFile, accountID)
	case source == "plaid":
		days, _ := cmd.Flags().GetInt("days")
		return loadPlaidCandidates(ctx, days)
	default:
		return nil, fmt.Errorf("one of --file, --ofx or --source is required")
	}
}

func loadJSONCandidates(path string) ([]model.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates file: %w", err)
	}

	var candidates []model.Transaction
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse candidates file: %w", err)
	}

	return candidates, nil
}

func loadOFXCandidates(ctx context.Context, path string, accountID int64) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OFX file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ofx.NewParser(accountID).ParseFile(ctx, f)
}

func loadPlaidCandidates(ctx context.Context, days int) ([]model.Transaction, error) {
	accountMap := make(map[string]int64)
	for plaidID, ledgerID := range viper.GetStringMapString("plaid.account_map") {
		id, err := strconv.ParseInt(ledgerID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ledger account id %q for plaid account %s", ledgerID, plaidID)
		}
		accountMap[plaidID] = id
	}

	client, err := plaid.NewClient(plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
		AccountMap:  accountMap,
	})
	if err != nil {
		return nil, err
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return client.GetTransactions(ctx, startDate, endDate)
}

// recordRun journals the sync outcome. Journal failures only warn: the sync
// itself already happened.
func recordRun(ctx context.Context, result *engine.SyncResult, startedAt time.Time) {
	journal, err := initJournal(ctx)
	if err != nil {
		slog.Warn("Failed to open sync journal", "error", err)
		return
	}
	defer func() { _ = journal.Close() }()

	run := &model.SyncRun{
		StartedAt:         startedAt,
		WindowStart:       result.WindowStart,
		WindowEnd:         result.WindowEnd,
		Candidates:        result.Candidates,
		Added:             len(result.AddedIDs),
		Duplicates:        len(result.DuplicateIDs),
		Updated:           len(result.UpdatedIDs),
		IgnoredFuture:     result.IgnoredFuture,
		BatchSize:         result.BatchSize,
		SuccessfulBatches: result.SuccessfulBatches,
		FailedBatches:     result.FailedBatches,
		Duration:          time.Since(startedAt),
	}
	if err := journal.SaveSyncRun(ctx, run); err != nil {
		slog.Warn("Failed to record sync run", "error", err)
	}
}

func printSyncResult(result *engine.SyncResult) {
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Sync complete: %d added, %d duplicates, %d updated",
		len(result.AddedIDs), len(result.DuplicateIDs), len(result.UpdatedIDs))))

	if result.IgnoredFuture > 0 {
		slog.Info(cli.FormatInfo(fmt.Sprintf("%d future-dated candidates deferred", result.IgnoredFuture)))
	}
	if result.FailedBatches > 0 {
		slog.Warn(cli.FormatWarning(fmt.Sprintf("%d of %d batches failed",
			result.FailedBatches, result.FailedBatches+result.SuccessfulBatches)))
	}
}
