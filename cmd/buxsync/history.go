package main

import (
	"fmt"

	"github.com/ledgerkeep/buxsync/internal/cli"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs from the local journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			journal, err := initJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = journal.Close() }()

			runs, err := journal.ListSyncRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list sync runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println(cli.FormatInfo("No sync runs recorded yet"))
				return nil
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("STARTED\tWINDOW\tCANDIDATES\tADDED\tDUP\tUPDATED\tFUTURE\tFAILED BATCHES"))
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s..%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
					run.StartedAt.Format("2006-01-02 15:04"),
					run.WindowStart, run.WindowEnd,
					run.Candidates, run.Added, run.Duplicates,
					run.Updated, run.IgnoredFuture, run.FailedBatches)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of runs to show")

	return cmd
}
