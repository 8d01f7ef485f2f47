package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ledgerkeep/buxsync/internal/cli"
	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction from the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			if err := client.DeleteTransaction(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete transaction %d: %w", id, err)
			}

			slog.Info(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}
