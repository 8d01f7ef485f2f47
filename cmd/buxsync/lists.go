package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ledgerkeep/buxsync/internal/cli"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List Buxfer accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			accounts, err := client.Accounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch accounts: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID\tNAME\tBANK\tTYPE\tBALANCE"))
			for _, a := range accounts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\n", a.ID, a.Name, a.Bank, a.Type, a.Balance)
			}
			return w.Flush()
		},
	}
}

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List Buxfer tags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			tags, err := client.Tags(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch tags: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID\tNAME\tPARENT"))
			for _, t := range tags {
				fmt.Fprintf(w, "%d\t%s\t%d\n", t.ID, t.Name, t.ParentID)
			}
			return w.Flush()
		},
	}
}

func budgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budgets",
		Short: "List Buxfer budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			budgets, err := client.Budgets(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch budgets: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID\tNAME\tLIMIT\tREMAINING\tPERIOD"))
			for _, b := range budgets {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\n", b.ID, b.Name, b.Limit, b.Remaining, b.Period)
			}
			return w.Flush()
		},
	}
}

func loansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loans",
		Short: "List Buxfer loan balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			loans, err := client.Loans(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch loans: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("ENTITY\tTYPE\tBALANCE\tDESCRIPTION"))
			for _, l := range loans {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", l.Entity, l.Type, l.Balance, l.Description)
			}
			return w.Flush()
		},
	}
}

func remindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List Buxfer reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			reminders, err := client.Reminders(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch reminders: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID\tNAME\tSTART\tPERIOD\tAMOUNT"))
			for _, r := range reminders {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\n", r.ID, r.Name, r.StartDate, r.Period, r.Amount)
			}
			return w.Flush()
		},
	}
}

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List Buxfer expense-sharing groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			groups, err := client.Groups(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch groups: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID\tNAME\tMEMBERS"))
			for _, g := range groups {
				fmt.Fprintf(w, "%d\t%s\t%d\n", g.ID, g.Name, len(g.Members))
			}
			return w.Flush()
		},
	}
}

func contactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List Buxfer contacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd.Context())
			if err != nil {
				return err
			}

			contacts, err := client.Contacts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch contacts: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID\tNAME\tEMAIL\tBALANCE"))
			for _, c := range contacts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\n", c.ID, c.Name, c.Email, c.Balance)
			}
			return w.Flush()
		},
	}
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}
