package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/connectors"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent commands and connection changes from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := runtimeOptions(nil, nil)
		if err != nil {
			return err
		}
		rt, err := app.Initialize(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("initialize runtime: %w", err)
		}
		defer func() { _ = rt.Close() }()

		if historyClear {
			return rt.ClearJournal()
		}
		if rt.CommandRepo == nil || rt.StatusRepo == nil {
			return errors.New("journal is disabled")
		}

		commands, err := rt.CommandRepo.ListRecent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		statuses, err := rt.StatusRepo.ListRecent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := printCommands(out, commands); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out)

		return printStatuses(out, statuses)
	},
}

func printCommands(out io.Writer, events []connectors.CommandEvent) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tCOMMAND\tRESULT")
	for _, e := range events {
		result := "delivered"
		if !e.Delivered {
			result = "failed: " + e.Err
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.Line, result)
	}

	return w.Flush()
}

func printStatuses(out io.Writer, statuses []connectors.ConnectionStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tSTATE\tTARGET\tERROR")
	for _, s := range statuses {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Timestamp.Local().Format(time.DateTime), app.ConnectionStateLabel(s), s.Target, s.Err)
	}

	return w.Flush()
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", app.HistoryLimit, "number of entries per table")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all journal entries")
}
