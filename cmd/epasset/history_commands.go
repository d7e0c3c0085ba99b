package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"epasset/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent export and migration runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, ctx, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := mustOpenHistory(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
			return nil
		},
	}
}

func runHistoryList(cmd *cobra.Command, cmdCtx *commandContext, limit int) error {
	store, err := mustOpenHistory(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", record.ID),
			string(record.Kind),
			record.Status,
			fmt.Sprintf("%d", record.FileCount),
			record.StartedAt.Local().Format(time.DateTime),
			record.OutputDir,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Kind", "Status", "Files", "Started", "Output"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}

func mustOpenHistory(cmdCtx *commandContext) (*history.Store, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled in the configuration")
	}
	return history.Open(cfg)
}
