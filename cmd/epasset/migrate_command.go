package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"epasset/internal/history"
	"epasset/internal/legacy"
	"epasset/internal/logging"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <src-root> <dst-root>",
		Short: "Migrate legacy asset folders into the current schema",
		Long: `Migrate scans the immediate subdirectories of src-root for legacy asset
folders (epconfig.txt plus loop.mp4) and converts each one into a same-named
folder under dst-root. Folders convert independently; one failure never
aborts the batch.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, ctx, args[0], args[1])
		},
	}
	return cmd
}

func runMigrate(cmd *cobra.Command, cmdCtx *commandContext, srcRoot, dstRoot string) error {
	logger := cmdCtx.ensureLogger()
	out := cmd.OutOrStdout()

	runID := uuid.NewString()
	store := cmdCtx.openHistory()
	if store != nil {
		defer func() { _ = store.Close() }()
		if _, err := store.RecordStart(cmd.Context(), runID, history.KindMigration, dstRoot); err != nil {
			logger.Warn("history record failed", logging.Error(err))
			store = nil
		}
	}

	migrator := legacy.NewMigrator(logger)
	results := migrator.BatchConvert(srcRoot, dstRoot, func(current, total int, name string) {
		fmt.Fprintf(out, "[%d/%d] %s\n", current, total, name)
	})

	summary := legacy.Summary(results)
	if store != nil {
		status := history.StatusCompleted
		files := 0
		for _, r := range results {
			files += len(r.FilesConverted)
		}
		if len(results) == 0 {
			status = history.StatusFailed
		}
		if err := store.RecordFinish(context.Background(), runID, status, files, summary); err != nil {
			logger.Warn("history record failed", logging.Error(err))
		}
	}

	if len(results) == 0 {
		fmt.Fprintf(out, "no legacy asset folders found under %s\n", srcRoot)
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "failed"
		if r.Success {
			status = "ok"
		}
		rows = append(rows, []string{
			filepath.Base(r.SourcePath),
			status,
			fmt.Sprintf("%d", len(r.FilesConverted)),
			r.Message,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Folder", "Status", "Files", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintln(out, summary)
	return nil
}
