package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fermata/internal/dedupe"
	"fermata/internal/report"
	"fermata/internal/watch"
)

func init() {
	cmd := &cobra.Command{
		Use:          "watch",
		Short:        "Watch directories and re-report duplicates on every change",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runWatch,
	}
	cmd.Flags().StringSliceP("input", "i", nil, "Directory to watch (repeatable or comma-separated)")
	cmd.Flags().StringP("output", "o", "", "Directory duplicate reports are written into")
	cmd.Flags().Int("workers", 0, "Worker pool size (0 selects one per CPU core)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	cmdRoot.AddCommand(cmd)
}

// runWatch reports duplicates after every settled change. Watch mode
// never moves files; each pass behaves like a dry run.
func runWatch(cmd *cobra.Command, _ []string) error {
	roots, _ := cmd.Flags().GetStringSlice("input")
	output, _ := cmd.Flags().GetString("output")
	workers, _ := cmd.Flags().GetInt("workers")

	eng, cleanup := newEngine(workers)
	defer cleanup()

	rescan := func() {
		paths, err := eng.Enumerate(roots)
		if err != nil {
			logger.WithError(err).Error("Enumeration failed")
			return
		}
		result, err := eng.Scan(cmd.Context(), paths)
		if err != nil {
			logger.WithError(err).Error("Scan failed")
			return
		}

		resolutions := dedupe.ResolveAll(dedupe.Group(result.Records))
		writer := report.New(logger)
		writer.LogPlan(resolutions, result.Failures, true)

		reportPath := filepath.Join(output, "duplicate_report.csv")
		if err := writer.WriteDuplicateCSV(reportPath, resolutions); err != nil {
			logger.WithError(err).Error("Failed to write duplicate report")
		}
	}

	watcher := watch.New(roots, isAudioPath, logger)
	err := watcher.Run(cmd.Context(), rescan)
	if errors.Is(err, context.Canceled) {
		logger.Info("Watch mode stopped")
		return nil
	}
	return err
}

func isAudioPath(path string) bool {
	return cfg.IsFormatSupported(strings.ToLower(filepath.Ext(path)))
}
