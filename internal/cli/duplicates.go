package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"fermata/internal/dedupe"
	"fermata/internal/mover"
	"fermata/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:          "duplicates",
		Short:        "Find duplicate tracks and relocate the lower-quality copies",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runDuplicates,
	}
	cmd.Flags().StringSliceP("input", "i", nil, "Directory to scan (repeatable or comma-separated)")
	cmd.Flags().StringP("output", "o", "", "Directory duplicates are moved into")
	cmd.Flags().Bool("dry-run", false, "Plan and report without moving any files")
	cmd.Flags().Int("workers", 0, "Worker pool size (0 selects one per CPU core)")
	cmd.Flags().String("report", "", "Duplicate report CSV path (default <output>/duplicate_report.csv)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	cmdRoot.AddCommand(cmd)
}

func runDuplicates(cmd *cobra.Command, _ []string) error {
	roots, _ := cmd.Flags().GetStringSlice("input")
	output, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	workers, _ := cmd.Flags().GetInt("workers")
	reportPath, _ := cmd.Flags().GetString("report")
	if reportPath == "" {
		reportPath = filepath.Join(output, "duplicate_report.csv")
	}

	eng, cleanup := newEngine(workers)
	defer cleanup()

	paths, err := eng.Enumerate(roots)
	if err != nil {
		return err
	}
	result, err := eng.Scan(cmd.Context(), paths)
	if err != nil {
		return err
	}

	groups := dedupe.Group(result.Records)
	resolutions := dedupe.ResolveAll(groups)

	writer := report.New(logger)
	writer.LogPlan(resolutions, result.Failures, dryRun)
	if err := writer.WriteDuplicateCSV(reportPath, resolutions); err != nil {
		return err
	}

	if dryRun {
		return nil
	}

	outcomes := mover.New(output, roots, logger).Execute(resolutions)
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d moves failed", failed, len(outcomes))
	}
	logger.WithField("moved", len(outcomes)).Info("Duplicate resolution complete")
	return nil
}
