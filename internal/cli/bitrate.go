package cli

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fermata/internal/quality"
	"fermata/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:          "bitrate",
		Short:        "Classify every track into a quality tier and write a CSV report",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runBitrate,
	}
	cmd.Flags().StringSliceP("input", "i", nil, "Directory to scan (repeatable or comma-separated)")
	cmd.Flags().StringP("output", "o", "", "Report CSV path (default <report dir>/bitrate_report.csv)")
	cmd.Flags().Int("workers", 0, "Worker pool size (0 selects one per CPU core)")
	_ = cmd.MarkFlagRequired("input")
	cmdRoot.AddCommand(cmd)
}

func runBitrate(cmd *cobra.Command, _ []string) error {
	roots, _ := cmd.Flags().GetStringSlice("input")
	output, _ := cmd.Flags().GetString("output")
	workers, _ := cmd.Flags().GetInt("workers")
	if output == "" {
		output = filepath.Join(cfg.Report.Directory, "bitrate_report.csv")
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

	stats := quality.Analyze(result.Records)

	writer := report.New(logger)
	writer.LogStats(stats)
	for _, failure := range result.Failures {
		logger.WithFields(logrus.Fields{
			"path":   failure.Path,
			"stage":  failure.Stage,
			"reason": failure.Reason,
		}).Warn("File skipped")
	}
	return writer.WriteBitrateCSV(output, result.Records, stats)
}
