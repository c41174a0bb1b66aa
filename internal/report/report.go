// Package report renders scan outcomes: CSV files for the duplicate plan
// and the bitrate tier table, plus console summaries. Writers only ever
// consume finished plans; they never influence resolution.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fermata/internal/quality"
	"fermata/pkg/models"
)

// Writer produces reports for one run, stamped with a fresh run ID.
type Writer struct {
	runID  string
	logger *logrus.Logger
}

// New creates a report writer with a unique run ID.
func New(logger *logrus.Logger) *Writer {
	return &Writer{runID: uuid.NewString(), logger: logger}
}

// RunID returns the identifier stamped into this run's reports.
func (w *Writer) RunID() string { return w.runID }

// tierOrder is the rendering order for distribution tables, best first.
var tierOrder = []quality.Tier{
	quality.TierHighRes,
	quality.TierLossless,
	quality.TierHigh,
	quality.TierStandard,
	quality.TierLow,
	quality.TierUnclassified,
}

// WriteDuplicateCSV writes one row per planned move, followed by a
// summary block.
func (w *Writer) WriteDuplicateCSV(path string, resolutions []models.Resolution) error {
	file, err := createReportFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{
		"Keeper", "Keeper Format", "Keeper Bitrate (kbps)",
		"Duplicate", "Duplicate Format", "Duplicate Bitrate (kbps)", "Reason",
	}); err != nil {
		return err
	}

	moves := 0
	for _, res := range resolutions {
		byPath := make(map[string]models.ScanRecord, len(res.Group.Members))
		for _, member := range res.Group.Members {
			byPath[member.Path] = member
		}
		for _, move := range res.Moves {
			dup := byPath[move.Path]
			if err := cw.Write([]string{
				res.Keeper.Path,
				res.Keeper.Properties.Format.String(),
				strconv.Itoa(res.Keeper.Properties.BitrateKbps),
				move.Path,
				dup.Properties.Format.String(),
				strconv.Itoa(dup.Properties.BitrateKbps),
				move.Reason,
			}); err != nil {
				return err
			}
			moves++
		}
	}

	summary := [][]string{
		{"", "", "", "", "", "", ""},
		{"Summary", "", "", "", "", "", ""},
		{"Run ID", w.runID, "", "", "", "", ""},
		{"Duplicate Groups", strconv.Itoa(len(resolutions)), "", "", "", "", ""},
		{"Planned Moves", strconv.Itoa(moves), "", "", "", "", ""},
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	w.logger.WithField("path", path).Info("Duplicate report written")
	return nil
}

// WriteBitrateCSV writes one row per probed file plus the aggregate
// distribution and min/avg/max summary.
func (w *Writer) WriteBitrateCSV(path string, records []models.ScanRecord, stats quality.Stats) error {
	file, err := createReportFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"Path", "Format", "Bitrate (kbps)", "Tier"}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{
			rec.Path,
			rec.Properties.Format.String(),
			strconv.Itoa(rec.Properties.BitrateKbps),
			quality.TierFor(rec.Properties.BitrateKbps).String(),
		}); err != nil {
			return err
		}
	}

	rows := [][]string{
		{"", "", "", ""},
		{"Summary", "", "", ""},
		{"Run ID", w.runID, "", ""},
		{"Total Files", strconv.Itoa(stats.FileCount), "", ""},
		{"Files With Valid Bitrate", strconv.Itoa(stats.Classified), "", ""},
		{"Average Bitrate", fmt.Sprintf("%.1f kbps", stats.AverageBitrate), "", ""},
		{"Min Bitrate", fmt.Sprintf("%d kbps", stats.MinBitrate), "", ""},
		{"Max Bitrate", fmt.Sprintf("%d kbps", stats.MaxBitrate), "", ""},
	}
	for _, tier := range tierOrder {
		count := stats.Distribution[tier]
		if count == 0 {
			continue
		}
		percentage := float64(count) / float64(stats.FileCount) * 100
		rows = append(rows, []string{tier.String(), strconv.Itoa(count), fmt.Sprintf("%.1f%%", percentage), ""})
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	w.logger.WithField("path", path).Info("Bitrate report written")
	return nil
}

// LogPlan prints the resolution plan. The rendered plan is the same with
// and without dry-run; only the later execution step differs.
func (w *Writer) LogPlan(resolutions []models.Resolution, failures []models.ScanFailure, dryRun bool) {
	for _, res := range resolutions {
		w.logger.WithFields(logrus.Fields{
			"keeper":  res.Keeper.Path,
			"format":  res.Keeper.Properties.Format.String(),
			"bitrate": res.Keeper.Properties.BitrateKbps,
			"members": len(res.Group.Members),
		}).Info("Duplicate group")
		for _, move := range res.Moves {
			w.logger.WithFields(logrus.Fields{
				"path":   move.Path,
				"reason": move.Reason,
			}).Info("Planned move")
		}
	}
	for _, failure := range failures {
		w.logger.WithFields(logrus.Fields{
			"path":   failure.Path,
			"stage":  failure.Stage,
			"reason": failure.Reason,
		}).Warn("File skipped")
	}
	if dryRun {
		w.logger.WithField("groups", len(resolutions)).Info("Dry run - no files will be moved")
	}
}

// LogStats prints the bitrate-mode aggregate summary.
func (w *Writer) LogStats(stats quality.Stats) {
	w.logger.WithFields(logrus.Fields{
		"total_files":   stats.FileCount,
		"valid_bitrate": stats.Classified,
		"avg_kbps":      fmt.Sprintf("%.1f", stats.AverageBitrate),
		"min_kbps":      stats.MinBitrate,
		"max_kbps":      stats.MaxBitrate,
	}).Info("Bitrate analysis summary")
	for _, tier := range tierOrder {
		count := stats.Distribution[tier]
		if count == 0 {
			continue
		}
		percentage := float64(count) / float64(stats.FileCount) * 100
		w.logger.WithFields(logrus.Fields{
			"tier":       tier.String(),
			"files":      count,
			"percentage": fmt.Sprintf("%.1f%%", percentage),
		}).Info("Tier distribution")
	}
}

func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return file, nil
}
