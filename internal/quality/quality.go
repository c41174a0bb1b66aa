// Package quality ranks probed audio files and classifies bitrates into
// the fixed reporting tiers. Everything here is a pure transformation of
// already-measured properties.
package quality

import (
	"fmt"

	"fermata/pkg/models"
)

// Score is the ranking tuple for one file. Comparison is a total order:
// lossless beats lossy regardless of bitrate, then higher bitrate, then
// larger file. An unknown bitrate ranks as 0 but the file stays in play.
type Score struct {
	Lossless      bool
	BitrateKbps   int
	FileSizeBytes int64
}

// Profile derives the ranking tuple from probed properties.
func Profile(p models.AudioProperties) Score {
	return Score{
		Lossless:      p.Format.Lossless(),
		BitrateKbps:   p.BitrateKbps,
		FileSizeBytes: p.FileSizeBytes,
	}
}

// Compare returns +1 when a outranks b, -1 when b outranks a, 0 on a
// full tie. Callers break full ties by original scan order.
func Compare(a, b Score) int {
	if a.Lossless != b.Lossless {
		if a.Lossless {
			return 1
		}
		return -1
	}
	if a.BitrateKbps != b.BitrateKbps {
		if a.BitrateKbps > b.BitrateKbps {
			return 1
		}
		return -1
	}
	if a.FileSizeBytes != b.FileSizeBytes {
		if a.FileSizeBytes > b.FileSizeBytes {
			return 1
		}
		return -1
	}
	return 0
}

// Explain names the dimension that decided winner over loser, with format
// taking precedence over bitrate over size.
func Explain(winner, loser models.AudioProperties) string {
	switch {
	case winner.Format.Lossless() != loser.Format.Lossless():
		return fmt.Sprintf("format difference: %s outranks %s", winner.Format, loser.Format)
	case winner.BitrateKbps != loser.BitrateKbps:
		return fmt.Sprintf("bitrate difference: %d vs %d kbps", winner.BitrateKbps, loser.BitrateKbps)
	case winner.FileSizeBytes != loser.FileSizeBytes:
		return fmt.Sprintf("size difference: %.2f MB vs %.2f MB",
			float64(winner.FileSizeBytes)/1048576.0, float64(loser.FileSizeBytes)/1048576.0)
	default:
		return "identical quality; kept first-scanned copy"
	}
}

// Tier is one of the fixed bitrate bands used for reporting.
type Tier int

const (
	TierUnclassified Tier = iota
	TierLow
	TierStandard
	TierHigh
	TierLossless
	TierHighRes
)

func (t Tier) String() string {
	switch t {
	case TierHighRes:
		return "High-Resolution (1500+ kbps)"
	case TierLossless:
		return "Lossless (700-1499 kbps)"
	case TierHigh:
		return "High Bitrate (256-400 kbps)"
	case TierStandard:
		return "Standard Bitrate (160-255 kbps)"
	case TierLow:
		return "Low Bitrate (64-159 kbps)"
	default:
		return "Unclassified"
	}
}

// TierFor maps a measured bitrate onto its band. Bitrates outside every
// band, including unknown (0), are Unclassified rather than dropped.
func TierFor(bitrateKbps int) Tier {
	switch {
	case bitrateKbps >= 1500:
		return TierHighRes
	case bitrateKbps >= 700:
		return TierLossless
	case bitrateKbps >= 256 && bitrateKbps <= 400:
		return TierHigh
	case bitrateKbps >= 160 && bitrateKbps <= 255:
		return TierStandard
	case bitrateKbps >= 64 && bitrateKbps <= 159:
		return TierLow
	default:
		return TierUnclassified
	}
}

// Stats aggregates the bitrate-mode summary over one scan.
type Stats struct {
	FileCount      int
	Classified     int
	Distribution   map[Tier]int
	AverageBitrate float64
	MinBitrate     int
	MaxBitrate     int
}

// Analyze builds tier distribution and min/avg/max over all probed files.
// Files with unknown bitrate count toward the Unclassified tier but are
// excluded from the average and extrema.
func Analyze(records []models.ScanRecord) Stats {
	stats := Stats{
		FileCount:    len(records),
		Distribution: make(map[Tier]int),
	}

	total := 0
	for _, rec := range records {
		kbps := rec.Properties.BitrateKbps
		stats.Distribution[TierFor(kbps)]++
		if kbps <= 0 {
			continue
		}
		total += kbps
		stats.Classified++
		if stats.MinBitrate == 0 || kbps < stats.MinBitrate {
			stats.MinBitrate = kbps
		}
		if kbps > stats.MaxBitrate {
			stats.MaxBitrate = kbps
		}
	}
	if stats.Classified > 0 {
		stats.AverageBitrate = float64(total) / float64(stats.Classified)
	}
	return stats
}
