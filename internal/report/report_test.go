package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"fermata/internal/quality"
	"fermata/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func sampleResolution() models.Resolution {
	keeper := models.ScanRecord{
		Index: 0,
		Path:  "/music/track.flac",
		Properties: models.AudioProperties{
			Format: models.FormatFLAC, BitrateKbps: 1000,
		},
	}
	dup := models.ScanRecord{
		Index: 1,
		Path:  "/music/old/track.mp3",
		Properties: models.AudioProperties{
			Format: models.FormatMP3, BitrateKbps: 320,
		},
	}
	return models.Resolution{
		Group:  models.DuplicateGroup{Members: []models.ScanRecord{keeper, dup}},
		Keeper: keeper,
		Moves: []models.MoveDecision{
			{Path: dup.Path, Reason: "format difference: FLAC outranks MP3"},
		},
	}
}

func TestWriteDuplicateCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "duplicates.csv")
	writer := New(testLogger())

	if err := writer.WriteDuplicateCSV(path, []models.Resolution{sampleResolution()}); err != nil {
		t.Fatalf("WriteDuplicateCSV: %v", err)
	}

	rows := readCSV(t, path)
	if rows[0][0] != "Keeper" || rows[0][3] != "Duplicate" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	move := rows[1]
	if move[0] != "/music/track.flac" || move[1] != "FLAC" || move[2] != "1000" {
		t.Errorf("unexpected keeper columns: %v", move)
	}
	if move[3] != "/music/old/track.mp3" || move[4] != "MP3" || move[5] != "320" {
		t.Errorf("unexpected duplicate columns: %v", move)
	}

	var foundGroups, foundMoves bool
	for _, row := range rows {
		if row[0] == "Duplicate Groups" && row[1] == "1" {
			foundGroups = true
		}
		if row[0] == "Planned Moves" && row[1] == "1" {
			foundMoves = true
		}
	}
	if !foundGroups || !foundMoves {
		t.Errorf("summary block incomplete: %v", rows)
	}
}

func TestWriteBitrateCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bitrate.csv")
	records := []models.ScanRecord{
		{Path: "/music/a.flac", Properties: models.AudioProperties{Format: models.FormatFLAC, BitrateKbps: 1000}},
		{Path: "/music/b.mp3", Properties: models.AudioProperties{Format: models.FormatMP3, BitrateKbps: 320}},
	}
	stats := quality.Analyze(records)
	writer := New(testLogger())

	if err := writer.WriteBitrateCSV(path, records, stats); err != nil {
		t.Fatalf("WriteBitrateCSV: %v", err)
	}

	rows := readCSV(t, path)
	if rows[0][0] != "Path" || rows[0][3] != "Tier" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][3] != quality.TierLossless.String() {
		t.Errorf("FLAC tier = %q", rows[1][3])
	}
	if rows[2][3] != quality.TierHigh.String() {
		t.Errorf("MP3 tier = %q", rows[2][3])
	}

	var foundTotal bool
	for _, row := range rows {
		if row[0] == "Total Files" && row[1] == "2" {
			foundTotal = true
		}
	}
	if !foundTotal {
		t.Errorf("summary block missing totals: %v", rows)
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	a := New(testLogger())
	b := New(testLogger())
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("run IDs not unique: %q vs %q", a.RunID(), b.RunID())
	}
}
