package mover

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"fermata/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func planFor(paths ...string) []models.Resolution {
	moves := make([]models.MoveDecision, 0, len(paths))
	for _, path := range paths {
		moves = append(moves, models.MoveDecision{Path: path, Reason: "duplicate"})
	}
	return []models.Resolution{{Moves: moves}}
}

func TestExecutePreservesRelativePath(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	source := filepath.Join(root, "albums", "artist", "track.mp3")
	writeFile(t, source, "audio")

	outcomes := New(out, []string{root}, testLogger()).Execute(planFor(source))

	if len(outcomes) != 1 || outcomes[0].Err != nil {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	dest := filepath.Join(out, "albums", "artist", "track.mp3")
	if outcomes[0].Destination != dest {
		t.Errorf("destination = %q, want %q", outcomes[0].Destination, dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("source still present: %v", err)
	}
}

func TestExecuteRenamesOnCollision(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	mover := New(out, []string{root}, testLogger())

	source := filepath.Join(root, "track.mp3")

	writeFile(t, source, "first")
	if outcomes := mover.Execute(planFor(source)); outcomes[0].Err != nil {
		t.Fatalf("first move: %v", outcomes[0].Err)
	}

	writeFile(t, source, "second")
	outcomes := mover.Execute(planFor(source))
	if outcomes[0].Err != nil {
		t.Fatalf("second move: %v", outcomes[0].Err)
	}

	want := filepath.Join(out, "track_duplicate_1.mp3")
	if outcomes[0].Destination != want {
		t.Errorf("collision destination = %q, want %q", outcomes[0].Destination, want)
	}
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "second" {
		t.Errorf("collision file content = %q", content)
	}
	original, err := os.ReadFile(filepath.Join(out, "track.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if string(original) != "first" {
		t.Errorf("original file was overwritten: %q", original)
	}
}

func TestExecuteReportsPerFileFailures(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()

	good := filepath.Join(root, "good.mp3")
	writeFile(t, good, "audio")
	missing := filepath.Join(root, "missing.mp3")

	outcomes := New(out, []string{root}, testLogger()).Execute(planFor(missing, good))

	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if outcomes[0].Err == nil {
		t.Error("expected error for missing source")
	}
	if outcomes[1].Err != nil {
		t.Errorf("good move failed: %v", outcomes[1].Err)
	}
	if _, err := os.Stat(filepath.Join(out, "good.mp3")); err != nil {
		t.Errorf("good move did not land: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "missing.mp3")); !os.IsNotExist(err) {
		t.Error("failed move left a reserved destination behind")
	}
}

func TestExecuteNeverOverwritesExistingDestination(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()

	// A file another process already placed at the planned destination.
	occupied := filepath.Join(out, "track.mp3")
	writeFile(t, occupied, "already there")

	source := filepath.Join(root, "track.mp3")
	writeFile(t, source, "incoming")

	outcomes := New(out, []string{root}, testLogger()).Execute(planFor(source))
	if outcomes[0].Err != nil {
		t.Fatalf("move failed: %v", outcomes[0].Err)
	}

	want := filepath.Join(out, "track_duplicate_1.mp3")
	if outcomes[0].Destination != want {
		t.Errorf("destination = %q, want %q", outcomes[0].Destination, want)
	}
	content, err := os.ReadFile(occupied)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "already there" {
		t.Errorf("pre-existing file was overwritten: %q", content)
	}
	moved, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(moved) != "incoming" {
		t.Errorf("moved content = %q", moved)
	}
}

func TestRelativePathFallsBackToBase(t *testing.T) {
	out := t.TempDir()
	m := New(out, []string{filepath.Join(t.TempDir(), "library")}, testLogger())

	if got := m.relativePath("/elsewhere/track.mp3"); got != "track.mp3" {
		t.Errorf("relativePath = %q, want %q", got, "track.mp3")
	}
}
