package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"fermata/internal/probe"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testScanner(t *testing.T, workers int) *Scanner {
	t.Helper()
	prober := probe.New([]string{".flac", ".mp3"}, nil, testLogger())
	return New(prober, workers, testLogger())
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestEnumerate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "Artist - One.mp3"))
	writeFile(t, filepath.Join(root, "a", "cover.jpg"))
	writeFile(t, filepath.Join(root, "b", "Artist - Two.flac"))
	writeFile(t, filepath.Join(root, "notes.txt"))

	paths, err := testScanner(t, 1).Enumerate([]string{root})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	want := []string{
		filepath.Join(root, "a", "Artist - One.mp3"),
		filepath.Join(root, "b", "Artist - Two.flac"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths, want %d: %v", len(paths), len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestEnumerateMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := testScanner(t, 1).Enumerate([]string{missing}); err == nil {
		t.Error("expected error for unreadable scan root")
	}
}

func TestScanRecordsFailuresPerFile(t *testing.T) {
	root := t.TempDir()
	paths := []string{
		filepath.Join(root, "Artist - One.mp3"),
		filepath.Join(root, "Artist - Two.mp3"),
		filepath.Join(root, "Artist - Three.mp3"),
	}
	for _, path := range paths {
		writeFile(t, path)
	}

	result, err := testScanner(t, 4).Scan(context.Background(), paths)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Garbage bytes never decode as MP3; every file lands in failures,
	// sorted back into discovery order despite concurrent probing.
	if len(result.Records) != 0 {
		t.Errorf("got %d records, want 0", len(result.Records))
	}
	if len(result.Failures) != len(paths) {
		t.Fatalf("got %d failures, want %d", len(result.Failures), len(paths))
	}
	for i, failure := range result.Failures {
		if failure.Index != i {
			t.Errorf("failures[%d].Index = %d, want %d", i, failure.Index, i)
		}
		if failure.Stage != "probe" {
			t.Errorf("failures[%d].Stage = %q, want %q", i, failure.Stage, "probe")
		}
	}
}

func TestScanCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := t.TempDir()
	path := filepath.Join(root, "Artist - One.mp3")
	writeFile(t, path)

	if _, err := testScanner(t, 2).Scan(ctx, []string{path}); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestScanEmptyInput(t *testing.T) {
	result, err := testScanner(t, 2).Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Records) != 0 || len(result.Failures) != 0 {
		t.Errorf("empty scan produced output: %+v", result)
	}
}
