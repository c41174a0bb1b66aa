// Package mover executes a finished resolution plan. It runs strictly
// after planning, sequentially, so an aborted run never leaves partial
// per-group state; individual filesystem failures are reported per file
// and never roll back moves that already succeeded.
package mover

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fermata/pkg/models"
)

// Outcome records the fate of one planned move.
type Outcome struct {
	Source      string
	Destination string
	Err         error
}

// Mover relocates discarded duplicates into the output directory,
// preserving each file's subpath relative to its scan root.
type Mover struct {
	outputDir string
	roots     []string
	logger    *logrus.Logger
}

// New creates a mover for the given output directory and scan roots.
func New(outputDir string, roots []string, logger *logrus.Logger) *Mover {
	return &Mover{outputDir: outputDir, roots: roots, logger: logger}
}

// Execute performs every planned move. All failures are per-file; the
// returned outcomes cover the full plan exactly once each.
func (m *Mover) Execute(resolutions []models.Resolution) []Outcome {
	var outcomes []Outcome
	for _, res := range resolutions {
		for _, move := range res.Moves {
			outcome := m.moveOne(move.Path)
			if outcome.Err != nil {
				m.logger.WithError(outcome.Err).WithField("path", move.Path).Error("Move failed")
			} else {
				m.logger.WithFields(logrus.Fields{
					"from": outcome.Source,
					"to":   outcome.Destination,
				}).Info("Moved duplicate")
			}
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

func (m *Mover) moveOne(source string) Outcome {
	dest := filepath.Join(m.outputDir, m.relativePath(source))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Outcome{Source: source, Err: fmt.Errorf("failed to create destination directory: %w", err)}
	}
	dest, err := resolveCollision(dest)
	if err != nil {
		return Outcome{Source: source, Err: err}
	}
	if err := moveOrCopy(source, dest); err != nil {
		os.Remove(dest) // release the claimed name
		return Outcome{Source: source, Err: err}
	}
	return Outcome{Source: source, Destination: dest}
}

// relativePath finds the file's subpath under whichever scan root
// contains it, falling back to the bare filename.
func (m *Mover) relativePath(path string) string {
	for _, root := range m.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Base(path)
}

// resolveCollision claims a free destination name, appending a
// _duplicate_N suffix while the name is taken. The name is reserved
// with an O_EXCL placeholder so a concurrent run cannot pick the same
// one; the later rename replaces the placeholder.
func resolveCollision(dest string) (string, error) {
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for counter := 0; ; counter++ {
		candidate := dest
		if counter > 0 {
			candidate = fmt.Sprintf("%s_duplicate_%d%s", stem, counter, ext)
		}
		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			f.Close()
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to reserve destination: %w", err)
		}
	}
}

// moveOrCopy renames when possible and falls back to copy-then-remove
// for cross-device destinations.
func moveOrCopy(source, dest string) error {
	if err := os.Rename(source, dest); err == nil {
		return nil
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	staging := filepath.Join(filepath.Dir(dest), "."+uuid.NewString()+".tmp")
	out, err := os.Create(staging)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(staging)
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to flush destination: %w", err)
	}
	if err := os.Rename(staging, dest); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to finalize destination: %w", err)
	}
	return os.Remove(source)
}
