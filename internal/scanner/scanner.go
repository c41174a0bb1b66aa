// Package scanner fans probing and parsing out across a bounded worker
// pool and collects results deterministically regardless of completion
// order. Per-file failures are recorded, never fatal; only failing to
// list a scan root aborts a run.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/arunsworld/nursery"
	"github.com/sirupsen/logrus"

	"fermata/internal/identity"
	"fermata/internal/probe"
	"fermata/internal/titleparse"
	"fermata/pkg/models"
)

const progressInterval = 100

// Scanner orchestrates one scan over an enumerated file list.
type Scanner struct {
	prober  *probe.Prober
	workers int
	logger  *logrus.Logger
}

// Result is the collected outcome of a scan. Records and Failures are
// sorted by discovery index; every discovered file lands in exactly one
// of the two.
type Result struct {
	Records  []models.ScanRecord
	Failures []models.ScanFailure
}

// New builds a scanner; workers <= 0 selects one worker per CPU core.
func New(prober *probe.Prober, workers int, logger *logrus.Logger) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{prober: prober, workers: workers, logger: logger}
}

// Enumerate walks the given roots in order and returns the supported
// audio file paths in directory-traversal order. A root that cannot be
// listed fails the whole run before any per-file work begins; errors on
// entries inside a readable root are logged and skipped.
func (s *Scanner) Enumerate(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return fmt.Errorf("cannot list scan root %s: %w", root, err)
				}
				s.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable entry")
				return nil
			}
			if !d.IsDir() && s.prober.IsAudioFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

type scanJob struct {
	index int
	path  string
}

type scanOutcome struct {
	record  *models.ScanRecord
	failure *models.ScanFailure
}

// Scan probes and parses every path concurrently, then re-sorts by the
// original discovery index so grouping tie-breaks are reproducible.
func (s *Scanner) Scan(ctx context.Context, paths []string) (Result, error) {
	jobs := make(chan scanJob)
	outcomes := make(chan scanOutcome)

	var result Result
	var processed int64

	err := nursery.RunConcurrentlyWithContext(
		ctx,
		func(ctx context.Context, _ chan error) {
			defer close(jobs)
			for i, path := range paths {
				select {
				case <-ctx.Done():
					return
				case jobs <- scanJob{index: i, path: path}:
				}
			}
		},
		func(ctx context.Context, _ chan error) {
			defer close(outcomes)
			nursery.RunMultipleCopiesConcurrentlyWithContext(ctx, s.workers,
				func(ctx context.Context, _ chan error) {
					for job := range jobs {
						select {
						case <-ctx.Done():
							return
						case outcomes <- s.process(job):
						}
						if n := atomic.AddInt64(&processed, 1); n%progressInterval == 0 {
							s.logger.WithFields(logrus.Fields{
								"processed": n,
								"total":     len(paths),
							}).Info("Scan progress")
						}
					}
				})
		},
		func(ctx context.Context, _ chan error) {
			for outcome := range outcomes {
				if outcome.record != nil {
					result.Records = append(result.Records, *outcome.record)
				}
				if outcome.failure != nil {
					result.Failures = append(result.Failures, *outcome.failure)
				}
			}
		},
	)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		// Aborted between batches: discard partial results cleanly.
		return Result{}, err
	}

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].Index < result.Records[j].Index
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Index < result.Failures[j].Index
	})

	s.logger.WithFields(logrus.Fields{
		"files":    len(paths),
		"scanned":  len(result.Records),
		"failures": len(result.Failures),
		"workers":  s.workers,
	}).Info("Scan complete")
	return result, nil
}

// process runs one file through the probe → parse → normalize stages.
// The first failing stage decides the terminal state.
func (s *Scanner) process(job scanJob) scanOutcome {
	props, err := s.prober.Probe(job.path)
	if err != nil {
		s.logger.WithError(err).WithField("path", job.path).Warn("Probe failed")
		return scanOutcome{failure: &models.ScanFailure{
			Index:  job.index,
			Path:   job.path,
			Stage:  "probe",
			Reason: err.Error(),
		}}
	}

	name := strings.TrimSuffix(filepath.Base(job.path), filepath.Ext(job.path))
	id, err := titleparse.Parse(name)
	if err != nil {
		s.logger.WithError(err).WithField("path", job.path).Warn("Parse failed")
		return scanOutcome{failure: &models.ScanFailure{
			Index:  job.index,
			Path:   job.path,
			Stage:  "parse",
			Reason: err.Error(),
		}}
	}

	return scanOutcome{record: &models.ScanRecord{
		Index:      job.index,
		Path:       job.path,
		Identity:   id,
		Key:        identity.Normalize(id),
		Properties: props,
	}}
}
