// Package watch re-runs the duplicate analysis whenever the collection
// changes on disk. Watch mode only reports; it never executes moves.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// settleDelay batches bursts of filesystem events (e.g. a file still
// being written) into one rescan.
const settleDelay = 500 * time.Millisecond

// Watcher monitors scan roots recursively and triggers rescans.
type Watcher struct {
	roots   []string
	isAudio func(string) bool
	logger  *logrus.Logger
}

// New builds a watcher over the given roots; isAudio filters events down
// to supported audio files.
func New(roots []string, isAudio func(string) bool, logger *logrus.Logger) *Watcher {
	return &Watcher{roots: roots, isAudio: isAudio, logger: logger}
}

// Run watches until the context is cancelled, invoking rescan after each
// settled batch of relevant events. The initial rescan runs immediately.
func (w *Watcher) Run(ctx context.Context, rescan func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range w.roots {
		if err := addRecursive(watcher, root); err != nil {
			return err
		}
	}
	w.logger.WithField("roots", strings.Join(w.roots, ", ")).Info("File watcher started")

	rescan()

	settle := time.NewTimer(settleDelay)
	if !settle.Stop() {
		<-settle.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(watcher, event) {
				settle.Reset(settleDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("File watcher error")

		case <-settle.C:
			w.logger.Info("Collection changed; rescanning")
			rescan()
		}
	}
}

// handleEvent reports whether the event should trigger a rescan. New
// directories are added to the watch set as they appear.
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	// Ignore temporary files and hidden files
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				w.logger.WithError(err).WithField("directory", event.Name).Warn("Failed to watch new directory")
			}
			return false
		}
	}

	relevant := event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)
	return relevant && w.isAudio(event.Name)
}

// addRecursive walks dir and registers every subdirectory.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
