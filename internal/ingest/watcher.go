package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/snarg/autoscribe/internal/metrics"
)

// Watcher subscribes to filesystem creation events for the input directory
// (non-recursively) and hands matching files to the Processor. It holds no
// per-file state itself; de-duplication lives in the processor.
type Watcher struct {
	proc *Processor
	dir  string
	ext  string // normalized: lowercase, leading dot
	log  zerolog.Logger

	detected atomic.Int64
	ignored  atomic.Int64
	status   atomic.Value // string: "starting", "watching", "stopped"
}

// WatcherStatus is a snapshot for the health/status endpoints.
type WatcherStatus struct {
	Status        string `json:"status"`
	WatchDir      string `json:"watch_dir"`
	FilesDetected int64  `json:"files_detected"`
	FilesIgnored  int64  `json:"files_ignored"`
}

// NewWatcher creates a directory watcher feeding the given processor.
func NewWatcher(proc *Processor, dir, ext string, log zerolog.Logger) *Watcher {
	w := &Watcher{
		proc: proc,
		dir:  dir,
		ext:  strings.ToLower(ext),
		log:  log.With().Str("component", "watcher").Logger(),
	}
	w.status.Store("starting")
	return w
}

// Status returns the current watcher state.
func (w *Watcher) Status() WatcherStatus {
	s, _ := w.status.Load().(string)
	return WatcherStatus{
		Status:        s,
		WatchDir:      w.dir,
		FilesDetected: w.detected.Load(),
		FilesIgnored:  w.ignored.Load(),
	}
}

// Run watches until ctx is cancelled. Each qualifying file is processed
// synchronously within the event loop; an in-flight file therefore runs to
// completion even after cancellation, and Run returns once the watcher
// subscription is closed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	w.status.Store("watching")
	w.log.Info().Str("watch_dir", w.dir).Str("ext", w.ext).Msg("watching for new recordings")

	// In-flight processing must outlive a shutdown signal; only the event
	// loop itself stops on cancellation.
	workCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			w.status.Store("stopped")
			w.log.Info().
				Int64("files_detected", w.detected.Load()).
				Int64("files_ignored", w.ignored.Load()).
				Msg("watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				w.status.Store("stopped")
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.qualifies(event.Name) {
				continue
			}

			w.detected.Add(1)
			metrics.FilesDetectedTotal.Inc()
			w.log.Info().Str("path", event.Name).Msg("new recording detected")
			w.proc.Dispatch(workCtx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				w.status.Store("stopped")
				return nil
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// qualifies filters creation events down to regular files with the
// configured audio extension (case-insensitive).
func (w *Watcher) qualifies(path string) bool {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return false
	}
	if strings.ToLower(filepath.Ext(path)) != w.ext {
		w.ignored.Add(1)
		metrics.FilesIgnoredTotal.Inc()
		return false
	}
	return true
}
