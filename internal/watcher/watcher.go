package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"github.com/fleetglass/fleetglass/internal/metrics"
	"github.com/fleetglass/fleetglass/internal/store"
	"github.com/fleetglass/fleetglass/internal/telemetry"
)

const (
	// debounceDelay is how long a reload waits after recording the new
	// modification time, so a writer still mid-write can finish.
	debounceDelay = 50 * time.Millisecond

	// Restart backoff bounds for a watch loop that keeps dying.
	backoffMin = 100 * time.Millisecond
	backoffMax = 5 * time.Second

	// healthyRun is how long a watch loop must survive for the restart
	// backoff to reset.
	healthyRun = time.Minute
)

// Watcher watches one telemetry file and publishes every distinct change
// into the store.
type Watcher struct {
	path  string // absolute path of the telemetry file
	dir   string
	store *store.Store
	clock clockwork.Clock

	debounce time.Duration
}

// New creates a Watcher for the telemetry file at path, publishing into st.
func New(path string, st *store.Store, clock clockwork.Clock) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve %q: %w", path, err)
	}
	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		store:    st,
		clock:    clock,
		debounce: debounceDelay,
	}, nil
}

// Path returns the absolute path of the watched telemetry file.
func (w *Watcher) Path() string { return w.path }

// Run watches the telemetry file until ctx is cancelled, publishing the file
// once at startup if it already exists. A dead watch loop is restarted
// indefinitely with bounded exponential backoff; nothing here is fatal to
// the process.
func (w *Watcher) Run(ctx context.Context) {
	initial := true
	backoff := backoffMin
	for {
		started := w.clock.Now()
		err := w.watch(ctx, initial)
		initial = false
		if ctx.Err() != nil {
			return
		}
		if w.clock.Since(started) >= healthyRun {
			backoff = backoffMin
		}

		slog.Warn("watcher: watch loop stopped, restarting",
			"err", err, "backoff", backoff)
		metrics.WatcherRestarts.Inc()

		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(backoff):
		}
		backoff *= 2
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

// watch runs one fsnotify session over the telemetry directory. It returns
// when the watcher dies (closed event or error channel) or ctx is cancelled;
// the caller decides whether to restart.
func (w *Watcher) watch(ctx context.Context, initial bool) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %q: %w", w.dir, err)
	}

	slog.Info("watcher: watching", "path", w.path)

	// Read the file only once the watch is established, so a write landing
	// in between is either read here or produces an event — never missed.
	// The startup read publishes unconditionally; after a restart the mtime
	// check skips content already published before the watcher died.
	w.reload(initial)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("event channel closed")
			}
			if !w.matches(event) {
				continue
			}
			w.reload(false)

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("error channel closed")
			}
			slog.Error("watcher: fsnotify error", "err", err)
		}
	}
}

// matches reports whether event is a content change of the target file.
// The export mod writes via truncate-and-write, editors save via rename, so
// both Write and Create count.
func (w *Watcher) matches(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

// reload re-reads the telemetry file and publishes the result. Duplicate OS
// notifications for a single write are coalesced by modification time; the
// initial load at startup skips that check. Every failure path leaves the
// store untouched.
func (w *Watcher) reload(initial bool) {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Debug("watcher: stat failed, skipping reload", "err", err)
		return
	}
	if !initial && info.ModTime().Equal(w.store.FileModTime()) {
		return
	}
	// Record the mtime before the debounce pause so a second notification
	// for the same write does not start a second reload.
	w.store.SetFileModTime(info.ModTime())

	w.clock.Sleep(w.debounce)

	raw, err := os.ReadFile(w.path)
	if err != nil {
		slog.Debug("watcher: read failed, skipping reload", "err", err)
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		// Writer truncated the file and has not written new content yet.
		return
	}

	snap, frame, err := telemetry.Decode(raw, w.clock.Now())
	if err != nil {
		slog.Warn("watcher: discarding malformed telemetry", "err", err)
		metrics.DecodeFailures.Inc()
		return
	}

	w.store.Update(snap, frame)
	slog.Info("watcher: snapshot updated",
		"vehicles", len(snap.Vehicles()),
		"lines", len(snap.Lines()),
		"stations", len(snap.Stations()),
	)
}
