// Package watch implements the file-watch re-trigger loop: a fixed set of
// path groups, each with a declared task sequence that re-runs when a file
// under the group changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bookforge/bookforge/internal/metrics"
	"github.com/bookforge/bookforge/internal/observability"
)

// Sequence binds a group of watched paths to the task run re-triggered by
// changes under them. Paths may be files or directories; directories are
// watched recursively.
type Sequence struct {
	Group string
	Paths []string
	Run   func(ctx context.Context) error
}

// Watcher drives the re-trigger loop. Overlap policy: while a group's
// sequence is running, new events for that group coalesce into exactly one
// queued follow-up run; events for other groups are unaffected.
type Watcher struct {
	debounce time.Duration
	recorder metrics.Recorder
	states   []*groupState
}

type groupState struct {
	seq Sequence

	mu    sync.Mutex
	timer *time.Timer
	req   chan struct{}
}

// New creates a watcher with the given debounce window.
func New(debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{debounce: debounce, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (NoopRecorder by default).
func (w *Watcher) WithRecorder(rec metrics.Recorder) *Watcher {
	if rec != nil {
		w.recorder = rec
	}
	return w
}

// Watch blocks, observing the sequences' paths until ctx is cancelled.
// A failing sequence is logged and the loop keeps watching: interactive
// preview must survive broken intermediate states.
func (w *Watcher) Watch(ctx context.Context, sequences []Sequence) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	w.init(ctx, sequences)
	for _, st := range w.states {
		for _, path := range st.seq.Paths {
			if err := addRecursive(fsw, path); err != nil {
				slog.Warn("Cannot watch path", "group", st.seq.Group, "path", path, "error", err)
			}
		}
	}

	slog.Info("Watching for changes", "groups", len(sequences), "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// init creates group state and starts the per-group workers.
func (w *Watcher) init(ctx context.Context, sequences []Sequence) {
	w.states = make([]*groupState, 0, len(sequences))
	for _, seq := range sequences {
		st := &groupState{seq: seq, req: make(chan struct{}, 1)}
		w.states = append(w.states, st)
		w.startWorker(ctx, st)
	}
}

// handleEvent routes one filesystem event to its group and keeps new
// directories under watch.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			_ = addRecursive(fsw, ev.Name)
		}
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.Dispatch(ev.Name)
}

// Dispatch triggers the (first) group owning path, after the debounce
// window. Events with no owning group are ignored.
func (w *Watcher) Dispatch(path string) {
	st := w.route(path)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(w.debounce, func() {
		select {
		case st.req <- struct{}{}:
		default:
		}
	})
}

// route returns the group state owning path, matching group paths as equal
// files or ancestor directories.
func (w *Watcher) route(path string) *groupState {
	clean := filepath.Clean(path)
	for _, st := range w.states {
		for _, p := range st.seq.Paths {
			gp := filepath.Clean(p)
			if clean == gp || strings.HasPrefix(clean, gp+string(filepath.Separator)) {
				return st
			}
		}
	}
	return nil
}

// startWorker runs one group's sequence requests. The request channel holds
// at most one token, so changes landing mid-run collapse into a single
// queued follow-up run.
func (w *Watcher) startWorker(ctx context.Context, st *groupState) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-st.req:
				if !ok {
					return
				}
				w.runSequence(ctx, st)
			}
		}
	}()
}

func (w *Watcher) runSequence(ctx context.Context, st *groupState) {
	w.recorder.IncWatchTrigger(st.seq.Group)
	ctx = observability.WithTask(ctx, st.seq.Group)
	observability.InfoContext(ctx, "Change detected; re-running task sequence")
	if err := st.seq.Run(ctx); err != nil {
		observability.ErrorContext(ctx, "Task sequence failed", slog.Any("error", err))
	}
}

// addRecursive watches path and, for directories, every directory below it.
func addRecursive(fsw *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// Watch the containing directory; fsnotify file watches miss
		// editors that replace files via rename.
		return fsw.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
}
