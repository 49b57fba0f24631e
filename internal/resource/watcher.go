package resource

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/classmeta/pkg/errors"
	"github.com/classmeta/pkg/utils"
)

// DefaultDebounce is the quiet period before accumulated changes are applied.
const DefaultDebounce = 300 * time.Millisecond

// ChangeKind says what a watcher did with a changed path.
type ChangeKind string

const (
	ChangeUpdated  ChangeKind = "updated"
	ChangeRemoved  ChangeKind = "removed"
	ChangeFiltered ChangeKind = "filtered"
	ChangeFailed   ChangeKind = "failed"
)

// Change is the outcome for one changed class file.
type Change struct {
	Path  string     `json:"path"`
	Class string     `json:"class,omitempty"`
	Kind  ChangeKind `json:"kind"`
	Err   error      `json:"-"`
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnChange registers a callback invoked after each applied batch.
func WithOnChange(fn func([]Change)) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger utils.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher keeps a Resource loaded from a directory in sync with it. Class
// files are keyed by their slash-separated path relative to the directory,
// the same origin LoadDir records.
type Watcher struct {
	dir      string
	res      *Resource
	loader   *Loader
	logger   utils.Logger
	debounce time.Duration
	onChange func([]Change)

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]struct{}

	timerMu sync.Mutex
	timer   *time.Timer

	cancel   context.CancelFunc
	stopOnce sync.Once
	doneCh   chan struct{}
}

// NewWatcher watches dir recursively. Changes are applied to res using
// loader to parse and filter.
func NewWatcher(dir string, res *Resource, loader *Loader, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "create watcher", err)
	}
	w := &Watcher{
		dir:      dir,
		res:      res,
		loader:   loader,
		logger:   &utils.NullLogger{},
		debounce: DefaultDebounce,
		watcher:  fw,
		pending:  make(map[string]struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addRecursive(dir, false); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
}

// Stop ends the event loop and releases the watcher. Pending changes that
// have not reached the quiet period are dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		w.stopTimer()
		err = w.watcher.Close()
	})
	return err
}

// Done is closed when the event loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	flushCh := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					// Files may land in a new directory before it is watched.
					if err := w.addRecursive(ev.Name, true); err != nil {
						w.logger.Warn("Failed to watch %s: %v", ev.Name, err)
					}
					w.resetTimer(flushCh)
					continue
				}
			}
			if !IsClassFile(ev.Name) {
				continue
			}
			w.enqueue(ev.Name)
			w.resetTimer(flushCh)

		case <-flushCh:
			w.flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) enqueue(p string) {
	w.pendingMu.Lock()
	w.pending[p] = struct{}{}
	w.pendingMu.Unlock()
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	changes := w.Apply(paths)
	if w.onChange != nil {
		w.onChange(changes)
	}
}

// Apply brings the resource in line with the current state of each path on
// disk: an existing file is parsed and stored, a missing one is removed.
// A file that fails to parse leaves the previous class in place.
func (w *Watcher) Apply(paths []string) []Change {
	sort.Strings(paths)
	changes := make([]Change, 0, len(paths))
	for _, p := range paths {
		changes = append(changes, w.apply(p))
	}
	return changes
}

func (w *Watcher) apply(p string) Change {
	origin := w.origin(p)
	c := Change{Path: origin}

	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		name, ok := w.res.RemoveOrigin(origin)
		c.Kind, c.Class = ChangeRemoved, name
		if ok {
			w.logger.Info("Removed %s (%s)", name, origin)
		}
		return c
	}

	ci, err := w.loader.ReadClassFile(p)
	if err != nil {
		w.logger.Warn("Skipping %s: %v", origin, err)
		c.Kind, c.Err = ChangeFailed, err
		return c
	}
	c.Class = ci.Name()
	if !w.loader.Allowed(ci.Name()) {
		w.res.RemoveOrigin(origin)
		c.Kind = ChangeFiltered
		return c
	}
	w.res.PutClass(ci, origin)
	c.Kind = ChangeUpdated
	w.logger.Debug("Updated %s (%s)", ci.Name(), origin)
	return c
}

func (w *Watcher) origin(p string) string {
	rel, err := filepath.Rel(w.dir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) addRecursive(root string, enqueue bool) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if enqueue && IsClassFile(p) {
				w.enqueue(p)
			}
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return apperrors.Wrap(apperrors.CodeStorageError, "watch "+p, err)
		}
		return nil
	})
}

func (w *Watcher) resetTimer(flushCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
