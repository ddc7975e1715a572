package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/framegraph/internal/ctxlog"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before notifying.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives the sorted, de-duplicated paths of a settled burst.
type Handler func(ctx context.Context, changed []string)

// Watcher reports changes to pipeline files under a set of roots.
type Watcher struct {
	roots    []string
	ext      string
	debounce time.Duration
	handler  Handler
	watcher  *fsnotify.Watcher

	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExtension limits notifications to files with ext. The default is
// ".hcl"; an empty extension reports every file.
func WithExtension(ext string) Option {
	return func(w *Watcher) { w.ext = ext }
}

// New creates a watcher for roots. Each root may be a file or a directory;
// directories are watched recursively.
func New(handler Handler, roots []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		roots:    roots,
		ext:      ".hcl",
		debounce: DefaultDebounce,
		handler:  handler,
		watcher:  fw,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds every root to the watch list and processes events until ctx is
// done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("component", "watch")
	for _, root := range w.roots {
		if err := w.add(root); err != nil {
			return err
		}
	}
	w.started.Store(true)
	logger.Info("Watching pipeline files for changes.", "roots", w.roots)
	go w.loop(ctx)
	return nil
}

// Stop ends event processing and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", root, err)
	}
	if !info.IsDir() {
		// Editors replace files on save, so the parent directory is watched.
		return w.watcher.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) relevant(path string) bool {
	if w.ext != "" && filepath.Ext(path) != w.ext {
		return false
	}
	path = filepath.Clean(path)
	for _, root := range w.roots {
		root = filepath.Clean(root)
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.stopped)
	logger := ctxlog.FromContext(ctx).With("component", "watch")

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.add(ev.Name)
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.relevant(ev.Name) {
				continue
			}
			logger.Debug("Pipeline file event.", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("File watcher error.", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.handler(ctx, slices.Clip(changed))
		}
	}
}
