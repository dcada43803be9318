package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/notebox/pkg/core"
)

const defaultDebounce = 50 * time.Millisecond

// Watch reports changes to keys matching pattern (a doublestar glob, empty
// means every key). The channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.StorageEvent, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := r.recursiveAdd(watcher, r.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	debounce := r.config.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &watchWorker{
		repo:      r,
		pattern:   pattern,
		watcher:   watcher,
		events:    make(chan core.StorageEvent, core.DefaultEventBuffer),
		debouncer: newDebouncer(debounce),
	}
	r.setWatcherActive(+1)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if r.config.ErrorHandler != nil {
			r.config.ErrorHandler(err)
			return
		}
		r.config.Logger.Error("watcher failed", "error", err)
	}))

	return w.events, nil
}

type watchWorker struct {
	repo      *Repository
	pattern   string
	watcher   *fsnotify.Watcher
	events    chan core.StorageEvent
	debouncer *debouncer
}

// run is the event loop. It owns the events channel and closes it on exit.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
		// All timers must be done before the channel is closed.
		w.debouncer.stopAndWait(5 * time.Second)
		close(w.events)
		w.repo.setWatcherActive(-1)
	}()
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("fsnotify error", "error", wErr)
			if w.repo.config.ErrorHandler != nil {
				w.repo.config.ErrorHandler(wErr)
			}
		}
	}
}

// handle filters, maps and debounces a single fsnotify event.
func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	rel, err := filepath.Rel(w.repo.Path, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	key := filepath.ToSlash(rel)
	base := filepath.Base(event.Name)

	if strings.HasPrefix(base, TempFilePrefix) || w.repo.isSystemName(strings.SplitN(key, "/", 2)[0]) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New directories must be watched before their files show up.
			if err := w.repo.recursiveAdd(w.watcher, event.Name); err != nil {
				w.repo.config.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			w.announceExisting(ctx, event.Name)
			return
		}
	}

	var typ core.StorageEventType
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		typ = core.StorageSet
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = core.StorageDelete
	default:
		return
	}

	w.emit(ctx, typ, key)
}

// announceExisting reports files that landed in a new directory before it
// was added to the watcher.
func (w *watchWorker) announceExisting(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}
		rel, err := filepath.Rel(w.repo.Path, path)
		if err != nil {
			return nil
		}
		w.emit(ctx, core.StorageSet, filepath.ToSlash(rel))
		return nil
	})
}

func (w *watchWorker) emit(ctx context.Context, typ core.StorageEventType, key string) {
	if match, _ := doublestar.Match(w.pattern, key); !match {
		return
	}

	w.repo.config.Logger.Debug("storage change", "key", key, "type", typ)
	w.debouncer.add(core.StorageEvent{Type: typ, Key: key, Timestamp: time.Now().Unix()}, func(e core.StorageEvent) {
		// The channel may already be closed if shutdown timed out.
		defer func() { _ = recover() }()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != r.Path && r.isSystemName(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
