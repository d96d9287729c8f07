package adapter

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

// WatcherConfig contains configuration for the file watcher.
type WatcherConfig struct {
	// Root is the directory watched recursively.
	Root string

	// Debounce is the quiet period after the last event before changes are
	// reported.
	Debounce time.Duration

	// Extensions are the file extensions that count as project files.
	Extensions []string

	// SkipHidden ignores files and directories whose name starts with '.'.
	SkipHidden bool
}

// WatcherConfigFrom builds a watcher configuration for root from the
// adapter section of synesis.yaml.
func WatcherConfigFrom(cfg *config.AdapterConfig, root string) *WatcherConfig {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = config.DefaultAdapterExtensions
	}
	return &WatcherConfig{
		Root:       root,
		Debounce:   cfg.Debounce,
		Extensions: exts,
		SkipHidden: true,
	}
}

// Watcher reports changes to project files below a directory. Every
// relevant event is reported at once through onEvent; the changed paths
// are reported again as one batch through onSettled once events stop
// arriving for the debounce interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   *WatcherConfig
	debounce *Debouncer

	mu      sync.Mutex
	pending map[string]bool
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher. It watches nothing until Watch is called.
func NewWatcher(cfg *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || cfg.Root == "" {
		return nil, fmt.Errorf("watcher root is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		logger:   logger,
		config:   cfg,
		debounce: NewDebouncer(cfg.Debounce),
		pending:  make(map[string]bool),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is canceled or Stop is called. The callbacks run
// on the watcher goroutine (onEvent) and the debounce timer goroutine
// (onSettled); onSettled calls never overlap.
func (w *Watcher) Watch(ctx context.Context, onEvent func(path string), onSettled func(paths []string)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.Stop()
		_ = w.watcher.Close()
		close(w.doneCh)
	}()

	if err := w.addDirectory(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Root, err)
	}

	w.logger.InfoContext(ctx, "file watcher started",
		"root", w.config.Root,
		"debounce_ms", w.config.Debounce.Milliseconds())

	var settle sync.Mutex
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped")
			return nil

		case <-w.stopCh:
			w.logger.Info("file watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectory(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			path := filepath.Clean(event.Name)
			w.logger.Debug("file event", "path", path, "op", event.Op.String())
			if onEvent != nil {
				onEvent(path)
			}

			w.mu.Lock()
			w.pending[path] = true
			w.mu.Unlock()

			w.debounce.Trigger(func() {
				paths := w.drain()
				if len(paths) == 0 || onSettled == nil {
					return
				}
				settle.Lock()
				defer settle.Unlock()
				onSettled(paths)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// Stop stops a running watcher and waits for Watch to return.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	select {
	case <-w.doneCh:
	default:
		close(w.stopCh)
		<-w.doneCh
	}
}

// drain returns the pending paths, sorted, and clears them.
func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	w.pending = make(map[string]bool)
	return paths
}

// addDirectory adds dir and its subdirectories to the watcher.
func (w *Watcher) addDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.hidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// shouldProcessEvent reports whether an event concerns a project file.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.hidden(event.Name) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, valid := range w.config.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

func (w *Watcher) hidden(path string) bool {
	return w.config.SkipHidden && strings.HasPrefix(filepath.Base(path), ".")
}

// Debouncer runs the last triggered callback once no trigger has arrived
// for the interval.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending callback.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		d.callback = nil
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
