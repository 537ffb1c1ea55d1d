// Package watcher re-runs ingestion when documents under a content root change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches a content tree and calls onChange once per burst of edits.
// A burst is any sequence of events separated by less than the debounce delay.
type Watcher struct {
	root      string
	extension string
	onChange  func(ctx context.Context, changed []string)
	debounce  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	pending map[string]bool
}

type Option func(*Watcher)

func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for root. Only files with extension trigger onChange;
// an empty extension matches every file.
func New(root, extension string, onChange func(ctx context.Context, changed []string), opts ...Option) *Watcher {
	w := &Watcher{
		root:      filepath.Clean(root),
		extension: extension,
		onChange:  onChange,
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		pending:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. onChange calls never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		fw.Close()
		return err
	}
	w.logger.Info("watching content", zap.String("root", w.root), zap.Duration("debounce", w.debounce))

	fire := make(chan struct{}, 1)
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		fw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, fire)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-fire:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event, fire chan<- struct{}) {
	if hidden(w.root, ev.Name) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
			w.schedule(ev.Name, fire)
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if !matchExtension(ev.Name, w.extension) {
		return
	}
	w.schedule(ev.Name, fire)
}

// schedule records path and restarts the debounce timer.
func (w *Watcher) schedule(path string, fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()
	if len(changed) == 0 || w.onChange == nil {
		return
	}
	w.logger.Debug("content changed", zap.Int("paths", len(changed)))
	w.onChange(ctx, changed)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.mu.Lock()
		fw := w.watcher
		w.mu.Unlock()
		return fw.Add(path)
	})
}

// hidden reports whether path sits under a dot-directory or is a dot-file
// below root, such as editor swap files.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func matchExtension(path, extension string) bool {
	if extension == "" {
		return true
	}
	return strings.EqualFold(filepath.Ext(path), "."+strings.TrimPrefix(extension, "."))
}
