// Package watcher re-imports an export file whenever it changes on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nikbrunner/xbm/internal/importer"
	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/logger"
)

// DefaultDebounce collapses the burst of events editors emit for one save.
const DefaultDebounce = 250 * time.Millisecond

// Ingester is the part of library.Library the watcher needs.
type Ingester interface {
	IngestFile(path string) (importer.Outcome, error)
}

type Options struct {
	Debounce time.Duration
	Logger   logger.Logger
	// OnReload is called after every import attempt, successful or not.
	OnReload func(importer.Outcome, error)
}

type Watcher struct {
	path     string
	ing      Ingester
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      logger.Logger
	onReload func(importer.Outcome, error)
}

// New watches the directory holding path. Watching the directory rather than
// the file keeps working across editors that save by rename.
func New(path string, ing Ingester, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		ing:      ing,
		fs:       fs,
		debounce: opts.Debounce,
		log:      opts.Logger,
		onReload: opts.OnReload,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = logger.NewNop()
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run handles events until ctx is done. It closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.log.Info("watching export", logger.String("file", w.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("export changed", logger.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", logger.Error(err))

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create)
}

// reload is a fresh upload each time; a newer one started elsewhere wins.
func (w *Watcher) reload() {
	outcome, err := w.ing.IngestFile(w.path)
	switch {
	case errors.Is(err, library.ErrSuperseded):
		w.log.Debug("reload superseded", logger.String("file", w.path))
	case err != nil:
		w.log.Warn("reload failed",
			logger.String("file", w.path),
			logger.String("reason", importer.UserMessage(err)))
	default:
		w.log.Info("reloaded export",
			logger.String("file", w.path),
			logger.Int("count", len(outcome.Bookmarks)))
	}
	if w.onReload != nil {
		w.onReload(outcome, err)
	}
}
