// Package library owns the in-memory bookmark collection and the current
// query parameters. Both are replaced wholesale, never edited in place, so
// a reader holding an old collection never sees it change.
package library

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/nikbrunner/xbm/internal/importer"
	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/query"
)

// ErrSuperseded is returned when a newer upload started before this one finished.
var ErrSuperseded = errors.New("upload superseded by a newer one")

// Persistence is the best-effort store the library writes through.
type Persistence interface {
	Load() (model.Collection, bool)
	Save(c model.Collection)
	Clear()
}

type Params struct {
	Store  Persistence
	Logger logger.Logger
}

type Library struct {
	store Persistence
	log   logger.Logger

	collection atomic.Pointer[model.Collection]
	params     atomic.Pointer[query.Params]

	mu         sync.Mutex
	generation uint64
}

// Ticket identifies one upload attempt.
type Ticket struct {
	generation uint64
}

func New(p Params) *Library {
	l := &Library{store: p.Store, log: p.Logger}
	if l.log == nil {
		l.log = logger.NewNop()
	}
	empty := model.Collection{}
	l.collection.Store(&empty)
	params := query.DefaultParams()
	l.params.Store(&params)
	return l
}

// Restore loads the saved collection, if any. It reports whether one was found.
func (l *Library) Restore() bool {
	if l.store == nil {
		return false
	}
	c, ok := l.store.Load()
	if !ok {
		return false
	}
	l.replace(c)
	l.log.Debug("restored bookmarks", logger.Int("count", len(c)))
	return true
}

// Collection returns the current collection. Callers must not modify it.
func (l *Library) Collection() model.Collection {
	return *l.collection.Load()
}

// Params returns the current query parameters.
func (l *Library) Params() query.Params {
	return *l.params.Load()
}

// SetParams replaces the query parameters.
func (l *Library) SetParams(p query.Params) {
	l.params.Store(&p)
}

// UpdateParams applies fn to a copy of the current parameters and stores the result.
func (l *Library) UpdateParams(fn func(query.Params) query.Params) query.Params {
	for {
		old := l.params.Load()
		next := fn(*old)
		if l.params.CompareAndSwap(old, &next) {
			return next
		}
	}
}

// View returns the collection filtered and sorted by the current parameters.
func (l *Library) View() model.Collection {
	return query.Derive(l.Collection(), l.Params())
}

// Usernames returns the distinct usernames of the whole collection.
func (l *Library) Usernames() []string {
	return query.UniqueUsernames(l.Collection())
}

// BeginUpload starts an upload. Any earlier upload that has not committed yet
// becomes stale.
func (l *Library) BeginUpload() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	return Ticket{generation: l.generation}
}

// Commit replaces the collection with c if t is still the latest upload.
func (l *Library) Commit(t Ticket, c model.Collection) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.generation != l.generation {
		return ErrSuperseded
	}
	l.replace(c)
	if len(c) > 0 && l.store != nil {
		l.store.Save(c)
	}
	return nil
}

// Ingest validates, normalizes and commits an export read from r.
func (l *Library) Ingest(r io.Reader, info importer.UploadInfo) (importer.Outcome, error) {
	ticket := l.BeginUpload()

	outcome, err := importer.Import(r, info)
	if err != nil {
		l.log.Info("import rejected",
			logger.String("file", info.Name),
			logger.Error(err))
		return importer.Outcome{}, err
	}

	if err := l.Commit(ticket, outcome.Bookmarks); err != nil {
		l.log.Debug("discarding stale upload", logger.String("file", info.Name))
		return importer.Outcome{}, err
	}

	l.log.Info("bookmarks imported",
		logger.String("file", info.Name),
		logger.Int("count", len(outcome.Bookmarks)),
		logger.String("format", outcome.Format.String()))
	return outcome, nil
}

// IngestFile is Ingest for a file on disk.
func (l *Library) IngestFile(path string) (importer.Outcome, error) {
	ticket := l.BeginUpload()

	outcome, err := importer.ImportFile(path)
	if err != nil {
		l.log.Info("import rejected", logger.String("file", path), logger.Error(err))
		return importer.Outcome{}, err
	}
	if err := l.Commit(ticket, outcome.Bookmarks); err != nil {
		return importer.Outcome{}, err
	}

	l.log.Info("bookmarks imported",
		logger.String("file", path),
		logger.Int("count", len(outcome.Bookmarks)))
	return outcome, nil
}

// Clear empties persistence (best effort) and then memory. Uploads still in
// flight are invalidated.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		l.store.Clear()
	}
	l.generation++
	l.replace(model.Collection{})
}

func (l *Library) replace(c model.Collection) {
	if c == nil {
		c = model.Collection{}
	}
	l.collection.Store(&c)
}
