package storage

import (
	"errors"
	"sync"

	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/model"
)

// Health summarizes backend outcomes since the store was opened.
type Health struct {
	Failures  int64  `json:"failures"`
	LastError string `json:"last_error,omitempty"` // cleared by the next successful operation
}

// OK reports whether the most recent operation succeeded.
func (h Health) OK() bool { return h.LastError == "" }

// BestEffort wraps a Storage so failures are logged and never returned.
// Callers carry on with their in-memory state regardless.
type BestEffort struct {
	backend Storage
	log     logger.Logger

	mu     sync.Mutex
	health Health
}

func NewBestEffort(backend Storage, log logger.Logger) *BestEffort {
	return &BestEffort{backend: backend, log: log}
}

// Health returns a snapshot of the backend's recent outcomes.
func (b *BestEffort) Health() Health {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health
}

func (b *BestEffort) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.health.LastError = ""
		return
	}
	b.health.Failures++
	b.health.LastError = err.Error()
}

// Load returns the saved collection, or false when absent or unreadable.
func (b *BestEffort) Load() (model.Collection, bool) {
	c, err := b.backend.Load()
	if errors.Is(err, ErrNotFound) {
		b.record(nil)
		return nil, false
	}
	b.record(err)
	if err != nil {
		b.log.Error("failed to load bookmarks from storage", logger.Error(err))
		return nil, false
	}
	return c, true
}

func (b *BestEffort) Save(c model.Collection) {
	err := b.backend.Save(c)
	b.record(err)
	if err != nil {
		b.log.Error("failed to save bookmarks to storage",
			logger.Int("count", len(c)),
			logger.Error(err))
	}
}

func (b *BestEffort) Clear() {
	err := b.backend.Clear()
	b.record(err)
	if err != nil {
		b.log.Error("failed to clear bookmarks from storage", logger.Error(err))
	}
}

// LoadAIState returns the zero state when loading fails.
func (b *BestEffort) LoadAIState() model.AIState {
	state, err := b.backend.LoadAIState()
	b.record(err)
	if err != nil {
		b.log.Error("failed to load ai state from storage", logger.Error(err))
		return model.AIState{}
	}
	return state
}

func (b *BestEffort) SaveAIState(state model.AIState) {
	err := b.backend.SaveAIState(state)
	b.record(err)
	if err != nil {
		b.log.Error("failed to save ai state to storage", logger.Error(err))
	}
}

func (b *BestEffort) Close() {
	if err := b.backend.Close(); err != nil {
		b.log.Warn("failed to close storage", logger.Error(err))
	}
}
