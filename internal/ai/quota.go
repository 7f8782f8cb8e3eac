package ai

import (
	"errors"
	"sync"

	"github.com/nikbrunner/xbm/internal/model"
)

// FreeQueryLimit is how many questions may use the default key.
const FreeQueryLimit = 2

var ErrQuotaExceeded = errors.New("free query limit reached")

// StateStore persists AI state. Implementations must not fail loudly.
type StateStore interface {
	LoadAIState() model.AIState
	SaveAIState(state model.AIState)
}

// Quota tracks free-tier usage and the user's own credential.
type Quota struct {
	mu    sync.Mutex
	state model.AIState
	limit int
	store StateStore
}

// NewQuota loads the saved state. A nil store keeps state in memory only.
func NewQuota(store StateStore, limit int) *Quota {
	q := &Quota{limit: limit, store: store}
	if store != nil {
		q.state = store.LoadAIState()
	}
	return q
}

// Check fails when the free limit is used up and no custom key is set.
func (q *Quota) Check() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.state.HasCustomKey() && q.state.QueryCount >= q.limit {
		return ErrQuotaExceeded
	}
	return nil
}

// Credential returns the key to use and whether it is the default one.
func (q *Quota) Credential(defaultKey string) (key string, isDefault bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state.HasCustomKey() {
		return *q.state.CustomAPIKey, false
	}
	return defaultKey, true
}

// RecordSuccess counts a completed answer against the free limit.
// Answers made with a custom key are free.
func (q *Quota) RecordSuccess(usedDefault bool) {
	if !usedDefault {
		return
	}
	q.update(func(s *model.AIState) { s.QueryCount++ })
}

// SetCustomKey stores the user's key. Empty removes it.
func (q *Quota) SetCustomKey(key string) {
	q.update(func(s *model.AIState) {
		if key == "" {
			s.CustomAPIKey = nil
			return
		}
		s.CustomAPIKey = &key
	})
}

// ResetCount sets the used free queries back to zero.
func (q *Quota) ResetCount() {
	q.update(func(s *model.AIState) { s.QueryCount = 0 })
}

// State returns a copy of the current state.
func (q *Quota) State() model.AIState {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.state
	if s.CustomAPIKey != nil {
		k := *s.CustomAPIKey
		s.CustomAPIKey = &k
	}
	return s
}

// Remaining returns the free queries left, or -1 when a custom key is set.
func (q *Quota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state.HasCustomKey() {
		return -1
	}
	return max(q.limit-q.state.QueryCount, 0)
}

func (q *Quota) update(fn func(*model.AIState)) {
	q.mu.Lock()
	fn(&q.state)
	snapshot := q.state
	q.mu.Unlock()

	if q.store != nil {
		q.store.SaveAIState(snapshot)
	}
}
