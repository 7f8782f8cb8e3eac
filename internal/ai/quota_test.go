package ai

import (
	"errors"
	"testing"

	"github.com/nikbrunner/xbm/internal/model"
)

// memoryStore records saves for assertions.
type memoryStore struct {
	state model.AIState
	saves int
}

func (m *memoryStore) LoadAIState() model.AIState      { return m.state }
func (m *memoryStore) SaveAIState(state model.AIState) { m.state = state; m.saves++ }

func TestQuota_LimitWithDefaultKey(t *testing.T) {
	store := &memoryStore{}
	q := NewQuota(store, FreeQueryLimit)

	for i := 0; i < FreeQueryLimit; i++ {
		if err := q.Check(); err != nil {
			t.Fatalf("query %d: unexpected error %v", i+1, err)
		}
		q.RecordSuccess(true)
	}

	if err := q.Check(); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}
	if store.state.QueryCount != FreeQueryLimit {
		t.Errorf("expected persisted count %d, got %d", FreeQueryLimit, store.state.QueryCount)
	}
	if q.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", q.Remaining())
	}
}

func TestQuota_CustomKeyBypassesLimit(t *testing.T) {
	store := &memoryStore{state: model.AIState{QueryCount: 5}}
	q := NewQuota(store, FreeQueryLimit)

	q.SetCustomKey("sk-mine")
	if err := q.Check(); err != nil {
		t.Errorf("expected custom key to bypass limit, got %v", err)
	}

	key, isDefault := q.Credential("sk-default")
	if key != "sk-mine" || isDefault {
		t.Errorf("expected custom key, got %q default=%v", key, isDefault)
	}

	q.RecordSuccess(false)
	if q.State().QueryCount != 5 {
		t.Errorf("custom key usage must not count, got %d", q.State().QueryCount)
	}
	if q.Remaining() != -1 {
		t.Errorf("expected -1 remaining with custom key, got %d", q.Remaining())
	}
}

func TestQuota_ClearCustomKey(t *testing.T) {
	q := NewQuota(&memoryStore{state: model.AIState{QueryCount: 2}}, FreeQueryLimit)

	q.SetCustomKey("sk-mine")
	q.SetCustomKey("")

	if q.State().CustomAPIKey != nil {
		t.Error("expected key cleared")
	}
	if err := q.Check(); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected limit to apply again, got %v", err)
	}

	key, isDefault := q.Credential("sk-default")
	if key != "sk-default" || !isDefault {
		t.Errorf("expected default key, got %q", key)
	}
}

func TestQuota_ResetCount(t *testing.T) {
	store := &memoryStore{state: model.AIState{QueryCount: 2}}
	q := NewQuota(store, FreeQueryLimit)

	q.ResetCount()
	if err := q.Check(); err != nil {
		t.Errorf("expected reset to allow queries, got %v", err)
	}
	if store.saves != 1 {
		t.Errorf("expected one save, got %d", store.saves)
	}
}

func TestQuota_StateIsCopy(t *testing.T) {
	q := NewQuota(nil, FreeQueryLimit)
	q.SetCustomKey("sk-mine")

	s := q.State()
	*s.CustomAPIKey = "changed"

	if key, _ := q.Credential(""); key != "sk-mine" {
		t.Errorf("State must return a copy, key is now %q", key)
	}
}
