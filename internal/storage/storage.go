package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikbrunner/xbm/internal/model"
)

// Persisted keys. The bookmarks key is shared by every backend.
const (
	BookmarksKey = "twitter_bookmarks"
	AIStateKey   = "ai-store"
)

var ErrNotFound = errors.New("no saved bookmarks")

// Storage defines the interface for persisting the collection and AI state.
type Storage interface {
	// Load returns ErrNotFound when nothing has been saved.
	Load() (model.Collection, error)
	Save(c model.Collection) error
	Clear() error

	// LoadAIState returns the zero state when nothing has been saved.
	LoadAIState() (model.AIState, error)
	SaveAIState(state model.AIState) error

	Close() error
}

// JSONStorage implements Storage with one JSON file per key in a directory.
type JSONStorage struct {
	dir string
}

// NewJSONStorage creates a new JSONStorage rooted at dir.
func NewJSONStorage(dir string) *JSONStorage {
	return &JSONStorage{dir: dir}
}

// Dir returns the storage directory.
func (s *JSONStorage) Dir() string {
	return s.dir
}

func (s *JSONStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the collection file.
func (s *JSONStorage) Load() (model.Collection, error) {
	data, err := os.ReadFile(s.path(BookmarksKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	var c model.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", BookmarksKey, err)
	}
	if c == nil {
		// "null" was saved
		return nil, ErrNotFound
	}
	return c, nil
}

// Save writes the collection file.
func (s *JSONStorage) Save(c model.Collection) error {
	if c == nil {
		c = model.Collection{}
	}
	return s.write(BookmarksKey, c)
}

// Clear removes the collection file. AI state is kept.
func (s *JSONStorage) Clear() error {
	err := os.Remove(s.path(BookmarksKey))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *JSONStorage) LoadAIState() (model.AIState, error) {
	var state model.AIState
	data, err := os.ReadFile(s.path(AIStateKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return state, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return model.AIState{}, fmt.Errorf("decode %s: %w", AIStateKey, err)
	}
	return state, nil
}

func (s *JSONStorage) SaveAIState(state model.AIState) error {
	return s.write(AIStateKey, state)
}

func (s *JSONStorage) Close() error { return nil }

// write replaces the file atomically so readers never see a partial document.
func (s *JSONStorage) write(key string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}
