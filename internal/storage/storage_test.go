package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"

	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/storage"
)

func sampleCollection() model.Collection {
	return model.Collection{
		{ID: "1", Text: "hello", Timestamp: "2024-01-01T00:00:00Z", Username: "jane"},
		{ID: "tweet-2", Text: "with \"quotes\" and ünïcode", Timestamp: "2024-01-02T10:00:00.5Z", Username: "bob",
			Media: &model.Media{Type: model.MediaVideo, Source: "https://video.twimg.com/v.mp4"}},
		{ID: "3", Text: "", Timestamp: "2024-01-03", Username: "carol",
			Media: &model.Media{Type: model.MediaAnimatedGIF, Source: ""}},
	}
}

// backends returns every backend that can run in this environment.
func backends(t *testing.T) map[string]storage.Storage {
	t.Helper()

	sqlite, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "xbm.db"))
	assert.NilError(t, err)

	out := map[string]storage.Storage{
		"json":   storage.NewJSONStorage(t.TempDir()),
		"sqlite": sqlite,
	}

	if addr := os.Getenv("XBM_TEST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
		assert.NilError(t, client.FlushDB(context.Background()).Err())
		out["redis"] = storage.NewRedisStorageFromClient(client)
	}

	for _, s := range out {
		t.Cleanup(func() { _ = s.Close() })
	}
	return out
}

func TestStorage_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleCollection()
			assert.NilError(t, s.Save(want))

			got, err := s.Load()
			assert.NilError(t, err)
			assert.DeepEqual(t, got, want)
		})
	}
}

func TestStorage_LoadAbsent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load()
			if !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStorage_EmptyCollectionIsNotAbsent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.NilError(t, s.Save(model.Collection{}))

			got, err := s.Load()
			assert.NilError(t, err)
			assert.Equal(t, len(got), 0)
		})
	}
}

func TestStorage_SaveReplaces(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.NilError(t, s.Save(sampleCollection()))
			next := model.Collection{{ID: "9", Text: "only", Timestamp: "2024-05-05T00:00:00Z", Username: "z"}}
			assert.NilError(t, s.Save(next))

			got, err := s.Load()
			assert.NilError(t, err)
			assert.DeepEqual(t, got, next)
		})
	}
}

func TestStorage_ClearKeepsAIState(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := "sk-user"
			state := model.AIState{QueryCount: 2, CustomAPIKey: &key}

			assert.NilError(t, s.Save(sampleCollection()))
			assert.NilError(t, s.SaveAIState(state))
			assert.NilError(t, s.Clear())

			_, err := s.Load()
			if !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound after clear, got %v", err)
			}

			got, err := s.LoadAIState()
			assert.NilError(t, err)
			assert.DeepEqual(t, got, state)
		})
	}
}

func TestStorage_ClearWhenEmpty(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.NilError(t, s.Clear())
		})
	}
}

func TestStorage_AIStateDefaults(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.LoadAIState()
			assert.NilError(t, err)
			assert.DeepEqual(t, got, model.AIState{})

			assert.NilError(t, s.SaveAIState(model.AIState{QueryCount: 1}))
			got, err = s.LoadAIState()
			assert.NilError(t, err)
			assert.Equal(t, got.QueryCount, 1)
			assert.Assert(t, got.CustomAPIKey == nil)
		})
	}
}

func TestJSONStorage_FileLayout(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewJSONStorage(dir)

	assert.NilError(t, s.Save(sampleCollection()))
	assert.NilError(t, s.SaveAIState(model.AIState{QueryCount: 1}))

	for _, name := range []string{"twitter_bookmarks.json", "ai-store.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	entries, err := os.ReadDir(dir)
	assert.NilError(t, err)
	assert.Equal(t, len(entries), 2, "temp files should not be left behind")
}

func TestJSONStorage_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "twitter_bookmarks.json"), []byte("{not json"), 0644))

	_, err := storage.NewJSONStorage(dir).Load()
	assert.Assert(t, err != nil)
	assert.Assert(t, !errors.Is(err, storage.ErrNotFound))
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xbm.db")

	s, err := storage.NewSQLiteStorage(path)
	assert.NilError(t, err)
	assert.NilError(t, s.Save(sampleCollection()))
	assert.NilError(t, s.Close())

	s, err = storage.NewSQLiteStorage(path)
	assert.NilError(t, err)
	defer s.Close()

	got, err := s.Load()
	assert.NilError(t, err)
	assert.DeepEqual(t, got, sampleCollection())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, storage.RedisBookmarksKey(), "xbm:twitter_bookmarks")
	assert.Equal(t, storage.RedisAIStateKey(), "xbm:ai-store")
}
