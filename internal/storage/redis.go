package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikbrunner/xbm/internal/model"
)

const defaultOpTimeout = 3 * time.Second

// AI state hash fields.
const (
	fieldQueryCount   = "queryCount"
	fieldCustomAPIKey = "customApiKey"
)

// RedisStorage implements Storage on a Redis server. The collection is one
// JSON string; AI state is a hash so fields can be updated independently.
type RedisStorage struct {
	client    *redis.Client
	opTimeout time.Duration
}

// RedisOptions configures NewRedisStorage.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	PoolSize    int
}

// NewRedisStorage connects and pings the server once.
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		PoolSize:    opts.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}

	return NewRedisStorageFromClient(client), nil
}

// NewRedisStorageFromClient wraps an existing client.
func NewRedisStorageFromClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client, opTimeout: defaultOpTimeout}
}

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

func (s *RedisStorage) Load() (model.Collection, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	data, err := s.client.Get(ctx, RedisBookmarksKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	var c model.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmarks: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *RedisStorage) Save(c model.Collection) error {
	if c == nil {
		c = model.Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmarks: %w", err)
	}

	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Set(ctx, RedisBookmarksKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return nil
}

func (s *RedisStorage) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Del(ctx, RedisBookmarksKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete bookmarks: %w", err)
	}
	return nil
}

func (s *RedisStorage) LoadAIState() (model.AIState, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	fields, err := s.client.HGetAll(ctx, RedisAIStateKey()).Result()
	if err != nil {
		return model.AIState{}, fmt.Errorf("failed to get ai state: %w", err)
	}

	var state model.AIState
	if v, ok := fields[fieldQueryCount]; ok {
		state.QueryCount, _ = strconv.Atoi(v)
	}
	if v, ok := fields[fieldCustomAPIKey]; ok && v != "" {
		state.CustomAPIKey = &v
	}
	return state, nil
}

func (s *RedisStorage) SaveAIState(state model.AIState) error {
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, RedisAIStateKey(), fieldQueryCount, state.QueryCount)
		if state.HasCustomKey() {
			pipe.HSet(ctx, RedisAIStateKey(), fieldCustomAPIKey, *state.CustomAPIKey)
		} else {
			pipe.HDel(ctx, RedisAIStateKey(), fieldCustomAPIKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save ai state: %w", err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
