package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidBackend = errors.New("invalid storage backend")

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	AI      AIConfig      `yaml:"ai"`
}

type StorageConfig struct {
	Backend    string      `yaml:"backend"`     // "json" | "sqlite" | "redis"
	Dir        string      `yaml:"dir"`         // json backend directory
	SQLitePath string      `yaml:"sqlite_path"` // sqlite backend file
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"` // ex: "localhost:6379"
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	PoolSize    int           `yaml:"pool_size"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"` // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Pretty bool   `yaml:"pretty"` // true => zap dev (color), false => zap prod (JSON)
}

type AIConfig struct {
	Model          string        `yaml:"model"`
	MaxTokens      int           `yaml:"max_tokens"`
	FreeQueryLimit int           `yaml:"free_query_limit"`
	Timeout        time.Duration `yaml:"timeout"`

	// APIKey is the default credential. Only read from the environment.
	APIKey string `yaml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dir := defaultDir()
	return Config{
		Storage: StorageConfig{
			Backend:    BackendJSON,
			Dir:        dir,
			SQLitePath: filepath.Join(dir, "xbm.db"),
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				DialTimeout: 5 * time.Second,
				PoolSize:    10,
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
		AI: AIConfig{
			Model:          "claude-haiku-4-5-20251001",
			MaxTokens:      1024,
			FreeQueryLimit: 2,
			Timeout:        90 * time.Second,
		},
	}
}

// Load reads the YAML config at path, creating it with defaults if missing,
// then applies XBM_* environment overrides. An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getenv("XBM_CONFIG", DefaultPath())
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Non-fatal: defaults still apply when the file cannot be written
		_ = Save(path, &cfg)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Storage.Backend)
	}
	if c.AI.FreeQueryLimit < 0 {
		c.AI.FreeQueryLimit = 0
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Storage.Redis.Password != "" {
		c.Storage.Redis.Password = "***REDACTED***"
	}
	if c.AI.APIKey != "" {
		c.AI.APIKey = "***REDACTED***"
	}
	return c
}

// DefaultPath returns ~/.config/xbm/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xbm"
	}
	return filepath.Join(home, ".config", "xbm")
}

func applyEnv(cfg *Config) {
	cfg.Storage.Backend = getenv("XBM_STORAGE", cfg.Storage.Backend)
	cfg.Storage.Dir = getenv("XBM_DATA_DIR", cfg.Storage.Dir)
	cfg.Storage.SQLitePath = getenv("XBM_SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.Redis.Addr = getenv("XBM_REDIS_ADDR", cfg.Storage.Redis.Addr)
	cfg.Storage.Redis.Password = getenv("XBM_REDIS_PASSWORD", cfg.Storage.Redis.Password)
	cfg.Storage.Redis.DB = getenvInt("XBM_REDIS_DB", cfg.Storage.Redis.DB)

	cfg.Server.Addr = getenv("XBM_LISTEN_ADDR", cfg.Server.Addr)
	cfg.Server.ShutdownTimeout = mustDuration("XBM_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Log.Level = getenv("XBM_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = mustBool("XBM_PRETTY_LOG", cfg.Log.Pretty)

	cfg.AI.Model = getenv("XBM_AI_MODEL", cfg.AI.Model)
	cfg.AI.MaxTokens = getenvInt("XBM_AI_MAX_TOKENS", cfg.AI.MaxTokens)
	cfg.AI.FreeQueryLimit = getenvInt("XBM_FREE_QUERY_LIMIT", cfg.AI.FreeQueryLimit)
	cfg.AI.APIKey = getenv("ANTHROPIC_API_KEY", cfg.AI.APIKey)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
