package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/xbm/internal/model"
)

// SQLiteStorage implements Storage using a SQLite database.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (and migrates) the database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}
	return nil
}

// migrateV1 creates the bookmark table and the key/value table for AI state.
func (s *SQLiteStorage) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS bookmarks (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			username TEXT NOT NULL,
			media_type TEXT,
			media_source TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_bookmarks_username ON bookmarks(username);

		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY NOT NULL,
			value TEXT NOT NULL
		);

		DELETE FROM schema_version;
		INSERT INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 records whether a collection was saved, so an empty save
// loads as empty rather than absent.
func (s *SQLiteStorage) migrateV2() error {
	migration := `
		INSERT OR IGNORE INTO kv (key, value)
			SELECT 'twitter_bookmarks', 'saved' FROM bookmarks LIMIT 1;
		UPDATE schema_version SET version = 2;
	`
	_, err := s.db.Exec(migration)
	return err
}

// Load reads the collection in saved order.
func (s *SQLiteStorage) Load() (model.Collection, error) {
	var marker string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", BookmarksKey).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, text, timestamp, username, media_type, media_source
		FROM bookmarks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	c := model.Collection{}
	for rows.Next() {
		var b model.Bookmark
		var mediaType, mediaSource sql.NullString

		if err := rows.Scan(&b.ID, &b.Text, &b.Timestamp, &b.Username, &mediaType, &mediaSource); err != nil {
			return nil, err
		}
		if mediaType.Valid {
			b.Media = &model.Media{Type: model.MediaType(mediaType.String), Source: mediaSource.String}
		}
		c = append(c, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save replaces the stored collection in one transaction.
func (s *SQLiteStorage) Save(c model.Collection) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM bookmarks"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO bookmarks (position, id, text, timestamp, username, media_type, media_source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, b := range c {
		var mediaType, mediaSource *string
		if b.Media != nil {
			t, src := string(b.Media.Type), b.Media.Source
			mediaType, mediaSource = &t, &src
		}
		if _, err := stmt.Exec(i, b.ID, b.Text, b.Timestamp, b.Username, mediaType, mediaSource); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", BookmarksKey, "saved",
	); err != nil {
		return err
	}

	return tx.Commit()
}

// Clear deletes the stored collection. AI state is kept.
func (s *SQLiteStorage) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM bookmarks"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM kv WHERE key = ?", BookmarksKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) LoadAIState() (model.AIState, error) {
	var state model.AIState
	var raw string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", AIStateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return model.AIState{}, fmt.Errorf("decode %s: %w", AIStateKey, err)
	}
	return state, nil
}

func (s *SQLiteStorage) SaveAIState(state model.AIState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", AIStateKey, string(data))
	return err
}
