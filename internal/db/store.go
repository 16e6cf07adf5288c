package db

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// cacheMaxEntries bounds the audio cache; the oldest rows are evicted
// when a new track is put past the limit.
const cacheMaxEntries = 24

// Store provides read-write access to the lector SQLite database.
type Store struct {
	db       *sql.DB
	audioDir string
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "lector", "lector.sqlite")
}

// Open opens (or creates) the database with WAL and prepares the
// schema. Materialized cache files live next to the database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS audioCache (
			locator   TEXT PRIMARY KEY,
			data      BLOB NOT NULL,
			fetchedAt REAL NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}

	audioDir := filepath.Join(filepath.Dir(path), "audio")
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	return &Store{db: db, audioDir: audioDir}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Settings loads the persisted playback settings, falling back to
// defaults for anything missing or malformed.
func (s *Store) Settings() (Settings, error) {
	out := DefaultSettings()

	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return out, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case "voice":
			if value != "" {
				out.Voice = value
			}
		case "rate":
			if r, err := strconv.ParseFloat(value, 64); err == nil && r > 0 {
				out.Rate = r
			}
		case "translated":
			out.Translated = value == "true"
		}
	}
	return out, rows.Err()
}

// SaveSettings persists the playback settings.
func (s *Store) SaveSettings(settings Settings) error {
	pairs := map[string]string{
		"voice":      settings.Voice,
		"rate":       strconv.FormatFloat(settings.Rate, 'f', -1, 64),
		"translated": strconv.FormatBool(settings.Translated),
	}
	for key, value := range pairs {
		_, err := s.db.Exec(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return nil
}

// PutAudio stores prefetched audio bytes for a locator, evicting the
// oldest entries past the cache limit.
func (s *Store) PutAudio(locator string, data []byte) error {
	now := float64(time.Now().UnixNano()) / 1e9
	_, err := s.db.Exec(`
		INSERT INTO audioCache (locator, data, fetchedAt) VALUES (?, ?, ?)
		ON CONFLICT(locator) DO UPDATE SET data = excluded.data, fetchedAt = excluded.fetchedAt
	`, locator, data, now)
	if err != nil {
		return fmt.Errorf("put audio: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM audioCache WHERE locator NOT IN (
			SELECT locator FROM audioCache ORDER BY fetchedAt DESC LIMIT ?
		)
	`, cacheMaxEntries)
	if err != nil {
		return fmt.Errorf("prune audio cache: %w", err)
	}
	return nil
}

// CachedTracks lists the cache contents, newest first.
func (s *Store) CachedTracks() ([]CachedTrack, error) {
	rows, err := s.db.Query(`SELECT locator, data, fetchedAt FROM audioCache ORDER BY fetchedAt DESC`)
	if err != nil {
		return nil, fmt.Errorf("query audio cache: %w", err)
	}
	defer rows.Close()

	var tracks []CachedTrack
	for rows.Next() {
		var t CachedTrack
		if err := rows.Scan(&t.Locator, &t.Data, &t.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan cached track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// HasAudio reports whether the cache holds audio for a locator.
func (s *Store) HasAudio(locator string) bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM audioCache WHERE locator = ?`, locator).Scan(&n)
	return err == nil && n > 0
}

// AudioFile materializes the cached audio for a locator as a file and
// returns its path, or ok=false when the locator is not cached. The
// player loads the local file instead of re-fetching the track.
func (s *Store) AudioFile(locator string) (string, bool) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM audioCache WHERE locator = ?`, locator).Scan(&data)
	if err != nil {
		return "", false
	}

	name := fmt.Sprintf("%x.mp3", sha256.Sum256([]byte(locator)))
	path := filepath.Join(s.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", false
		}
	}
	return path, true
}
