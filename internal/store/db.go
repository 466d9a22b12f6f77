package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS state (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at REAL NOT NULL,
	PRIMARY KEY (session_id, key)
);`

// DB keeps session state in a SQLite file.
type DB struct {
	db *sql.DB
}

// SessionInfo summarizes one stored session.
type SessionInfo struct {
	ID        string
	Keys      int
	UpdatedAt time.Time
}

// DefaultDBPath returns the default state database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "whedifaqaui", "state.sqlite")
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Scope returns the Storage for one session.
func (d *DB) Scope(sessionID string) Storage {
	return &scoped{db: d.db, session: sessionID}
}

// Sessions lists stored sessions, most recently updated first.
func (d *DB) Sessions() ([]SessionInfo, error) {
	rows, err := d.db.Query(`
		SELECT session_id, COUNT(*), MAX(updated_at)
		FROM state
		GROUP BY session_id
		ORDER BY MAX(updated_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var s SessionInfo
		var updatedAt float64
		if err := rows.Scan(&s.ID, &s.Keys, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.UpdatedAt = timeFromUnix(updatedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Clear deletes everything stored for a session and reports how many keys
// were removed.
func (d *DB) Clear(sessionID string) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM state WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return res.RowsAffected()
}

type scoped struct {
	db      *sql.DB
	session string
}

func (s *scoped) Load(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM state WHERE session_id = ? AND key = ?`,
		s.session, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s/%s: %w", s.session, key, err)
	}
	return value, true, nil
}

func (s *scoped) Save(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO state (session_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.session, key, value, unixFromTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", s.session, key, err)
	}
	return nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
