// Package library persists the conversation log and the saved-app
// collection in a single SQLite database under the data directory.
package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS messages (
    id         TEXT PRIMARY KEY,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    tags       TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);

CREATE TABLE IF NOT EXISTS apps (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    tags       TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_apps_created_at ON apps(created_at);
`

// timeLayout keeps trailing fraction zeros so text ordering matches time
// ordering (RFC3339Nano trims them and breaks ORDER BY).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Message is one conversation entry. Content is frozen at creation; the tag
// set is filled in once by post-processing and never rewritten.
type Message struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
	Tags      []string
}

// App is one saved generated app.
type App struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
	Tags      []string
}

// Store is the SQLite-backed library.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the database path under the data directory.
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "library.db")
}

// Open opens (or creates) the library database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// AddMessage records a conversation entry and returns it with its assigned
// id and timestamp.
func (s *Store) AddMessage(role, content string, tags []string) (*Message, error) {
	msg := &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
		Tags:      tags,
	}
	tagJSON, err := marshalTags(tags)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`
		INSERT INTO messages (id, role, content, created_at, tags)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.Role, msg.Content,
		msg.CreatedAt.UTC().Format(timeLayout), tagJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

// Messages returns the conversation in creation order.
func (s *Store) Messages() ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, role, content, created_at, tags
		FROM messages ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var createdAt, tagJSON string
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &createdAt, &tagJSON); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if err := json.Unmarshal([]byte(tagJSON), &m.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SaveApp stores a generated app and returns it with its assigned id and
// timestamp.
func (s *Store) SaveApp(title, content string, tags []string) (*App, error) {
	app := &App{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
		Tags:      tags,
	}
	tagJSON, err := marshalTags(tags)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`
		INSERT INTO apps (id, title, content, created_at, tags)
		VALUES (?, ?, ?, ?, ?)`,
		app.ID, app.Title, app.Content,
		app.CreatedAt.UTC().Format(timeLayout), tagJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("save app: %w", err)
	}
	return app, nil
}

// App loads one saved app by id.
func (s *Store) App(id string) (*App, error) {
	row := s.db.QueryRow(`
		SELECT id, title, content, created_at, tags
		FROM apps WHERE id = ?`, id)

	var a App
	var createdAt, tagJSON string
	err := row.Scan(&a.ID, &a.Title, &a.Content, &createdAt, &tagJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("app %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load app: %w", err)
	}
	a.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if err := json.Unmarshal([]byte(tagJSON), &a.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &a, nil
}

// Apps lists saved apps, newest first.
func (s *Store) Apps() ([]App, error) {
	rows, err := s.db.Query(`
		SELECT id, title, content, created_at, tags
		FROM apps ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()

	var apps []App
	for rows.Next() {
		var a App
		var createdAt, tagJSON string
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &createdAt, &tagJSON); err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		a.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if err := json.Unmarshal([]byte(tagJSON), &a.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// DeleteApp removes one saved app.
func (s *Store) DeleteApp(id string) error {
	result, err := s.db.Exec("DELETE FROM apps WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("app %s not found", id)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(b), nil
}
