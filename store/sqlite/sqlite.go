/*
Package sqlite provides a SQLite-backed document store.

PURPOSE:
  Persists the state document in a single-row table, with pre-migration
  backups in an append-only side table. The document is still one JSON
  payload - SQLite supplies durability and atomic replacement, not a
  relational schema.

KEY TABLES:
  document: exactly one row (id=1) holding the current JSON payload
  backups:  append-only, timestamped raw copies taken before a schema
            migration transformed an older payload

BACKUP INVARIANT:
  Rows in backups are never updated or deleted.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better crash
  recovery; the ledger is the single writer.

USAGE:
  docs, err := sqlite.New("./data/loop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer docs.Close()
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements the ledger DocumentStore and migrate BackupWriter
// interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite document store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS document (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		body TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Append-only: rows are never updated or deleted.
	CREATE TABLE IF NOT EXISTS backups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at TEXT NOT NULL,
		body TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the document payload, or nil when none has been saved.
func (s *Store) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body string
	err := s.db.QueryRow(`SELECT body FROM document WHERE id = 1`).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return []byte(body), nil
}

// Save replaces the document. Last write wins.
func (s *Store) Save(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO document (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// WriteBackup appends an untouched raw copy to the backups table and
// returns its row reference.
func (s *Store) WriteBackup(raw []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO backups (taken_at, body) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339), string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("backups/%d", id), nil
}

// BackupCount returns how many pre-migration backups have been taken.
func (s *Store) BackupCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM backups`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
