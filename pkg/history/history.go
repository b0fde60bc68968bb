// Package history keeps a SQLite-backed log of past analysis requests.
// Only summaries are stored - never source code or token streams - so the
// core's per-scan entities stay ephemeral.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/antibyte/lexana/pkg/configuration"
	"github.com/antibyte/lexana/pkg/logger"
)

// Store wraps the SQLite connection for the request log.
type Store struct {
	db        *sql.DB
	retention time.Duration
}

// Entry is one logged analysis request.
type Entry struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Language    string    `json:"language"`
	Confidence  string    `json:"confidence"`
	TotalTokens int       `json:"total_tokens"`
	ErrorCount  int       `json:"error_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Open initializes the database connection and ensures the schema exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{
		db:        db,
		retention: configuration.GetDuration("Database", "history_retention", 720*time.Hour),
	}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS analysis_history (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			language TEXT NOT NULL,
			confidence TEXT NOT NULL,
			total_tokens INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created_at
			ON analysis_history (created_at)`,
		`CREATE TABLE IF NOT EXISTS admin_credentials (
			name TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Record inserts one entry and prunes everything past the retention window.
func (s *Store) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO analysis_history
			(id, session_id, language, confidence, total_tokens, error_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Language, e.Confidence, e.TotalTokens, e.ErrorCount, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}

	if pruned, err := s.Prune(); err != nil {
		logger.Error(logger.AreaDatabase, "history pruning failed: %v", err)
	} else if pruned > 0 {
		logger.Debug(logger.AreaDatabase, "pruned %d expired history entries", pruned)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, language, confidence, total_tokens, error_count, created_at
		 FROM analysis_history ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Language, &e.Confidence,
			&e.TotalTokens, &e.ErrorCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentBySession returns the newest entries of one session, newest first.
func (s *Store) RecentBySession(sessionID string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, language, confidence, total_tokens, error_count, created_at
		 FROM analysis_history WHERE session_id = ?
		 ORDER BY created_at DESC, id LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Language, &e.Confidence,
			&e.TotalTokens, &e.ErrorCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the retention window.
func (s *Store) Prune() (int64, error) {
	cutoff := time.Now().Add(-s.retention).Unix()
	result, err := s.db.Exec(`DELETE FROM analysis_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Clear removes all logged entries. Gated behind the admin credential at
// the API layer.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM analysis_history`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetAdminPassword stores the bcrypt hash of the admin credential.
func (s *Store) SetAdminPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO admin_credentials (name, password_hash, created_at)
		 VALUES ('admin', ?, ?)
		 ON CONFLICT(name) DO UPDATE SET password_hash = excluded.password_hash`,
		string(hash), time.Now().Unix())
	return err
}

// VerifyAdminPassword checks a candidate against the stored hash. A missing
// credential never verifies.
func (s *Store) VerifyAdminPassword(password string) bool {
	var hash string
	err := s.db.QueryRow(
		`SELECT password_hash FROM admin_credentials WHERE name = 'admin'`).Scan(&hash)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Close shuts the database connection down.
func (s *Store) Close() error {
	return s.db.Close()
}
