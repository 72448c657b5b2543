// Package store persists research turns to SQLite so past sessions can be
// listed with `neon history`. Recording is optional; the session history in
// memory is authoritative for the running process.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"neonresearch/internal/logging"
	"neonresearch/internal/types"
)

// Record is a stored turn with its session coordinates.
type Record struct {
	SessionID string
	Number    int // 1-based position within the session
	Turn      types.Turn
}

// HistoryStore is the SQLite transcript of research turns.
type HistoryStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewHistoryStore opens (creating if needed) the database at path.
func NewHistoryStore(path string) (*HistoryStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewHistoryStore")
	defer timer.Stop()

	logging.Store("Opening history store at path: %s", path)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	store := &HistoryStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *HistoryStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS research_turns (
		session_id TEXT NOT NULL,
		turn_number INTEGER NOT NULL,
		query TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, turn_number)
	);
	CREATE INDEX IF NOT EXISTS idx_research_turns_created ON research_turns(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create research_turns table: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *HistoryStore) Path() string { return s.dbPath }

// RecordTurn stores one turn.
// Uses INSERT OR IGNORE so re-recording the same turn number is a no-op.
func (s *HistoryStore) RecordTurn(ctx context.Context, sessionID string, number int, turn types.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(turn.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	at := turn.At
	if at.IsZero() {
		at = time.Now()
	}

	logging.StoreDebug("Storing research turn: session=%s turn=%d query_len=%d", sessionID, number, len(turn.Query))
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO research_turns (session_id, turn_number, query, result_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, number, turn.Query, string(resultJSON), at.UnixMilli(),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to store research turn: session=%s turn=%d: %v", sessionID, number, err)
		return fmt.Errorf("failed to store turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns across all sessions, newest first.
func (s *HistoryStore) RecentTurns(ctx context.Context, limit int) ([]Record, error) {
	timer := logging.StartTimer(logging.CategoryStore, "RecentTurns")
	defer timer.Stop()

	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx,
		`SELECT session_id, turn_number, query, result_json, created_at
		 FROM research_turns
		 ORDER BY created_at DESC, turn_number DESC
		 LIMIT ?`,
		limit,
	)
}

// SessionTurns returns every turn of one session in submission order.
func (s *HistoryStore) SessionTurns(ctx context.Context, sessionID string) ([]Record, error) {
	return s.query(ctx,
		`SELECT session_id, turn_number, query, result_json, created_at
		 FROM research_turns
		 WHERE session_id = ?
		 ORDER BY turn_number ASC`,
		sessionID,
	)
}

func (s *HistoryStore) query(ctx context.Context, q string, args ...interface{}) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to query research turns: %v", err)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			resultJSON string
			createdAt  int64
		)
		if err := rows.Scan(&rec.SessionID, &rec.Number, &rec.Turn.Query, &resultJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &rec.Turn.Result); err != nil {
			logging.StoreDebug("Skipping turn with corrupt result: session=%s turn=%d: %v", rec.SessionID, rec.Number, err)
			continue
		}
		rec.Turn.At = time.UnixMilli(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	logging.StoreDebug("Retrieved %d research turns", len(records))
	return records, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
