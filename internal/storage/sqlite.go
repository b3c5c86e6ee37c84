package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tazhate/eventbot/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the catalog in a sqlite database. Times are stored as
// RFC 3339 UTC strings, lead times and the ledger as JSON columns.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			start_at TEXT NOT NULL,
			recurrence TEXT NOT NULL DEFAULT 'none',
			lead_minutes TEXT NOT NULL DEFAULT '[]',
			ledger TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_chat_id ON events(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_start_at ON events(start_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load() (*domain.Catalog, error) {
	rows, err := s.db.Query(`SELECT id, chat_id, title, start_at, recurrence, lead_minutes, ledger, created_at FROM events ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	cat := &domain.Catalog{}
	for rows.Next() {
		var (
			e                          domain.Event
			startAt, createdAt         string
			rec, leadsJSON, ledgerJSON string
		)
		if err := rows.Scan(&e.ID, &e.ChatID, &e.Title, &startAt, &rec, &leadsJSON, &ledgerJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.StartAt, err = time.Parse(time.RFC3339Nano, startAt); err != nil {
			return nil, fmt.Errorf("parse start_at of %s: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", e.ID, err)
		}
		e.Recurrence = domain.Recurrence(rec)
		if err := json.Unmarshal([]byte(leadsJSON), &e.LeadMinutes); err != nil {
			return nil, fmt.Errorf("decode lead_minutes of %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(ledgerJSON), &e.Ledger); err != nil {
			return nil, fmt.Errorf("decode ledger of %s: %w", e.ID, err)
		}
		cat.Events = append(cat.Events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return cat, nil
}

func (s *SQLiteStore) Save(cat *domain.Catalog) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO events (id, chat_id, title, start_at, recurrence, lead_minutes, ledger, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range cat.Events {
		leadsJSON, err := json.Marshal(e.LeadMinutes)
		if err != nil {
			return fmt.Errorf("encode lead_minutes of %s: %w", e.ID, err)
		}
		ledger := e.Ledger
		if ledger == nil {
			ledger = domain.Ledger{}
		}
		ledgerJSON, err := json.Marshal(ledger)
		if err != nil {
			return fmt.Errorf("encode ledger of %s: %w", e.ID, err)
		}
		_, err = stmt.Exec(
			e.ID,
			e.ChatID,
			e.Title,
			e.StartAt.UTC().Format(time.RFC3339Nano),
			string(e.Recurrence),
			string(leadsJSON),
			string(ledgerJSON),
			e.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
