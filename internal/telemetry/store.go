// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ============================================================================
// SQLITE STORE
// ============================================================================

const schemaSQL = `
CREATE TABLE IF NOT EXISTS routing_events (
	id            TEXT PRIMARY KEY,
	span_id       TEXT NOT NULL,
	kind          TEXT NOT NULL,
	timestamp     TEXT NOT NULL,
	route         TEXT,
	confidence    REAL,
	reasons       TEXT,
	current_tier  TEXT,
	next_tier     TEXT,
	terminal      INTEGER NOT NULL DEFAULT 0,
	category      TEXT,
	success       INTEGER NOT NULL DEFAULT 0,
	duration_ms   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_routing_events_span ON routing_events(span_id);
CREATE INDEX IF NOT EXISTS idx_routing_events_time ON routing_events(timestamp);
`

// Store persists routing events to SQLite. It implements Writer and is safe
// for concurrent use (database/sql pools connections).
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed creates) the event database at path.
// An empty path defaults to ~/.rigrun/router-events.db.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".rigrun", "router-events.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create event schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Write persists one event.
func (s *Store) Write(ev Event) error {
	reasons, err := json.Marshal(ev.Reasons)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO routing_events
		 (id, span_id, kind, timestamp, route, confidence, reasons,
		  current_tier, next_tier, terminal, category, success, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SpanID, string(ev.Kind), ev.Timestamp.Format(time.RFC3339Nano),
		ev.Route, ev.Confidence, string(reasons),
		ev.CurrentTier, ev.NextTier, boolToInt(ev.Terminal),
		ev.Category, boolToInt(ev.Success), ev.DurationMs,
	)
	return err
}

// BySpan returns all events of one request chain, oldest first.
func (s *Store) BySpan(spanID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, span_id, kind, timestamp, route, confidence, reasons,
		        current_tier, next_tier, terminal, category, success, duration_ms
		 FROM routing_events WHERE span_id = ? ORDER BY timestamp ASC`, spanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Recent returns the most recent events, newest first.
func (s *Store) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, span_id, kind, timestamp, route, confidence, reasons,
		        current_tier, next_tier, terminal, category, success, duration_ms
		 FROM routing_events ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			ev        Event
			ts        string
			reasons   string
			terminal  int
			success   int
			kind      string
			route     sql.NullString
			curTier   sql.NullString
			nextTier  sql.NullString
			category  sql.NullString
			confValue sql.NullFloat64
		)
		if err := rows.Scan(&ev.ID, &ev.SpanID, &kind, &ts, &route, &confValue, &reasons,
			&curTier, &nextTier, &terminal, &category, &success, &ev.DurationMs); err != nil {
			return nil, err
		}
		ev.Kind = EventKind(kind)
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = t
		}
		ev.Route = route.String
		ev.CurrentTier = curTier.String
		ev.NextTier = nextTier.String
		ev.Category = category.String
		ev.Confidence = confValue.Float64
		ev.Terminal = terminal != 0
		ev.Success = success != 0
		if reasons != "" && reasons != "null" {
			if err := json.Unmarshal([]byte(reasons), &ev.Reasons); err != nil {
				return nil, err
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
