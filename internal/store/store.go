// Package store persists engine state across restarts.
//
// SQLite holds the rule set, the capped rule-update history, override
// counters, and the last metrics snapshot. Predictions and alerts are
// deliberately absent: they are recomputed from fresh duty-state input
// every run.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/roadwise/hoswatch/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS rules (
	id  TEXT PRIMARY KEY,
	ord INTEGER NOT NULL,
	doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rule_updates (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS override_marks (
	ts TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// SQLite serializes writers; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRules replaces the persisted rule set in one transaction.
func (s *Store) SaveRules(rules []model.Rule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM rules`); err != nil {
		return fmt.Errorf("store: clear rules: %w", err)
	}
	for i, r := range rules {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("store: marshal rule %s: %w", r.ID, err)
		}
		if _, err := tx.Exec(`INSERT INTO rules (id, ord, doc) VALUES (?, ?, ?)`, r.ID, i, string(doc)); err != nil {
			return fmt.Errorf("store: insert rule %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// LoadRules returns the persisted rule set in saved order, nil when none
// has been saved yet.
func (s *Store) LoadRules() ([]model.Rule, error) {
	rows, err := s.db.Query(`SELECT doc FROM rules ORDER BY ord`)
	if err != nil {
		return nil, fmt.Errorf("store: query rules: %w", err)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("store: scan rule: %w", err)
		}
		var r model.Rule
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("store: parse rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendUpdates appends rule-update notifications, trimming the history
// to cap entries.
func (s *Store) AppendUpdates(notes []model.RuleUpdateNotification, cap int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	for _, n := range notes {
		doc, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("store: marshal update: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO rule_updates (doc) VALUES (?)`, string(doc)); err != nil {
			return fmt.Errorf("store: insert update: %w", err)
		}
	}
	if cap > 0 {
		if _, err := tx.Exec(`DELETE FROM rule_updates WHERE seq NOT IN (SELECT seq FROM rule_updates ORDER BY seq DESC LIMIT ?)`, cap); err != nil {
			return fmt.Errorf("store: trim updates: %w", err)
		}
	}
	return tx.Commit()
}

// LoadUpdates returns the persisted notification history, oldest first.
func (s *Store) LoadUpdates() ([]model.RuleUpdateNotification, error) {
	rows, err := s.db.Query(`SELECT doc FROM rule_updates ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("store: query updates: %w", err)
	}
	defer rows.Close()

	var out []model.RuleUpdateNotification
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("store: scan update: %w", err)
		}
		var n model.RuleUpdateNotification
		if err := json.Unmarshal([]byte(doc), &n); err != nil {
			return nil, fmt.Errorf("store: parse update: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SaveOverrideState persists the cumulative override count and the grant
// times still inside the rolling week.
func (s *Store) SaveOverrideState(total int, marks []time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if err := setState(tx, "overrides_used", fmt.Sprintf("%d", total)); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM override_marks`); err != nil {
		return fmt.Errorf("store: clear marks: %w", err)
	}
	for _, m := range marks {
		if _, err := tx.Exec(`INSERT INTO override_marks (ts) VALUES (?)`, m.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("store: insert mark: %w", err)
		}
	}
	return tx.Commit()
}

// LoadOverrideState returns the persisted override counters.
func (s *Store) LoadOverrideState() (total int, marks []time.Time, err error) {
	var v string
	switch err := s.db.QueryRow(`SELECT value FROM state WHERE key = 'overrides_used'`).Scan(&v); err {
	case nil:
		if _, err := fmt.Sscanf(v, "%d", &total); err != nil {
			return 0, nil, fmt.Errorf("store: parse overrides_used: %w", err)
		}
	case sql.ErrNoRows:
	default:
		return 0, nil, fmt.Errorf("store: read overrides_used: %w", err)
	}

	rows, err := s.db.Query(`SELECT ts FROM override_marks ORDER BY ts`)
	if err != nil {
		return 0, nil, fmt.Errorf("store: query marks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ts string
		if err := rows.Scan(&ts); err != nil {
			return 0, nil, fmt.Errorf("store: scan mark: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return 0, nil, fmt.Errorf("store: parse mark: %w", err)
		}
		marks = append(marks, t)
	}
	return total, marks, rows.Err()
}

// SaveMetrics persists the latest metrics snapshot.
func (s *Store) SaveMetrics(m model.ComplianceMetrics) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("store: marshal metrics: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()
	if err := setState(tx, "metrics", string(doc)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadMetrics returns the persisted metrics snapshot; ok is false when
// none has been saved.
func (s *Store) LoadMetrics() (m model.ComplianceMetrics, ok bool, err error) {
	var doc string
	switch err := s.db.QueryRow(`SELECT value FROM state WHERE key = 'metrics'`).Scan(&doc); err {
	case nil:
	case sql.ErrNoRows:
		return model.ComplianceMetrics{}, false, nil
	default:
		return model.ComplianceMetrics{}, false, fmt.Errorf("store: read metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return model.ComplianceMetrics{}, false, fmt.Errorf("store: parse metrics: %w", err)
	}
	return m, true, nil
}

func setState(tx *sql.Tx, key, value string) error {
	if _, err := tx.Exec(`INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}
