// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite log of research answers so past
// sessions can be listed, searched, and exported. The pipeline only writes
// to it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrNotFound is returned by Get for an unknown answer ID.
var ErrNotFound = errors.New("answer not found")

const defaultLimit = 20

// Store manages the history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS answers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			synthesis TEXT NOT NULL,
			raw_results TEXT NOT NULL,
			intent TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_created_at ON answers(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores answer, replacing any earlier answer with the same ID.
func (s *Store) Record(ctx context.Context, answer *types.ResearchAnswer) error {
	if answer == nil || answer.ID == "" {
		return fmt.Errorf("answer has no ID")
	}

	raw := answer.RawResults
	if raw == nil {
		raw = []types.SourceResult{}
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling raw results: %w", err)
	}

	var intentJSON sql.NullString
	if answer.Intent != nil {
		b, err := json.Marshal(answer.Intent)
		if err != nil {
			return fmt.Errorf("marshaling intent: %w", err)
		}
		intentJSON = sql.NullString{String: string(b), Valid: true}
	}

	created := answer.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO answers (id, query, synthesis, raw_results, intent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			synthesis = excluded.synthesis,
			raw_results = excluded.raw_results,
			intent = excluded.intent,
			created_at = excluded.created_at`,
		answer.ID, answer.Query, answer.Synthesis, string(rawJSON), intentJSON,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting answer %s: %w", answer.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, query, synthesis, raw_results, intent, created_at FROM answers`

// Recent returns up to limit answers, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.ResearchAnswer, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying answers: %w", err)
	}
	return scanAnswers(rows)
}

// Search returns up to limit answers whose question or synthesis contains
// text, newest first. Matching is case-insensitive for ASCII.
func (s *Store) Search(ctx context.Context, text string, limit int) ([]types.ResearchAnswer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Recent(ctx, limit)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + escapeLike(text) + "%"
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE query LIKE ? ESCAPE '\' OR synthesis LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching answers: %w", err)
	}
	return scanAnswers(rows)
}

// Get returns one answer by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.ResearchAnswer, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying answer %s: %w", id, err)
	}
	answers, err := scanAnswers(rows)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return &answers[0], nil
}

// Count returns the number of stored answers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM answers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting answers: %w", err)
	}
	return n, nil
}

func scanAnswers(rows *sql.Rows) ([]types.ResearchAnswer, error) {
	defer rows.Close()

	answers := []types.ResearchAnswer{}
	for rows.Next() {
		var (
			a          types.ResearchAnswer
			rawJSON    string
			intentJSON sql.NullString
			created    string
		)
		if err := rows.Scan(&a.ID, &a.Query, &a.Synthesis, &rawJSON, &intentJSON, &created); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		if err := json.Unmarshal([]byte(rawJSON), &a.RawResults); err != nil {
			return nil, fmt.Errorf("decoding raw results of %s: %w", a.ID, err)
		}
		if intentJSON.Valid && intentJSON.String != "" {
			var in types.Intent
			if err := json.Unmarshal([]byte(intentJSON.String), &in); err != nil {
				return nil, fmt.Errorf("decoding intent of %s: %w", a.ID, err)
			}
			a.Intent = &in
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			a.CreatedAt = t
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating answers: %w", err)
	}
	return answers, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
