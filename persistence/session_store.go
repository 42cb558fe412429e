// Package persistence provides the SQLite-backed stores the service keeps
// its durable state in.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/uigen/catalog"
	"github.com/lexcodex/uigen/validator"
	"github.com/lexcodex/uigen/workflow"
)

// SessionStore persists workflow sessions in a SQLite database. Structured
// fields (component refs, diagnostics) are stored as JSON columns; the table
// is keyed by session id and rows are upserted once per turn.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore opens/creates the database at dbPath.
func NewSessionStore(dbPath string) (*SessionStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	store := &SessionStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SessionStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		new_query TEXT,
		code TEXT,
		components TEXT,
		instructions TEXT,
		diagnostics TEXT,
		last_error TEXT,
		updated_at TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *SessionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load fetches a session by id, (nil, nil) when none exists.
func (s *SessionStore) Load(ctx context.Context, id string) (*workflow.Session, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, query, new_query, code, components, instructions, diagnostics, last_error, updated_at
	FROM sessions WHERE id = ?`, id)

	var sess workflow.Session
	var components, diagnostics []byte
	err := row.Scan(&sess.ID, &sess.Query, &sess.NewQuery, &sess.Code,
		&components, &sess.Instructions, &diagnostics, &sess.LastError, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if len(components) > 0 {
		if err := json.Unmarshal(components, &sess.Components); err != nil {
			return nil, fmt.Errorf("decode components for %s: %w", id, err)
		}
	}
	if len(diagnostics) > 0 {
		if err := json.Unmarshal(diagnostics, &sess.Diagnostics); err != nil {
			return nil, fmt.Errorf("decode diagnostics for %s: %w", id, err)
		}
	}
	return &sess, nil
}

// Save upserts a session row.
func (s *SessionStore) Save(ctx context.Context, sess *workflow.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session with id required")
	}
	components, err := encodeRefs(sess.Components)
	if err != nil {
		return err
	}
	diagnostics, err := encodeDiagnostics(sess.Diagnostics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO sessions (id, query, new_query, code, components, instructions, diagnostics, last_error, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		query=excluded.query,
		new_query=excluded.new_query,
		code=excluded.code,
		components=excluded.components,
		instructions=excluded.instructions,
		diagnostics=excluded.diagnostics,
		last_error=excluded.last_error,
		updated_at=excluded.updated_at`,
		sess.ID, sess.Query, sess.NewQuery, sess.Code,
		components, sess.Instructions, diagnostics, sess.LastError, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session row. Deleting an absent id is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

func encodeRefs(refs []catalog.Ref) ([]byte, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return nil, fmt.Errorf("encode components: %w", err)
	}
	return data, nil
}

func encodeDiagnostics(diags []validator.Diagnostic) ([]byte, error) {
	if len(diags) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(diags)
	if err != nil {
		return nil, fmt.Errorf("encode diagnostics: %w", err)
	}
	return data, nil
}
