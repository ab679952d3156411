// Package artifacts records the IR of every compiled unit in a SQLite
// database so a session's code generation can be inspected afterwards.
package artifacts

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Unit kinds.
const (
	KindFunction   = "function"
	KindExpression = "expression"
)

// Record is one stored unit. Source is the formatted code it was lowered from.
type Record struct {
	Handle    uuid.UUID
	Name      string
	Kind      string
	Source    string
	IR        string
	CreatedAt time.Time
	Retired   bool
}

// Store persists unit records.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS units (
	handle     TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	ir         TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	retired    INTEGER NOT NULL DEFAULT 0
)`

// Open opens or creates the store at path. ":memory:" keeps it in memory.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open artifact store %s", path)
	}
	// A single connection keeps an in-memory database shared.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open artifact store %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create artifact schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts r.
func (s *Store) Save(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO units (handle, name, kind, source, ir, created_at, retired) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Handle.String(), r.Name, r.Kind, r.Source, r.IR, r.CreatedAt.UnixNano(), r.Retired)
	return errors.Wrapf(err, "save unit %s", r.Name)
}

// Retire marks the unit with handle h as removed from the engine.
func (s *Store) Retire(ctx context.Context, h uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE units SET retired = 1 WHERE handle = ?`, h.String())
	if err != nil {
		return errors.Wrapf(err, "retire unit %s", h)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "retire unit %s", h)
	}
	if n == 0 {
		return errors.Errorf("unit %s not found", h)
	}
	return nil
}

// Get returns the record for handle h.
func (s *Store) Get(ctx context.Context, h uuid.UUID) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT handle, name, kind, source, ir, created_at, retired FROM units WHERE handle = ?`, h.String())
	r, err := scan(row)
	if err == sql.ErrNoRows {
		return Record{}, errors.Errorf("unit %s not found", h)
	}
	return r, err
}

// List returns all records in insertion order, optionally only those with
// the given kind.
func (s *Store) List(ctx context.Context, kind string) ([]Record, error) {
	query := `SELECT handle, name, kind, source, ir, created_at, retired FROM units`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list units")
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "list units")
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Record, error) {
	var (
		r       Record
		handle  string
		created int64
	)
	if err := row.Scan(&handle, &r.Name, &r.Kind, &r.Source, &r.IR, &created, &r.Retired); err != nil {
		if err == sql.ErrNoRows {
			return Record{}, err
		}
		return Record{}, errors.Wrap(err, "scan unit")
	}
	h, err := uuid.Parse(handle)
	if err != nil {
		return Record{}, errors.Wrapf(err, "unit handle %q", handle)
	}
	r.Handle = h
	r.CreatedAt = time.Unix(0, created)
	return r, nil
}
