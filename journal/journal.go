// Package journal records workflow lifecycle events in SQLite.
//
// A Journal is an event.Sink: attach it to a workflow through event.NewTap.
// Rows are append-only and numbered by seq in write order.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
)

//go:embed schema.sql
var schemaSQL string

// Entry is a stored record and its sequence number
type Entry struct {
	Seq int64
	event.Record
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Workflow string
	Scope    string
	Type     string
	// AfterSeq skips entries up to and including this sequence number
	AfterSeq int64
	Limit    int
}

// Journal is a SQLite-backed event store
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal at path. ":memory:" gives a private
// in-memory journal.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("empty path: %w", errors.ErrInvalidConfig), "Journal", "Open", "path validation")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Journal", "Open", "open database")
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// pointing at one database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WrapFatal(err, "Journal", "Open", "connect")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.WrapFatal(fmt.Errorf("%s: %w", pragma, err), "Journal", "Open", "apply pragmas")
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.WrapFatal(err, "Journal", "Open", "apply schema")
	}

	return &Journal{db: db}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Ping checks that the database is reachable
func (j *Journal) Ping(ctx context.Context) error {
	if err := j.db.PingContext(ctx); err != nil {
		return errors.WrapTransient(err, "Journal", "Ping", "database ping")
	}
	return nil
}

// Name implements event.Sink
func (j *Journal) Name() string { return "journal" }

// Write implements event.Sink
func (j *Journal) Write(ctx context.Context, r event.Record) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (at, scope, workflow, type, type_id, source, target, container_id, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.At.UTC().Format(time.RFC3339Nano), r.Scope, r.Workflow, r.Type, r.TypeID,
		r.Source, r.Target, r.ContainerID, r.Message,
	)
	if err != nil {
		return errors.WrapTransient(err, "Journal", "Write", "insert event")
	}
	return nil
}

// Entries returns the entries matching f in seq order
func (j *Journal) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Workflow != "" {
		where, args = append(where, "workflow = ?"), append(args, f.Workflow)
	}
	if f.Scope != "" {
		where, args = append(where, "scope = ?"), append(args, f.Scope)
	}
	if f.Type != "" {
		where, args = append(where, "type = ?"), append(args, f.Type)
	}
	if f.AfterSeq > 0 {
		where, args = append(where, "seq > ?"), append(args, f.AfterSeq)
	}

	query := `SELECT seq, at, scope, workflow, type, type_id, source, target, container_id, message FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapTransient(err, "Journal", "Entries", "query events")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			at string
		)
		if err := rows.Scan(&e.Seq, &at, &e.Scope, &e.Workflow, &e.Type, &e.TypeID,
			&e.Source, &e.Target, &e.ContainerID, &e.Message); err != nil {
			return nil, errors.Wrap(err, "Journal", "Entries", "scan event")
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, errors.Wrap(err, "Journal", "Entries", "parse timestamp")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Journal", "Entries", "iterate events")
	}
	return out, nil
}

// Count returns the number of entries of workflow, or of every workflow
// when it is empty
func (j *Journal) Count(ctx context.Context, workflow string) (int, error) {
	query, args := `SELECT COUNT(*) FROM events`, []any{}
	if workflow != "" {
		query, args = query+` WHERE workflow = ?`, append(args, workflow)
	}
	var n int
	if err := j.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.WrapTransient(err, "Journal", "Count", "count events")
	}
	return n, nil
}
