package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/endi/internal/model"

	_ "modernc.org/sqlite"
)

// openDB is swapped in tests
var openDB = sql.Open

// SQLite stores facts and knowledge entries in two tables.
// Row order follows insertion order, which matches the in-memory order.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS facts (
			seq       INTEGER PRIMARY KEY AUTOINCREMENT,
			id        TEXT NOT NULL UNIQUE,
			subject   TEXT NOT NULL,
			predicate TEXT NOT NULL,
			object    TEXT NOT NULL,
			source    TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entries (
			seq     INTEGER PRIMARY KEY AUTOINCREMENT,
			id      TEXT NOT NULL UNIQUE,
			title   TEXT NOT NULL,
			content TEXT NOT NULL,
			type    TEXT NOT NULL,
			tags    TEXT NOT NULL DEFAULT '[]',
			created TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_facts_subject ON facts(subject);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads every fact and entry in insertion order
func (s *SQLite) Load() (Document, error) {
	var doc Document

	rows, err := s.db.Query(`SELECT id, subject, predicate, object, source, timestamp FROM facts ORDER BY seq`)
	if err != nil {
		return Document{}, fmt.Errorf("sqlite: query facts: %w", err)
	}
	for rows.Next() {
		var f model.Fact
		if err := rows.Scan(&f.ID, &f.Subject, &f.Predicate, &f.Object, &f.Source, &f.Timestamp); err != nil {
			_ = rows.Close()
			return Document{}, fmt.Errorf("sqlite: scan fact: %w", err)
		}
		doc.Facts = append(doc.Facts, f)
	}
	if err := rows.Close(); err != nil {
		return Document{}, fmt.Errorf("sqlite: read facts: %w", err)
	}

	rows, err = s.db.Query(`SELECT id, title, content, type, tags, created FROM entries ORDER BY seq`)
	if err != nil {
		return Document{}, fmt.Errorf("sqlite: query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			e    model.KnowledgeEntry
			kind string
			tags string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Content, &kind, &tags, &e.Created); err != nil {
			return Document{}, fmt.Errorf("sqlite: scan entry: %w", err)
		}
		e.Type = model.KnowledgeType(kind)
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			return Document{}, fmt.Errorf("sqlite: decode tags of %s: %w", e.ID, err)
		}
		doc.Entries = append(doc.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Document{}, fmt.Errorf("sqlite: read entries: %w", err)
	}

	return doc, nil
}

// Save replaces both tables in a single transaction
func (s *SQLite) Save(doc Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM facts`, `DELETE FROM entries`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: %s: %w", stmt, err)
		}
	}

	for _, f := range doc.Facts {
		if _, err := tx.Exec(
			`INSERT INTO facts (id, subject, predicate, object, source, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Subject, f.Predicate, f.Object, f.Source, f.Timestamp,
		); err != nil {
			return fmt.Errorf("sqlite: insert fact %s: %w", f.ID, err)
		}
	}

	for _, e := range doc.Entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		encoded, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("sqlite: encode tags of %s: %w", e.ID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO entries (id, title, content, type, tags, created) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Title, e.Content, string(e.Type), string(encoded), e.Created,
		); err != nil {
			return fmt.Errorf("sqlite: insert entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLite) Close() error {
	return s.db.Close()
}
