// Package archive stores converted transcripts in SQLite so earlier
// conversions can be listed and retrieved again.
//
// It uses modernc.org/sqlite, a cgo-free driver, so the archive is a single
// file and the binary cross-compiles.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gaurav-prasanna/chatmark/core"
)

// FileName is the archive's file name inside the data directory.
const FileName = "archive.db"

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("transcript not found")

// Store is a SQLite-backed transcript archive.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one archived conversion.
type Record struct {
	ID          int64
	Title       string
	Source      string
	PageTitle   string
	ConvertedAt string
	TurnCount   int
	Markdown    string
	// Turns is only populated by Get.
	Turns []core.Turn
}

// DefaultPath returns the archive location under the XDG data directory.
// On Linux: ~/.local/share/chatmark/archive.db
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "chatmark", FileName)
}

// Open opens or creates the archive at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating archive tables: %w", err)
	}
	return s, nil
}

// Path returns the archive file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		source TEXT NOT NULL,
		page_title TEXT,
		converted_at TEXT NOT NULL,
		turn_count INTEGER NOT NULL,
		markdown TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_source ON transcripts(source);

	CREATE TABLE IF NOT EXISTS turns (
		transcript_id INTEGER NOT NULL REFERENCES transcripts(id),
		position INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (transcript_id, position)
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save archives t together with its rendered Markdown and returns the new
// record id.
func (s *Store) Save(ctx context.Context, t core.Transcript, markdown string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	convertedAt := t.Meta.ConvertedAt
	if convertedAt == "" {
		convertedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO transcripts (title, source, page_title, converted_at, turn_count, markdown)
	VALUES (?, ?, ?, ?, ?, ?)`,
		t.Title, t.Meta.Source, t.Meta.PageTitle, convertedAt, len(t.Turns), markdown,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting transcript: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading transcript id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO turns (transcript_id, position, role, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing turn insert: %w", err)
	}
	defer stmt.Close()

	for i, turn := range t.Turns {
		if _, err := stmt.ExecContext(ctx, id, i, string(turn.Role), turn.Content); err != nil {
			return 0, fmt.Errorf("inserting turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transcript: %w", err)
	}
	return id, nil
}

// List returns up to limit records, newest first, without their turns.
// A limit of zero or less lists everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, title, source, page_title, converted_at, turn_count, markdown
	FROM transcripts
	ORDER BY id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			pageTitle sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Source, &pageTitle, &r.ConvertedAt, &r.TurnCount, &r.Markdown); err != nil {
			return nil, fmt.Errorf("scanning transcript: %w", err)
		}
		r.PageTitle = pageTitle.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}
	return records, nil
}

// Get returns the record with the given id, including its turns.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	var (
		r         Record
		pageTitle sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, title, source, page_title, converted_at, turn_count, markdown
	FROM transcripts WHERE id = ?`, id).
		Scan(&r.ID, &r.Title, &r.Source, &pageTitle, &r.ConvertedAt, &r.TurnCount, &r.Markdown)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("getting transcript: %w", err)
	}
	r.PageTitle = pageTitle.String

	rows, err := s.db.QueryContext(ctx, `SELECT role, content FROM turns WHERE transcript_id = ? ORDER BY position`, id)
	if err != nil {
		return Record{}, fmt.Errorf("getting turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return Record{}, fmt.Errorf("scanning turn: %w", err)
		}
		r.Turns = append(r.Turns, core.Turn{Role: core.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("getting turns: %w", err)
	}
	return r, nil
}
