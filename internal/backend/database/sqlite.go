package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no entry matches the requested ID.
var ErrNotFound = errors.New("entry not found")

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		op_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		output_bytes INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS journal_created_at ON journal (created_at)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// the file is created on connect, so a successful ping is enough
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) AddEntry(ctx context.Context, entry *Entry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("entry must not be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal (id, source_url, op_count, status, error, duration_ms, output_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SourceURL, entry.OpCount, entry.Status, entry.Error,
		entry.DurationMs, entry.OutputBytes, entry.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return entry.ID, nil
}

func (s *SQLiteDatabase) GetRecentEntries(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return []*Entry{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_url, op_count, status, error, duration_ms, output_bytes, created_at
		FROM journal ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*Entry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteDatabase) GetEntryByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_url, op_count, status, error, duration_ms, output_bytes, created_at
		FROM journal WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var entry Entry
	var createdAt int64
	if err := row.Scan(&entry.ID, &entry.SourceURL, &entry.OpCount, &entry.Status, &entry.Error,
		&entry.DurationMs, &entry.OutputBytes, &createdAt); err != nil {
		return nil, err
	}
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	return &entry, nil
}
