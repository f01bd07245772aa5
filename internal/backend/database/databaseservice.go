package database

import (
	"context"
	"database/sql"
)

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// AddEntry stores entry, assigning ID and CreatedAt when unset, and returns the stored ID.
	AddEntry(ctx context.Context, entry *Entry) (string, error)
	// GetRecentEntries returns at most limit entries, newest first.
	GetRecentEntries(ctx context.Context, limit int) ([]*Entry, error)
	GetEntryByID(ctx context.Context, id string) (*Entry, error)
}
