package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestDB(t *testing.T) DatabaseService {
	t.Helper()

	ds, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	_, err = ds.CreateDatabase()
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestSQLite_DoesDatabaseExist(t *testing.T) {
	ds := newTestDB(t)
	if !ds.DoesDatabaseExist() {
		t.Fatalf("expected DoesDatabaseExist to return true")
	}
}

func TestSQLite_CreateDatabaseIsIdempotent(t *testing.T) {
	ds := newTestDB(t)
	if _, err := ds.CreateDatabase(); err != nil {
		t.Fatalf("second CreateDatabase error: %v", err)
	}
}

func TestSQLite_AddEntry_AssignsIDAndTimestamp(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	entry := &Entry{SourceURL: "http://x/img.png", OpCount: 2, Status: StatusOK, DurationMs: 12, OutputBytes: 345}
	id, err := ds.AddEntry(ctx, entry)
	if err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}
	if id == "" || entry.ID != id {
		t.Fatalf("expected assigned ID, got %q (entry %q)", id, entry.ID)
	}
	if entry.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	got, err := ds.GetEntryByID(ctx, id)
	if err != nil {
		t.Fatalf("GetEntryByID error: %v", err)
	}
	if got.SourceURL != entry.SourceURL || got.OpCount != 2 || got.Status != StatusOK ||
		got.DurationMs != 12 || got.OutputBytes != 345 || got.Error != "" {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if !got.CreatedAt.Equal(entry.CreatedAt) {
		t.Fatalf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, entry.CreatedAt)
	}
}

func TestSQLite_AddEntry_Nil(t *testing.T) {
	ds := newTestDB(t)
	if _, err := ds.AddEntry(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil entry")
	}
}

func TestSQLite_AddEntry_DuplicateID(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	if _, err := ds.AddEntry(ctx, &Entry{ID: "same", Status: StatusProcessing}); err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}
	if _, err := ds.AddEntry(ctx, &Entry{ID: "same", Status: StatusProcessing}); err == nil {
		t.Fatalf("expected error on duplicate ID")
	}
}

func TestSQLite_GetRecentEntries_NewestFirst(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, status := range []string{StatusOK, StatusProcessing, StatusOK} {
		entry := &Entry{
			SourceURL: "http://x/img.png",
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if status == StatusProcessing {
			entry.Error = "processing failed"
		}
		if _, err := ds.AddEntry(ctx, entry); err != nil {
			t.Fatalf("AddEntry #%d error: %v", i, err)
		}
	}

	entries, err := ds.GetRecentEntries(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentEntries error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected newest entry first, got %v", entries[0].CreatedAt)
	}
	if entries[1].Status != StatusProcessing || entries[1].Error != "processing failed" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}

	all, err := ds.GetRecentEntries(ctx, 50)
	if err != nil {
		t.Fatalf("GetRecentEntries error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
}

func TestSQLite_GetRecentEntries_Empty(t *testing.T) {
	ds := newTestDB(t)

	entries, err := ds.GetRecentEntries(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetRecentEntries error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}

	entries, err = ds.GetRecentEntries(context.Background(), 0)
	if err != nil || entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice for zero limit, got %v, %v", entries, err)
	}
}

func TestSQLite_GetEntryByID_NotFound(t *testing.T) {
	ds := newTestDB(t)

	_, err := ds.GetEntryByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewDatabase(t *testing.T) {
	ds, err := NewDatabase("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	defer func() { _ = ds.Close() }()

	if _, err := ds.AddEntry(context.Background(), &Entry{Status: StatusOK}); err != nil {
		t.Fatalf("AddEntry after NewDatabase error: %v", err)
	}

	if _, err := NewDatabase("postgres", "whatever"); err == nil {
		t.Fatalf("expected error for unsupported database type")
	}
}
