package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

func newTestRepo(t *testing.T) *EntryRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestEntryBasics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry := &core.Entry{
		Title:     "First day",
		Contents:  "Hello, journal!",
		Tags:      []string{"intro"},
		Timestamp: time.Now().UTC(),
		Vector:    []float32{0.1, 0.2, 0.3},
	}

	added, err := repo.AddEntries(ctx, entry)
	if err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].InsertedAt.IsZero() || !added[0].UpdatedAt.Equal(added[0].InsertedAt) {
		t.Fatal("Expected InsertedAt and UpdatedAt to be set")
	}

	retrieved, err := repo.GetEntry(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if retrieved.Contents != "Hello, journal!" {
		t.Fatalf("Expected 'Hello, journal!', got '%s'", retrieved.Contents)
	}
	if len(retrieved.Vector) != 3 || retrieved.Vector[2] != 0.3 {
		t.Fatalf("Expected vector to round trip, got %v", retrieved.Vector)
	}
}

func TestAddEntries_DefaultsTimestamp(t *testing.T) {
	repo := newTestRepo(t)

	added, err := repo.AddEntries(context.Background(), &core.Entry{Contents: "no timestamp"})
	if err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}
	if !added[0].Timestamp.Equal(added[0].InsertedAt) {
		t.Fatalf("Expected timestamp %v, got %v", added[0].InsertedAt, added[0].Timestamp)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetEntry(context.Background(), core.ID(999))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetEntries_SkipsMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddEntries(ctx, &core.Entry{Contents: "one"}, &core.Entry{Contents: "two"})
	if err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	results, err := repo.GetEntries(ctx, added[0].Id, core.ID(12345), added[1].Id)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(results))
	}
}

func TestUpdateEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	added, err := repo.AddEntries(ctx, &core.Entry{
		Contents:  "original",
		Tags:      []string{"old"},
		Timestamp: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}
	entry := added[0]
	insertedAt := entry.InsertedAt

	entry.Contents = "revised"
	entry.Tags = []string{"new"}
	entry.Timestamp = now
	entry.Vector = []float32{1, 0}
	if _, err := repo.UpdateEntries(ctx, entry); err != nil {
		t.Fatalf("Failed to update entry: %v", err)
	}

	retrieved, err := repo.GetEntry(ctx, entry.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if retrieved.Contents != "revised" {
		t.Errorf("Expected 'revised', got '%s'", retrieved.Contents)
	}
	if !retrieved.InsertedAt.Equal(insertedAt) {
		t.Errorf("Expected InsertedAt to be preserved")
	}

	// Date index follows the new timestamp
	old, _ := repo.GetEntriesByDateRange(ctx, now.Add(-2*time.Hour), now.Add(-30*time.Minute))
	if len(old) != 0 {
		t.Errorf("Expected old date index to be removed, got %d entries", len(old))
	}
	current, _ := repo.GetEntriesByDateRange(ctx, now, now)
	if len(current) != 1 {
		t.Errorf("Expected 1 entry at new timestamp, got %d", len(current))
	}

	// Tag index follows the new tags
	byOld, _ := repo.GetEntriesByTag(ctx, "old")
	if len(byOld) != 0 {
		t.Errorf("Expected no entries for old tag, got %d", len(byOld))
	}
	byNew, _ := repo.GetEntriesByTag(ctx, "new")
	if len(byNew) != 1 {
		t.Errorf("Expected 1 entry for new tag, got %d", len(byNew))
	}
}

func TestUpdateEntries_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpdateEntries(context.Background(), &core.Entry{Id: 42, Contents: "ghost"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	added, err := repo.AddEntries(ctx, &core.Entry{Contents: "doomed", Tags: []string{"tmp"}, Timestamp: now})
	if err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}

	if err := repo.DeleteEntries(ctx, added[0].Id); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}

	if _, err := repo.GetEntry(ctx, added[0].Id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if byDate, _ := repo.GetEntriesByDateRange(ctx, now, now); len(byDate) != 0 {
		t.Errorf("Expected date index cleanup, got %d entries", len(byDate))
	}
	if byTag, _ := repo.GetEntriesByTag(ctx, "tmp"); len(byTag) != 0 {
		t.Errorf("Expected tag index cleanup, got %d entries", len(byTag))
	}

	if err := repo.DeleteEntries(ctx, added[0].Id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestEntryDateRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	entries := []*core.Entry{
		{Contents: "Entry 1", Timestamp: now.Add(-2 * time.Hour)},
		{Contents: "Entry 2", Timestamp: now.Add(-1 * time.Hour)},
		{Contents: "Entry 3", Timestamp: now},
	}
	if _, err := repo.AddEntries(ctx, entries...); err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	results, err := repo.GetEntriesByDateRange(ctx, now.Add(-90*time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to get entries by date range: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(results))
	}
	if results[0].Contents != "Entry 2" || results[1].Contents != "Entry 3" {
		t.Errorf("Expected ascending order, got %q, %q", results[0].Contents, results[1].Contents)
	}

	// Both bounds are inclusive
	results, err = repo.GetEntriesByDateRange(ctx, now.Add(-2*time.Hour), now)
	if err != nil {
		t.Fatalf("Failed to get entries by date range: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 entries with inclusive bounds, got %d", len(results))
	}

	if _, err := repo.GetEntriesByDateRange(ctx, now, now.Add(-time.Hour)); !errors.Is(err, storage.ErrInvalidQuery) {
		t.Errorf("Expected ErrInvalidQuery for inverted range, got %v", err)
	}
}

func TestEntryDates_BeforeUnixEpoch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := time.Date(1965, 6, 1, 9, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	if _, err := repo.AddEntries(ctx,
		&core.Entry{Contents: "grandpa letter", Timestamp: old},
		&core.Entry{Contents: "spring walk", Timestamp: recent},
	); err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	all, err := repo.GetEntriesByDateRange(ctx, time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to get range: %v", err)
	}
	if len(all) != 2 || all[0].Contents != "grandpa letter" || all[1].Contents != "spring walk" {
		t.Fatalf("Expected both entries oldest first, got %v", all)
	}

	sixties, err := repo.GetEntriesByDateRange(ctx, old, old)
	if err != nil {
		t.Fatalf("Failed to get range: %v", err)
	}
	if len(sixties) != 1 || sixties[0].Contents != "grandpa letter" {
		t.Fatalf("Expected the 1965 entry alone, got %v", sixties)
	}

	latest, err := repo.GetRecentEntries(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get recent entries: %v", err)
	}
	if len(latest) != 1 || latest[0].Contents != "spring walk" {
		t.Fatalf("Expected the 2024 entry as most recent, got %v", latest)
	}
}

func TestGetEntriesByTag(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddEntries(ctx,
		&core.Entry{Contents: "hike", Tags: []string{"Outdoors", "weekend"}},
		&core.Entry{Contents: "swim", Tags: []string{"outdoors"}},
		&core.Entry{Contents: "read", Tags: []string{"outdoorsy"}},
	)
	if err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	results, err := repo.GetEntriesByTag(ctx, "OUTDOORS")
	if err != nil {
		t.Fatalf("Failed to get entries by tag: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(results))
	}

	if _, err := repo.GetEntriesByTag(ctx, "  "); !errors.Is(err, storage.ErrInvalidQuery) {
		t.Errorf("Expected ErrInvalidQuery for blank tag, got %v", err)
	}
}

func TestGetRecentEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	entries := []*core.Entry{
		{Contents: "Entry 1", Timestamp: now.Add(-4 * time.Hour)},
		{Contents: "Entry 2", Timestamp: now.Add(-3 * time.Hour)},
		{Contents: "Entry 3", Timestamp: now.Add(-2 * time.Hour)},
		{Contents: "Entry 4", Timestamp: now.Add(-1 * time.Hour)},
		{Contents: "Entry 5", Timestamp: now},
	}
	if _, err := repo.AddEntries(ctx, entries...); err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	results, err := repo.GetRecentEntries(ctx, 3)
	if err != nil {
		t.Fatalf("Failed to get recent entries: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(results))
	}
	for i, want := range []string{"Entry 5", "Entry 4", "Entry 3"} {
		if results[i].Contents != want {
			t.Errorf("Expected %q at %d, got %q", want, i, results[i].Contents)
		}
	}

	all, err := repo.GetRecentEntries(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to get all entries: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(all))
	}

	zero, err := repo.GetRecentEntries(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to get zero entries: %v", err)
	}
	if len(zero) != 0 {
		t.Fatalf("Expected 0 entries, got %d", len(zero))
	}

	empty := newTestRepo(t)
	none, err := empty.GetRecentEntries(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to query empty database: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected 0 entries from empty database, got %d", len(none))
	}
}

func TestGetEmbeddedEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.AddEntries(ctx,
		&core.Entry{Contents: "later", Timestamp: now, Vector: []float32{0, 1}},
		&core.Entry{Contents: "unembedded", Timestamp: now.Add(-time.Minute)},
		&core.Entry{Contents: "earlier", Timestamp: now.Add(-time.Hour), Vector: []float32{1, 0}},
	)
	if err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	results, err := repo.GetEmbeddedEntries(ctx)
	if err != nil {
		t.Fatalf("Failed to get embedded entries: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 embedded entries, got %d", len(results))
	}
	if results[0].Contents != "earlier" || results[1].Contents != "later" {
		t.Errorf("Expected timestamp order, got %q, %q", results[0].Contents, results[1].Contents)
	}
}

func TestRepository_Closed(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	repo.Close()
	backend.Close()

	if _, err := repo.GetEntry(context.Background(), 1); !errors.Is(err, storage.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed, got %v", err)
	}
}
