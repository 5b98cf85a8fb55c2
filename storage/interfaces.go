// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"io"
	"time"

	"github.com/poiesic/recall/core"
)

// EntryRepository stores journal entries and their embeddings.
type EntryRepository interface {
	io.Closer

	// AddEntries adds one or more entries to storage.
	// Generates new IDs from a sequence and sets InsertedAt/UpdatedAt.
	// Entries with a zero Timestamp get InsertedAt as their timestamp.
	// Returns the entries with generated IDs and timestamps populated.
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// UpdateEntries updates existing entries.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// DeleteEntries removes entries by their IDs, including their indices.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...core.ID) error

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.Entry, error)

	// GetEntries retrieves multiple entries by their IDs.
	// Returns only the entries that exist (no error for missing entries).
	GetEntries(ctx context.Context, ids ...core.ID) ([]*core.Entry, error)

	// GetEntriesByDateRange retrieves entries within a time range.
	// Returns entries where start <= Timestamp <= end, ordered by timestamp.
	GetEntriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Entry, error)

	// GetEntriesByTag retrieves entries carrying the given tag (case-insensitive).
	GetEntriesByTag(ctx context.Context, tag string) ([]*core.Entry, error)

	// GetRecentEntries retrieves the N most recent entries, newest first.
	GetRecentEntries(ctx context.Context, limit int) ([]*core.Entry, error)

	// GetEmbeddedEntries returns every entry that has a non-empty vector,
	// ordered by timestamp. This is the candidate set for semantic search.
	GetEmbeddedEntries(ctx context.Context) ([]*core.Entry, error)
}
