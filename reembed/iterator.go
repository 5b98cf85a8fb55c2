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

package reembed

import (
	"context"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultBatchSize is the default number of entries handled in each batch
	DefaultBatchSize = 100
)

// The iterator asks for the widest date range the store can represent.
var (
	rangeStart = time.Time{}
	rangeEnd   = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// EntryIterator iterates over journal entries in batches.
type EntryIterator struct {
	repo        storage.EntryRepository
	batchSize   int
	missingOnly bool
}

// NewEntryIterator creates a new entry iterator.
// batchSize: number of entries in each batch (defaults when <= 0)
// missingOnly: visit only entries that have no vector yet
func NewEntryIterator(repo storage.EntryRepository, batchSize int, missingOnly bool) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &EntryIterator{
		repo:        repo,
		batchSize:   batchSize,
		missingOnly: missingOnly,
	}
}

// Entries returns every entry the iterator visits, ordered by timestamp.
func (it *EntryIterator) Entries(ctx context.Context) ([]*core.Entry, error) {
	entries, err := it.repo.GetEntriesByDateRange(ctx, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	if !it.missingOnly {
		return entries, nil
	}

	missing := entries[:0]
	for _, entry := range entries {
		if len(entry.Vector) == 0 {
			missing = append(missing, entry)
		}
	}
	return missing, nil
}

// ForEach loads the entries once and calls fn for each batch.
// Iteration stops on first error from fn or when all entries are processed.
// Context cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := it.Entries(ctx)
	if err != nil {
		return err
	}
	return it.eachBatch(ctx, entries, fn)
}

// eachBatch splits an already loaded slice into batches.
func (it *EntryIterator) eachBatch(ctx context.Context, entries []*core.Entry, fn func([]*core.Entry) error) error {
	for i := 0; i < len(entries); i += it.batchSize {
		end := min(i+it.batchSize, len(entries))

		if err := fn(entries[i:end]); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
