package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// EntryRepository implements storage.EntryRepository for BadgerDB.
type EntryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(backend *Backend) (*EntryRepository, error) {
	idSeq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		return nil, err
	}

	return &EntryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EntryRepository) Close() error {
	return r.idSeq.Release()
}

// AddEntries adds one or more entries to storage.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			nextID, err := r.nextID()
			if err != nil {
				return err
			}
			entry.Id = nextID

			entry.InsertedAt = time.Now().UTC()
			entry.UpdatedAt = entry.InsertedAt
			if entry.Timestamp.IsZero() {
				entry.Timestamp = entry.InsertedAt
			}

			if err := r.writeEntry(tx, entry); err != nil {
				return err
			}
			if err := tx.Set(makeEntryDateKey(entry.Timestamp, entry.Id), storage.MarshalID(entry.Id)); err != nil {
				return err
			}
			if err := r.updateTagIndex(tx, entry); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// UpdateEntries updates existing entries.
func (r *EntryRepository) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			old, err := r.readEntry(tx, makeEntryKey(entry.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: entry %d", storage.ErrNotFound, entry.Id)
			}

			entry.InsertedAt = old.InsertedAt
			entry.UpdatedAt = time.Now().UTC()

			if err := r.writeEntry(tx, entry); err != nil {
				return err
			}

			// Update date index if timestamp changed
			if !old.Timestamp.Equal(entry.Timestamp) {
				if err := tx.Delete(makeEntryDateKey(old.Timestamp, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeEntryDateKey(entry.Timestamp, entry.Id), storage.MarshalID(entry.Id)); err != nil {
					return err
				}
			}

			if !slices.Equal(uniqueTags(old.Tags), uniqueTags(entry.Tags)) {
				if err := r.deleteTagIndex(tx, old); err != nil {
					return err
				}
				if err := r.updateTagIndex(tx, entry); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// DeleteEntries removes entries by their IDs.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEntryKey(id)

			entry, err := r.readEntry(tx, key)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("%w: entry %d", storage.ErrNotFound, id)
			}

			if err := tx.Delete(makeEntryDateKey(entry.Timestamp, entry.Id)); err != nil {
				return err
			}
			if err := r.deleteTagIndex(tx, entry); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var result *core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readEntry(tx, makeEntryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEntries retrieves multiple entries by their IDs.
func (r *EntryRepository) GetEntries(ctx context.Context, ids ...core.ID) ([]*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var result []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entry, err := r.readEntry(tx, makeEntryKey(id))
			if err != nil {
				return err
			}
			if entry != nil {
				result = append(result, entry)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetEntriesByDateRange retrieves entries within a time range, inclusive at both ends.
func (r *EntryRepository) GetEntriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", storage.ErrInvalidQuery, end, start)
	}

	var results []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialEntryDateKey(start)
		endKey := makePartialEntryDateKey(end.Add(time.Microsecond))
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			if bytes.Compare(iter.Item().Key(), endKey) >= 0 {
				break
			}

			entry, err := r.readIndexedEntry(tx, iter.Item())
			if err != nil {
				return err
			}
			if entry != nil {
				results = append(results, entry)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetEntriesByTag retrieves entries carrying the given tag, ordered by ID.
func (r *EntryRepository) GetEntriesByTag(ctx context.Context, tag string) ([]*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if normalizeTag(tag) == "" {
		return nil, fmt.Errorf("%w: empty tag", storage.ErrInvalidQuery)
	}

	var results []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEntryTagKey(tag)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			entry, err := r.readIndexedEntry(tx, iter.Item())
			if err != nil {
				return err
			}
			if entry != nil {
				results = append(results, entry)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetRecentEntries retrieves the N most recent entries, ordered by timestamp descending.
func (r *EntryRepository) GetRecentEntries(ctx context.Context, limit int) ([]*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(entryDatePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration seeks to the last key <= the seek key.
		seekKey := append(slices.Clone(prefix), bytes.Repeat([]byte{0xff}, 16)...)

		for iter.Seek(seekKey); iter.Valid() && len(results) < limit; iter.Next() {
			entry, err := r.readIndexedEntry(tx, iter.Item())
			if err != nil {
				return err
			}
			if entry != nil {
				results = append(results, entry)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetEmbeddedEntries returns every entry with a non-empty vector, ordered by timestamp.
func (r *EntryRepository) GetEmbeddedEntries(ctx context.Context) ([]*core.Entry, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var results []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *core.Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(entry.Vector) > 0 {
				results = append(results, entry)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *core.Entry) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return compareIDs(a.Id, b.Id)
	})
	return results, nil
}

// Helper methods

func compareIDs(a, b core.ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// nextID draws the next entry ID from the sequence.
func (r *EntryRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		if nextID, err = r.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// writeEntry stores the primary record for an entry.
// Times are truncated to the microsecond precision the record keeps, so the
// caller's entry matches what a later read returns.
func (r *EntryRepository) writeEntry(tx *badger.Txn, entry *core.Entry) error {
	entry.Timestamp = entry.Timestamp.Truncate(time.Microsecond)
	entry.InsertedAt = entry.InsertedAt.Truncate(time.Microsecond)
	entry.UpdatedAt = entry.UpdatedAt.Truncate(time.Microsecond)

	value, err := storage.MarshalEntry(entry)
	if err != nil {
		return err
	}
	return tx.Set(makeEntryKey(entry.Id), value)
}

// readEntry reads an entry from the transaction. A missing key yields nil, nil.
func (r *EntryRepository) readEntry(tx *badger.Txn, key []byte) (*core.Entry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.Entry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalEntry(val)
		return unmarshalErr
	})
	return entry, err
}

// readIndexedEntry follows an index item whose value is an entry ID.
func (r *EntryRepository) readIndexedEntry(tx *badger.Txn, item *badger.Item) (*core.Entry, error) {
	var id core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	return r.readEntry(tx, makeEntryKey(id))
}

// updateTagIndex adds tag index entries for an entry.
func (r *EntryRepository) updateTagIndex(tx *badger.Txn, entry *core.Entry) error {
	for _, tag := range uniqueTags(entry.Tags) {
		if err := tx.Set(makeEntryTagKey(tag, entry.Id), storage.MarshalID(entry.Id)); err != nil {
			return err
		}
	}
	return nil
}

// deleteTagIndex removes tag index entries for an entry.
func (r *EntryRepository) deleteTagIndex(tx *badger.Txn, entry *core.Entry) error {
	for _, tag := range uniqueTags(entry.Tags) {
		if err := tx.Delete(makeEntryTagKey(tag, entry.Id)); err != nil {
			return err
		}
	}
	return nil
}
