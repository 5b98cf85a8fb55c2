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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/poiesic/recall/core"
)

// MarshalID encodes an ID as 8 big-endian bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID decodes an ID written by MarshalID.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrTruncatedData, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalVector encodes a vector as a JSON array of numbers.
// Non-finite components cannot be represented and are rejected.
func MarshalVector(v []float32) ([]byte, error) {
	if err := ValidateVector(v, 0); err != nil {
		return nil, err
	}
	if v == nil {
		v = []float32{}
	}
	return json.Marshal(v)
}

// DecodeVector strictly decodes a JSON array of numbers.
// Non-array payloads, non-numeric elements and values outside the float32
// range return an error wrapping ErrInvalidVector.
func DecodeVector(data []byte) ([]float32, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVector, err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected array, got %T", ErrInvalidVector, raw)
	}

	v := make([]float32, len(items))
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T, not a number", ErrInvalidVector, i, item)
		}
		if math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: element %d overflows float32", ErrInvalidVector, i)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// UnmarshalVector decodes a persisted vector, degrading to an empty vector
// when the payload is malformed so one corrupted record cannot fail a batch load.
func UnmarshalVector(data []byte) []float32 {
	if len(data) == 0 {
		return []float32{}
	}
	v, err := DecodeVector(data)
	if err != nil {
		slog.Default().Warn("discarding malformed vector", "bytes", len(data), "err", err)
		return []float32{}
	}
	return v
}

// ValidateVector checks that every component is finite and, when dim > 0,
// that the vector has exactly dim components.
func ValidateVector(v []float32, dim int) error {
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("%w: length %d, expected %d", ErrInvalidVector, len(v), dim)
	}
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("%w: element %d is not finite", ErrInvalidVector, i)
		}
	}
	return nil
}

// MarshalEntry encodes an entry as a binary record. The vector is embedded
// in its portable JSON array form. Times are kept to the microsecond.
func MarshalEntry(entry *core.Entry) ([]byte, error) {
	rec := entryRecord{
		Id:         entry.Id,
		Title:      entry.Title,
		Contents:   entry.Contents,
		Tags:       entry.Tags,
		Timestamp:  entry.Timestamp.UnixMicro(),
		InsertedAt: entry.InsertedAt.UnixMicro(),
		UpdatedAt:  entry.UpdatedAt.UnixMicro(),
		Metadata:   entry.Metadata,
	}
	if len(entry.Vector) > 0 {
		vec, err := MarshalVector(entry.Vector)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrSerializationFailed, entry.Id, err)
		}
		rec.Embedding = string(vec)
	}

	buf := make([]byte, entryRecordMUS.Size(rec))
	entryRecordMUS.Marshal(rec, buf)
	return buf, nil
}

// UnmarshalEntry decodes an entry written by MarshalEntry.
// A malformed embedding does not fail the entry; it comes back empty.
func UnmarshalEntry(data []byte) (*core.Entry, error) {
	rec, n, err := entryRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}

	entry := &core.Entry{
		Id:         rec.Id,
		Title:      rec.Title,
		Contents:   rec.Contents,
		Tags:       rec.Tags,
		Timestamp:  time.UnixMicro(rec.Timestamp).UTC(),
		InsertedAt: time.UnixMicro(rec.InsertedAt).UTC(),
		UpdatedAt:  time.UnixMicro(rec.UpdatedAt).UTC(),
		Metadata:   rec.Metadata,
	}
	if rec.Embedding != "" {
		entry.Vector = UnmarshalVector([]byte(rec.Embedding))
	}
	return entry, nil
}
