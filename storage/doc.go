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

// Package storage defines how journal entries are persisted.
//
// EntryRepository is the only contract the search, ingestion and reembed
// packages depend on; storage/badger is the implementation shipped with
// recall.
//
// # Vector Codec
//
// Vectors are stored as a JSON array of numbers:
//
//	data, err := storage.MarshalVector(vec)
//	vec := storage.UnmarshalVector(data)
//
// UnmarshalVector never fails. A payload that is not an array of finite
// numbers decodes to an empty vector and a warning is logged; callers that
// need the error use DecodeVector.
//
// # Entry Records
//
// Entries are persisted as versioned mus binary records. The embedding rides
// inside the record in the same JSON array form, so a vector read back from
// an entry decodes exactly like one written by MarshalVector. Times keep
// microsecond precision.
//
// Entry ids are fixed eight byte big-endian keys so badger iterates them in
// numeric order.
//
// Repositories are safe for concurrent use.
package storage
