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

import "errors"

// Errors returned by entry repositories and the storage codecs.
var (
	ErrNotFound      = errors.New("entry not found")
	ErrStorageClosed = errors.New("entry store closed")

	// ErrInvalidQuery is returned for blank tags and inverted date ranges.
	ErrInvalidQuery = errors.New("invalid entry query")

	// ErrSerializationFailed wraps encode and decode failures of stored entries.
	ErrSerializationFailed = errors.New("entry serialization failed")

	// ErrTruncatedData means a key or value was shorter than its fixed layout.
	ErrTruncatedData = errors.New("short key or value")

	// ErrInvalidVector indicates a vector payload that is not a finite numeric array.
	ErrInvalidVector = errors.New("invalid vector")
)
