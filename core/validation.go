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

package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateEntry checks that an Entry has valid field values.
// Returns nil if valid, or an error wrapping ErrInvalidEntry.
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.Contents) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyContent)
	}

	for _, tag := range entry.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyTag)
		}
	}

	if !IsValidTimestamp(entry.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is not in the future.
// Zero timestamps are considered valid (will be set by storage layer).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
