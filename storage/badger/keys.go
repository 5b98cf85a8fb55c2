package badger

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/recall/core"
)

// Key prefixes for different data types
const (
	entryPrefix     = "entrec"
	entryDatePrefix = "entrecd"
	entryTagPrefix  = "entrect"
	entryIDSeq      = "entrecseq"
)

// makeEntryKey generates a key for an entry by ID.
func makeEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entryPrefix, id))
}

// entryKeyPrefix is shared by every primary entry key and by no index key.
func entryKeyPrefix() []byte {
	return []byte(entryPrefix + ":")
}

// dateKeyValue maps a timestamp to an unsigned value that sorts in time order,
// including timestamps before 1970.
func dateKeyValue(timestamp time.Time) uint64 {
	return uint64(timestamp.UnixMicro()) ^ (1 << 63)
}

// makeEntryDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeEntryDateKey(timestamp time.Time, id core.ID) []byte {
	prefixBytes := []byte(entryDatePrefix + ":")
	buf := make([]byte, len(prefixBytes)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], dateKeyValue(timestamp))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialEntryDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialEntryDateKey(timestamp time.Time) []byte {
	prefixBytes := []byte(entryDatePrefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], dateKeyValue(timestamp))
	return buf
}

// normalizeTag folds a tag to the form used in the tag index.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// makePartialEntryTagKey generates the prefix for every index key of a tag.
// Format: prefix:tag\x00
func makePartialEntryTagKey(tag string) []byte {
	tag = normalizeTag(tag)
	prefix := entryTagPrefix + ":"
	buf := make([]byte, len(prefix)+len(tag)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], tag)
	buf[offset] = 0
	return buf
}

// makeEntryTagKey generates a composite key for the tag index.
// Format: prefix:tag\x00id
func makeEntryTagKey(tag string, id core.ID) []byte {
	partial := makePartialEntryTagKey(tag)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// uniqueTags returns the normalized, de-duplicated tags of an entry.
func uniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		n := normalizeTag(tag)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
