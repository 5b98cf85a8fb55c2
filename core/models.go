package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DefaultDimension is the embedding width used when no model-specific value is configured.
const DefaultDimension = 384

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Entry is a single journal entry.
// The vector is populated asynchronously by the ingestion pipeline.
type Entry struct {
	Id         ID
	Title      string
	Contents   string
	Tags       []string
	Timestamp  time.Time         // When the entry was written
	InsertedAt time.Time         // When the entry was inserted into the database
	UpdatedAt  time.Time         // When the entry was last updated
	Vector     []float32         // Embedding vector for semantic search
	Metadata   map[string]string // Optional metadata (e.g., "mood", "source")
}

// SearchText returns the text that is embedded and matched lexically for the entry.
func (e *Entry) SearchText() string {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return e.Contents
	}
	return title + "\n\n" + e.Contents
}

// Candidate is one searchable item considered during a single search call.
// Candidates are owned by the caller and must not be mutated while a search runs.
type Candidate struct {
	Id       ID
	Text     string
	Vector   []float32
	Metadata any
}

// CandidateFromEntry builds a search candidate carrying the entry as metadata.
func CandidateFromEntry(entry *Entry) Candidate {
	return Candidate{
		Id:       entry.Id,
		Text:     entry.SearchText(),
		Vector:   entry.Vector,
		Metadata: entry,
	}
}

// SearchResult is a ranked search hit.
// Score is always within [0, 1].
type SearchResult struct {
	Id       ID
	Score    float64
	Snippet  string
	Metadata any
}

// Entry returns the journal entry attached to the result, if any.
func (r *SearchResult) Entry() *Entry {
	entry, _ := r.Metadata.(*Entry)
	return entry
}

// HybridScoreParams controls how much lexical evidence lifts a semantic score.
type HybridScoreParams struct {
	ExactMatchBoost   float64 `yaml:"exact_match_boost"`
	PartialMatchBoost float64 `yaml:"partial_match_boost"`
}

// DefaultHybridScoreParams returns the standard boosts: 0.2 for an exact
// phrase match and up to 0.1 for partial word overlap.
func DefaultHybridScoreParams() HybridScoreParams {
	return HybridScoreParams{
		ExactMatchBoost:   0.2,
		PartialMatchBoost: 0.1,
	}
}
