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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of entries to process in each batch
	BatchSize int

	// EncodeBatchSize is the number of texts per encoder call within a batch
	EncodeBatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for failed encoder calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MissingOnly restricts the run to entries that have no vector
	MissingOnly bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:       DefaultBatchSize,
		EncodeBatchSize: 32,
		ReportInterval:  100,
		MaxRetries:      3,
		RetryDelay:      1 * time.Second,
	}
}

// Result summarizes a completed run.
type Result struct {
	Total    int // entries visited
	Embedded int // entries that received a usable vector
	Failed   int // entries left without a vector
	Elapsed  time.Duration
}

// Reembedder orchestrates the reembedding of journal entries in a database.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.EntryRepository, encoder Encoder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, encoder, config.EncodeBatchSize, config.MaxRetries, config.RetryDelay),
		iterator:  NewEntryIterator(repo, config.BatchSize, config.MissingOnly),
	}
}

// Run executes the reembedding operation.
// Every visited entry is embedded again with the configured encoder.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	entries, err := r.iterator.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	result := &Result{Total: len(entries)}
	if result.Total == 0 {
		fmt.Fprintf(r.progress, "No entries found in database (0 entries)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d entries (batch size: %d)\n",
		result.Total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, result.Total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.eachBatch(ctx, entries, func(batch []*core.Entry) error {
		embedded, err := r.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(batch)
		result.Embedded += embedded
		result.Failed += len(batch) - embedded
		tracker.Fail(len(batch) - embedded)
		tracker.Update(processed)

		return nil
	})
	if err != nil {
		return result, err
	}

	tracker.Finish()

	result.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d entries in %v (%.1f entries/sec)\n",
		result.Total, result.Elapsed.Round(time.Second), float64(result.Total)/result.Elapsed.Seconds())
	if result.Failed > 0 {
		fmt.Fprintf(r.progress, "%d entries could not be embedded\n", result.Failed)
	}

	return result, nil
}
