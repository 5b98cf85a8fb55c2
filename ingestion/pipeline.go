package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// DefaultBatchSize is the number of entries embedded per encoder call.
const DefaultBatchSize = 32

// Pipeline orchestrates the ingestion and processing of journal entries.
type Pipeline struct {
	repository    storage.EntryRepository
	embeddingPool *ants.Pool
	embeddingProc processor
	batchSize     int
	pending       sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithBatchSize sets how many entries are embedded per encoder call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.EntryRepository, encoder DocumentEncoder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if encoder == nil {
		return nil, ErrEncoderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:    repository,
		embeddingPool: embeddingPool,
		batchSize:     DefaultBatchSize,
		logger:        slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Create the processor after options are applied (so it gets final config)
	embeddingProc, err := newEmbeddingProcessor(repository, encoder, p.batchSize, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Tags      []string          // Tags added to every entry
	Metadata  map[string]string // Metadata for entries that carry none
	Timestamp time.Time         // Timestamp for entries without one (uses current time if zero)
}

// Ingest validates and stores entries, then embeds them asynchronously.
// Returns the stored entries with IDs assigned. Embedding errors are logged
// but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, entries []*core.Entry, opts *IngestOptions) ([]*core.Entry, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	if len(entries) == 0 {
		return []*core.Entry{}, nil
	}

	now := time.Now().UTC()
	for _, entry := range entries {
		if entry != nil {
			applyOptions(entry, opts, now)
		}
		if err := core.ValidateEntry(entry); err != nil {
			return nil, err
		}
	}

	added, err := p.repository.AddEntries(ctx, entries...)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, len(added))
	for i, entry := range added {
		ids[i] = entry.Id
	}

	p.pending.Add(1)
	err = p.embeddingPool.Submit(func() {
		defer p.pending.Done()
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	})
	if err != nil {
		p.pending.Done()
		p.logger.Error("error submitting embedding job", "entries", len(ids), "err", err)
	}

	return added, nil
}

// IngestTexts stores each text as the contents of a new entry.
func (p *Pipeline) IngestTexts(ctx context.Context, texts []string, opts *IngestOptions) ([]*core.Entry, error) {
	entries := make([]*core.Entry, len(texts))
	for i, text := range texts {
		entries[i] = &core.Entry{Contents: text}
	}
	return p.Ingest(ctx, entries, opts)
}

func applyOptions(entry *core.Entry, opts *IngestOptions, now time.Time) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = opts.Timestamp
		if entry.Timestamp.IsZero() {
			entry.Timestamp = now
		}
	}
	for _, tag := range opts.Tags {
		if !slices.Contains(entry.Tags, tag) {
			entry.Tags = append(entry.Tags, tag)
		}
	}
	if entry.Metadata == nil && opts.Metadata != nil {
		entry.Metadata = opts.Metadata
	}
}

// Wait blocks until every submitted embedding job has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release waits for pending jobs and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pending.Wait()
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
