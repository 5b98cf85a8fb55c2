package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/similarity"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultLimit is the maximum number of results returned by default.
	DefaultLimit = 10

	// DefaultThreshold is the minimum cosine similarity a candidate needs by default.
	DefaultThreshold = 0.3
)

// QueryEncoder embeds query text. *embedding.Service implements it.
type QueryEncoder interface {
	EncodeOne(ctx context.Context, text string, isQuery bool) ([]float32, error)
}

// SearchOptions controls one search.
type SearchOptions struct {
	Limit         int                    // maximum results; <= 0 uses DefaultLimit
	Threshold     float64                // minimum cosine similarity
	SnippetWindow int                    // snippet width in characters; <= 0 uses DefaultSnippetWindow
	Params        core.HybridScoreParams // lexical boosts
}

// DefaultSearchOptions returns the standard options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:         DefaultLimit,
		Threshold:     DefaultThreshold,
		SnippetWindow: DefaultSnippetWindow,
		Params:        core.DefaultHybridScoreParams(),
	}
}

// Searcher provides hybrid semantic and lexical search.
type Searcher struct {
	encoder    QueryEncoder
	repository storage.EntryRepository
	defaults   SearchOptions
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithRepository sets the repository searched by SearchEntries.
func WithRepository(repository storage.EntryRepository) Option {
	return func(s *Searcher) error {
		s.repository = repository
		return nil
	}
}

// WithDefaults sets the options used when a search passes nil options.
func WithDefaults(opts SearchOptions) Option {
	return func(s *Searcher) error {
		s.defaults = opts
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(encoder QueryEncoder, opts ...Option) (*Searcher, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}

	s := &Searcher{
		encoder:  encoder,
		defaults: DefaultSearchOptions(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search ranks candidates against query. Candidates are read, never modified.
// Returns up to opts.Limit results in non-increasing score order; nil opts
// uses the searcher's defaults.
func (s *Searcher) Search(ctx context.Context, query string, candidates []core.Candidate, opts *SearchOptions) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, candidates, opts, nil)
}

// SearchWithMonitor is Search with callbacks at each stage of the search process.
// The only errors are query encoder failures and context cancellation.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, candidates []core.Candidate, opts *SearchOptions, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	o := s.resolve(opts)

	monitor.Start(query)

	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	// 1. Embed the query
	queryVec, err := s.encoder.EncodeOne(ctx, query, true)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(queryVec)

	// 2. Semantic ranking
	vectors := make([][]float32, 0, len(candidates))
	kept := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if len(c.Vector) != 0 && len(c.Vector) != len(queryVec) {
			// Embedded by a different model; it cannot be compared.
			continue
		}
		vectors = append(vectors, c.Vector)
		kept = append(kept, i)
	}
	if skipped := len(candidates) - len(kept); skipped > 0 {
		s.logger.Warn("skipping candidates with mismatched dimension",
			"skipped", skipped, "dimension", len(queryVec))
	}

	matches, err := similarity.TopK(queryVec, vectors, o.Limit, o.Threshold)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].Index = kept[matches[i].Index]
	}
	monitor.AfterSemanticRanking(matches)

	// 3. Lexical rerank
	hits := make([]Hit[core.Candidate], len(matches))
	for i, m := range matches {
		c := candidates[m.Index]
		hits[i] = Hit[core.Candidate]{Id: c.Id, Score: max(m.Score, 0), Payload: c}
	}
	reranked := Rerank(hits, query, candidateText, o.Params)
	monitor.AfterRerank(reranked)

	// 4. Snippets
	results := make([]*core.SearchResult, len(reranked))
	for i, hit := range reranked {
		results[i] = &core.SearchResult{
			Id:       hit.Id,
			Score:    hit.Score,
			Snippet:  ExtractContext(hit.Payload.Text, query, o.SnippetWindow),
			Metadata: hit.Payload.Metadata,
		}
	}
	monitor.Finish(results)

	return results, nil
}

// SearchEntries searches every embedded entry in the repository.
// Each result carries its *core.Entry as metadata.
func (s *Searcher) SearchEntries(ctx context.Context, query string, opts *SearchOptions) ([]*core.SearchResult, error) {
	return s.SearchEntriesWithMonitor(ctx, query, opts, nil)
}

// SearchEntriesWithMonitor is SearchEntries with monitoring.
func (s *Searcher) SearchEntriesWithMonitor(ctx context.Context, query string, opts *SearchOptions, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if s.repository == nil {
		return nil, ErrRepositoryRequired
	}

	entries, err := s.repository.GetEmbeddedEntries(ctx)
	if err != nil {
		s.logger.Error("error loading embedded entries", "err", err)
		return nil, err
	}

	candidates := make([]core.Candidate, len(entries))
	for i, entry := range entries {
		candidates[i] = core.CandidateFromEntry(entry)
	}

	return s.SearchWithMonitor(ctx, query, candidates, opts, monitor)
}

func (s *Searcher) resolve(opts *SearchOptions) SearchOptions {
	o := s.defaults
	if opts != nil {
		o = *opts
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.SnippetWindow <= 0 {
		o.SnippetWindow = DefaultSnippetWindow
	}
	return o
}

func candidateText(c core.Candidate) string {
	return c.Text
}
