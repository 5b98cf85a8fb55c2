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

package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// State is the lifecycle state of the service's encoder.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// encoderHandle pairs a loaded encoder with the generation it was loaded in.
type encoderHandle struct {
	encoder    ai.TextEncoder
	generation uint64
}

// Service produces embedding vectors, loading its encoder on first use.
// It is safe for concurrent use.
type Service struct {
	loader ai.EncoderLoader
	config ai.Config

	pool      *ants.Pool
	ownsPool  bool
	cache     *lru.Cache[core.ID, []float32]
	cacheSize int
	flight    singleflight.Group

	batchSize        int
	inferenceTimeout time.Duration
	metrics          *Metrics
	logger           *slog.Logger

	// state is read without the lock on the fast path; transitions happen under mu.
	state  atomic.Int32
	handle atomic.Pointer[encoderHandle]

	mu       sync.Mutex
	initDone chan struct{}
	initErr  error
	closed   bool
	// generation is bumped by Reset; vectors from older generations are not cached.
	generation uint64
}

// NewService creates an embedding service. The encoder is not loaded until
// the first call that needs it. A nil config uses ai.DefaultConfig().
func NewService(loader ai.EncoderLoader, config *ai.Config, opts ...Option) (*Service, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if config == nil {
		config = ai.DefaultConfig()
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be greater than 0, got %d", config.Dimension)
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	s := &Service{
		loader:           loader,
		config:           *config,
		pool:             pool,
		ownsPool:         true,
		cacheSize:        DefaultCacheSize,
		batchSize:        DefaultBatchSize,
		inferenceTimeout: DefaultInferenceTimeout,
		logger:           slog.Default(),
	}
	if s.config.Device == "" {
		s.config.Device = "cpu"
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.releasePool()
			return nil, optErr
		}
	}

	s.cache, err = lru.New[core.ID, []float32](s.cacheSize)
	if err != nil {
		s.releasePool()
		return nil, err
	}
	s.logger = s.logger.With("component", "embedding")

	return s, nil
}

func (s *Service) replacePool(pool *ants.Pool, owned bool) {
	s.releasePool()
	s.pool = pool
	s.ownsPool = owned
}

func (s *Service) releasePool() {
	if s.pool != nil && s.ownsPool {
		s.pool.Release()
	}
}

// State returns the current encoder state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Ready reports whether the encoder is loaded.
func (s *Service) Ready() bool {
	return s.State() == StateReady
}

// Dimension returns the width of every vector the service produces.
func (s *Service) Dimension() int {
	return s.config.Dimension
}

// CacheLen returns the number of cached vectors.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// EncodeOne returns the vector for a single text.
// Empty or whitespace-only text returns a zero vector without loading the encoder.
// The only errors are encoder initialization failures and context cancellation.
func (s *Service) EncodeOne(ctx context.Context, text string, isQuery bool) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return s.zeroVector(), nil
	}

	formatted := s.config.FormatText(trimmed, isQuery)
	key := core.IDFromContent(formatted)
	if vec, ok := s.cachedVector(key); ok {
		return vec, nil
	}

	h, err := s.ensureEncoder(ctx)
	if err != nil {
		return nil, err
	}
	return s.encodeItem(ctx, h, key, formatted)
}

// pendingText is one distinct formatted text awaiting the encoder,
// with every input position it fills.
type pendingText struct {
	text    string
	indices []int
}

// EncodeBatch returns one vector per input text, in input order.
// Empty entries come back as zero vectors at their index; if every entry is
// empty the encoder is never loaded. batchSize <= 0 uses the configured default.
func (s *Service) EncodeBatch(ctx context.Context, texts []string, batchSize int, isQuery bool) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	results := make([][]float32, len(texts))
	pending := make(map[core.ID]*pendingText)
	var order []core.ID

	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			results[i] = s.zeroVector()
			continue
		}

		formatted := s.config.FormatText(trimmed, isQuery)
		key := core.IDFromContent(formatted)
		if p, ok := pending[key]; ok {
			p.indices = append(p.indices, i)
			continue
		}
		if vec, ok := s.cachedVector(key); ok {
			results[i] = vec
			continue
		}
		pending[key] = &pendingText{text: formatted, indices: []int{i}}
		order = append(order, key)
	}

	if len(order) == 0 {
		return results, nil
	}

	h, err := s.ensureEncoder(ctx)
	if err != nil {
		return nil, err
	}

	for start := 0; start < len(order); start += batchSize {
		keys := order[start:min(start+batchSize, len(order))]
		vecs, err := s.encodeChunk(ctx, h, keys, pending)
		if err != nil {
			return nil, err
		}
		for j, key := range keys {
			for n, idx := range pending[key].indices {
				if n == 0 {
					results[idx] = vecs[j]
				} else {
					results[idx] = slices.Clone(vecs[j])
				}
			}
		}
	}

	return results, nil
}

// Reset drops the encoder and the cache so the next call loads a fresh encoder.
// It also clears a remembered load failure. Inferences still running on the
// dropped encoder complete for their callers but are never cached.
func (s *Service) Reset() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	if s.State() == StateInitializing {
		s.mu.Unlock()
		return ErrInitInProgress
	}

	h := s.handle.Swap(nil)
	s.generation++
	s.state.Store(int32(StateUninitialized))
	s.initErr = nil
	s.initDone = nil
	s.cache.Purge()
	s.mu.Unlock()

	if h != nil {
		if err := h.encoder.Close(); err != nil {
			s.logger.Warn("error closing text encoder", "err", err)
		}
	}
	s.logger.Info("embedding service reset")
	return nil
}

// Close waits for an in-flight load, closes the encoder and releases the pool.
// Calls made after Close fail with ErrServiceClosed.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	done := s.initDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	s.mu.Lock()
	h := s.handle.Swap(nil)
	s.generation++
	s.initErr = ErrServiceClosed
	s.state.Store(int32(StateFailed))
	s.cache.Purge()
	s.mu.Unlock()

	s.releasePool()
	if h != nil {
		return h.encoder.Close()
	}
	return nil
}

// ensureEncoder returns the loaded encoder, starting or joining the load as needed.
func (s *Service) ensureEncoder(ctx context.Context) (*encoderHandle, error) {
	for {
		if s.State() == StateReady {
			if h := s.handle.Load(); h != nil {
				return h, nil
			}
		}

		s.mu.Lock()
		if s.closed && s.State() != StateInitializing {
			s.mu.Unlock()
			return nil, ErrServiceClosed
		}
		switch s.State() {
		case StateReady:
			h := s.handle.Load()
			s.mu.Unlock()
			return h, nil
		case StateFailed:
			err := s.initErr
			s.mu.Unlock()
			return nil, err
		case StateUninitialized:
			s.startInit(ctx)
		}
		done := s.initDone
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// startInit submits the load to the pool. Caller must hold mu.
func (s *Service) startInit(ctx context.Context) {
	done := make(chan struct{})
	s.initDone = done
	s.state.Store(int32(StateInitializing))

	// The load outlives the caller that triggered it.
	loadCtx := context.WithoutCancel(ctx)

	s.logger.Info("loading text encoder", "model", s.config.EmbeddingModel, "device", s.config.Device)
	if err := s.pool.Submit(func() { s.load(loadCtx, done) }); err != nil {
		s.finishInit(nil, err, 0)
		close(done)
	}
}

// load runs on the pool and performs the Initializing -> Ready/Failed transition.
func (s *Service) load(ctx context.Context, done chan struct{}) {
	defer close(done)

	start := time.Now()
	encoder, err := s.loader.Load(ctx, s.config.EmbeddingModel, s.config.Device)
	if err == nil && encoder == nil {
		err = errors.New("loader returned no encoder")
	}
	if err == nil && encoder.Dimension() != s.config.Dimension {
		err = fmt.Errorf("%w: encoder produces %d, configured %d",
			ErrDimensionMismatch, encoder.Dimension(), s.config.Dimension)
		encoder.Close()
		encoder = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishInit(encoder, err, time.Since(start))
}

// finishInit records the outcome of a load. Caller must hold mu.
func (s *Service) finishInit(encoder ai.TextEncoder, err error, elapsed time.Duration) {
	if err != nil {
		s.initErr = fmt.Errorf("%w: %w", ErrEncoderInit, err)
		s.state.Store(int32(StateFailed))
		s.metrics.load("failure")
		s.logger.Error("text encoder failed to load", "model", s.config.EmbeddingModel, "err", err)
		return
	}

	s.handle.Store(&encoderHandle{encoder: encoder, generation: s.generation})
	s.state.Store(int32(StateReady))
	s.metrics.load("success")
	s.logger.Info("text encoder ready",
		"model", s.config.EmbeddingModel,
		"dimension", encoder.Dimension(),
		"elapsed", elapsed)
}

// encodeItem encodes one formatted text, collapsing concurrent requests for
// the same key. Failures degrade to a zero vector; only ctx errors are returned.
func (s *Service) encodeItem(ctx context.Context, h *encoderHandle, key core.ID, formatted string) ([]float32, error) {
	flightKey := strconv.FormatUint(h.generation, 16) + ":" + strconv.FormatUint(uint64(key), 16)
	ch := s.flight.DoChan(flightKey, func() (any, error) {
		if vec, ok := s.cache.Peek(key); ok {
			return vec, nil
		}

		// Shared work must not be cancelled by whichever caller arrived first.
		vecs, err := s.infer(context.WithoutCancel(ctx), func(ctx context.Context) ([][]float32, error) {
			vec, err := h.encoder.Encode(ctx, formatted)
			if err != nil {
				return nil, err
			}
			return [][]float32{vec}, nil
		})
		if err == nil {
			err = s.validate(vecs[0])
		}
		if err != nil {
			s.metrics.failure(1)
			s.logger.Warn("encoding failed, using zero vector", "key", key, "err", err)
			return nil, err
		}

		s.store(h, key, vecs[0])
		return vecs[0], nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return s.zeroVector(), nil
		}
		return slices.Clone(res.Val.([]float32)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// encodeChunk encodes up to one batch of distinct texts.
func (s *Service) encodeChunk(ctx context.Context, h *encoderHandle, keys []core.ID, pending map[core.ID]*pendingText) ([][]float32, error) {
	texts := make([]string, len(keys))
	for i, key := range keys {
		texts[i] = pending[key].text
	}

	vecs, err := s.infer(ctx, func(ctx context.Context) ([][]float32, error) {
		return h.encoder.EncodeBatch(ctx, texts)
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil && len(vecs) != len(texts) {
		err = fmt.Errorf("encoder returned %d vectors for %d texts", len(vecs), len(texts))
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.metrics.failure(len(keys))
			s.logger.Warn("batch encoding timed out, using zero vectors", "texts", len(texts), "timeout", s.inferenceTimeout)
			out := make([][]float32, len(keys))
			for i := range out {
				out[i] = s.zeroVector()
			}
			return out, nil
		}

		s.logger.Warn("batch encoding failed, retrying item by item", "texts", len(texts), "err", err)
		out := make([][]float32, len(keys))
		for i, key := range keys {
			vec, itemErr := s.encodeItem(ctx, h, key, texts[i])
			if itemErr != nil {
				return nil, itemErr
			}
			out[i] = vec
		}
		return out, nil
	}

	failures := 0
	for i, vec := range vecs {
		if err := s.validate(vec); err != nil {
			failures++
			s.logger.Warn("discarding invalid vector", "key", keys[i], "err", err)
			vecs[i] = s.zeroVector()
			continue
		}
		s.store(h, keys[i], vec)
	}
	s.metrics.failure(failures)

	return vecs, nil
}

// infer runs fn on the pool under the inference timeout and waits for it.
func (s *Service) infer(ctx context.Context, fn func(ctx context.Context) ([][]float32, error)) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.inferenceTimeout)
	defer cancel()

	type result struct {
		vecs [][]float32
		err  error
	}
	ch := make(chan result, 1)

	start := time.Now()
	if err := s.pool.Submit(func() {
		vecs, err := fn(ctx)
		ch <- result{vecs: vecs, err: err}
	}); err != nil {
		return nil, err
	}

	select {
	case r := <-ch:
		s.metrics.observe(time.Since(start).Seconds())
		return r.vecs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) cachedVector(key core.ID) ([]float32, bool) {
	vec, ok := s.cache.Get(key)
	if !ok {
		s.metrics.cache("miss")
		return nil, false
	}
	s.metrics.cache("hit")
	return slices.Clone(vec), true
}

// store caches a copy of vec unless Reset has run since h was loaded.
func (s *Service) store(h *encoderHandle, key core.ID, vec []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.generation != s.generation {
		return
	}
	s.cache.Add(key, slices.Clone(vec))
}

func (s *Service) validate(vec []float32) error {
	return storage.ValidateVector(vec, s.config.Dimension)
}

func (s *Service) zeroVector() []float32 {
	return make([]float32, s.config.Dimension)
}
