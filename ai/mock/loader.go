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

package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/recall/ai"
)

// MockLoader is a test double for ai.EncoderLoader.
// It counts load attempts so tests can assert that a model is loaded once.
type MockLoader struct {
	// Encoder is returned by every successful Load.
	Encoder *MockEncoder

	// Err, if set, is returned by every Load.
	Err error

	// Gate, if set, blocks Load until it is closed or ctx is done.
	Gate chan struct{}

	loads    atomic.Int64
	inflight atomic.Int64
}

var _ ai.EncoderLoader = (*MockLoader)(nil)

// NewMockLoader creates a loader returning a MockEncoder of width dim.
func NewMockLoader(dim int) *MockLoader {
	return &MockLoader{Encoder: NewMockEncoder(dim)}
}

// NewFailingLoader creates a loader whose every Load fails with err.
func NewFailingLoader(err error) *MockLoader {
	return &MockLoader{Err: err}
}

// WithGate installs a gate that holds Load until released and returns the loader.
func (l *MockLoader) WithGate() *MockLoader {
	l.Gate = make(chan struct{})
	return l
}

// Release opens the gate.
func (l *MockLoader) Release() {
	if l.Gate != nil {
		close(l.Gate)
	}
}

// Load records the attempt, waits on the gate, then returns Encoder or Err.
func (l *MockLoader) Load(ctx context.Context, model, device string) (ai.TextEncoder, error) {
	l.loads.Add(1)
	l.inflight.Add(1)
	defer l.inflight.Add(-1)

	if l.Gate != nil {
		select {
		case <-l.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if l.Err != nil {
		return nil, l.Err
	}
	return l.Encoder, nil
}

// LoadCount returns the number of Load calls.
func (l *MockLoader) LoadCount() int {
	return int(l.loads.Load())
}

// Loading reports whether a Load call is currently in progress.
func (l *MockLoader) Loading() bool {
	return l.inflight.Load() > 0
}
