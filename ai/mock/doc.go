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

// Package mock provides test doubles for the ai package interfaces.
//
// These mocks allow testing embedding, search and ingestion code without
// a running embedding service.
//
// # Usage
//
//	loader := mock.NewMockLoader(384)
//	svc, err := embedding.NewService(loader, cfg)
//
//	// Custom behavior injection
//	loader.Encoder.WithEncodeFunc(func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("boom")
//	})
//
//	// Hold the model load until the test is ready
//	loader := mock.NewMockLoader(384).WithGate()
//	defer loader.Release()
//
//	// Check call counts
//	loads := loader.LoadCount()
//	calls := loader.Encoder.CallCount()
//
// # Default Behavior
//
//   - MockEncoder: Returns deterministic unit vectors based on text hash
//   - MockLoader: Returns its MockEncoder immediately and counts loads
package mock
