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

// Package similarity ranks embedding vectors by cosine similarity.
//
// CosineSimilarity is total: it returns 0 for empty, all-zero, mismatched or
// non-finite input instead of failing. Cosine reports a length mismatch as
// ErrDimensionMismatch for callers that must not silently compare vectors
// from different models.
//
// Scores and TopK compare one query vector against a candidate set. Large
// sets are scored in parallel chunks; results always come back in candidate
// order, and TopK sorts stably so equal scores keep insertion order.
//
//	matches, err := similarity.TopK(query, vectors, 10, 0.3)
//	for _, m := range matches {
//	    fmt.Println(m.Index, m.Score)
//	}
package similarity
