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

// Package search provides hybrid semantic and lexical search over journal entries.
//
// The Searcher type runs a multi-stage search:
//   - The query is embedded in the query role
//   - Candidates are ranked by cosine similarity, filtered and truncated
//   - Semantic scores are blended with exact and partial keyword matches
//   - Each hit gets a snippet centered on the query
//
// HybridScore, Rerank and ExtractContext are pure functions and can be used
// on their own.
package search
