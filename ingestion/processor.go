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

package ingestion

import (
	"context"

	"github.com/poiesic/recall/core"
)

// DocumentEncoder embeds entry text in the document role.
// *embedding.Service implements it.
type DocumentEncoder interface {
	EncodeBatch(ctx context.Context, texts []string, batchSize int, isQuery bool) ([][]float32, error)
}

// processor runs one enrichment step over entries that are already stored.
type processor interface {
	process(ctx context.Context, ids ...core.ID) error
}
