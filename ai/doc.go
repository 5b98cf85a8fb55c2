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

// Package ai defines the text encoder contract used by the search core.
//
// The embedding model is an external capability. This package only states
// what the rest of the module needs from it:
//
//   - TextEncoder: turns formatted text into fixed-width vectors
//   - EncoderLoader: creates a TextEncoder for a model and a device
//   - Config: which model, where, how wide, and how queries are formatted
//
// Loading an encoder is expensive and happens lazily, exactly once, inside
// embedding.Service. Nothing else in the module holds an encoder.
//
// # Implementation Packages
//
//   - ai/openai: production loader using OpenAI-compatible embedding APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Query and Document Formatting
//
// Retrieval models are trained asymmetrically: queries carry an instruction,
// documents do not. Config.FormatText applies that contract and must be used
// for every piece of text sent to an encoder so stored vectors stay
// reproducible.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("all-minilm"))
//	loader := openai.NewLoader(cfg)
//	encoder, err := loader.Load(ctx, cfg.EmbeddingModel, cfg.Device)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer encoder.Close()
//
//	vec, err := encoder.Encode(ctx, cfg.FormatText("hiking", true))
package ai
