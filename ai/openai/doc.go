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

// Package openai provides a TextEncoder backed by OpenAI-compatible APIs.
//
// The loader uses the langchaingo library to talk to OpenAI or any
// compatible service (Ollama, LocalAI, vLLM). Loading embeds a short warmup
// text so that an unreachable service or a model with the wrong width fails
// at initialization instead of on the first search.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithEmbeddingModel("all-minilm"),
//	    ai.WithDimension(384),
//	)
//
//	loader := openai.NewLoader(config)
//	encoder, err := loader.Load(ctx, "", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer encoder.Close()
//
//	vec, err := encoder.Encode(ctx, "sample text")
package openai
