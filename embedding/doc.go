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

// Package embedding turns text into fixed-width vectors through a lazily
// loaded ai.TextEncoder.
//
// The encoder is expensive to load, so Service loads it at most once per
// lifetime, on first use, no matter how many goroutines ask for it at the
// same time. Loading and every inference call run on a bounded ants pool;
// callers wait on a channel together with their context.
//
// # Failure Semantics
//
// A load failure is fatal and remembered: every caller gets the same error
// wrapping ErrEncoderInit until Reset is called. Once the encoder is ready,
// a failed inference degrades to a zero vector for the affected text and is
// logged; it never fails the call.
//
// # Roles
//
// Query text is wrapped in the configured retrieval instruction before
// encoding; document text is encoded as is. Empty or whitespace-only text
// never reaches the encoder and comes back as a zero vector.
//
// # Usage
//
//	svc, err := embedding.NewService(loader, ai.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	query, err := svc.EncodeOne(ctx, "hiking with friends", true)
//	docs, err := svc.EncodeBatch(ctx, texts, 0, false)
package embedding
