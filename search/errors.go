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

package search

import "errors"

// ErrEncoderRequired is returned by NewSearcher when no query encoder is supplied.
var ErrEncoderRequired = errors.New("query encoder required")

// ErrRepositoryRequired is returned by SearchEntries on a Searcher built without WithRepository.
var ErrRepositoryRequired = errors.New("entry repository required")
