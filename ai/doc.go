// Copyright 2026 The Codemem Authors
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


// Package ai provides abstractions for the AI collaborators used in codemem.
//
// It defines interfaces for the two external AI services the system depends
// on, keeping the domain and business logic decoupled from any concrete
// vendor:
//
//   - Embedder: generates fixed-length vector embeddings from text
//   - ReasoningAgent: executes analysis tasks (summaries, style guides,
//     documentation) over retrieved snippets
//   - AIProvider: aggregates both for initialization and lifecycle management
//
// # Implementation Packages
//
//   - ai/openai: production implementation backed by OpenAI-compatible APIs
//     via langchaingo
//   - ai/mock: deterministic test doubles with injectable behavior
//
// Public constructors in implementation packages return interface types to
// enforce abstraction; mock constructors return concrete types so tests can
// inject behavior and assert call counts.
package ai
