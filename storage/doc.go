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


// Package storage provides the document store abstraction for codemem.
//
// It defines the SnippetStore interface that decouples the upsert, lookup
// and similarity-search primitives from the storage implementation, allowing
// different backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// Public constructors in implementation packages return interface types to
// enforce abstraction:
//
//	store, err := badger.NewSnippetStore(backend) // returns storage.SnippetStore
//
// All implementations must be thread-safe: the store handle is long-lived
// and shared across pipelines, engines and orchestrators. Every method takes
// a context.Context for cancellation and timeout support.
//
// The store provides last-writer-wins semantics at the single-document
// granularity; callers needing per-key write ordering serialize above this
// layer (see the snippet package).
package storage
