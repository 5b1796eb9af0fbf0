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


package core

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every exposed operation surfaces either a success payload
// or an error wrapping exactly one of these sentinels, so callers can map
// failures to a machine-readable kind with Kind.
var (
	// ErrValidation indicates bad caller input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrDependency indicates a collaborator call (embedder, store, agent)
	// failed after capped retries. The wrap names the collaborator.
	ErrDependency = errors.New("dependency failure")

	// ErrIngestion indicates a per-item parse or shape failure during batch
	// ingestion. Recorded and skipped, never aborts the batch.
	ErrIngestion = errors.New("ingestion item rejected")

	// ErrTimeout indicates a deadline elapsed before the operation finished.
	ErrTimeout = errors.New("deadline exceeded")

	// ErrConflict indicates an optimistic-concurrency violation on write
	// that persisted through the single fresh-read retry.
	ErrConflict = errors.New("storage conflict")
)

// Validation detail sentinels.
var (
	// ErrEmptyName indicates the snippet name is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyProjectID indicates the project id is empty.
	ErrEmptyProjectID = errors.New("project id cannot be empty")

	// ErrEmptyCode indicates the snippet code is empty.
	ErrEmptyCode = errors.New("code cannot be empty")

	// ErrInvalidTopK indicates a non-positive result limit.
	ErrInvalidTopK = errors.New("top_k must be greater than zero")

	// ErrEmptyQuery indicates an empty search query.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// DependencyError wraps a collaborator failure, naming the collaborator so
// the failing party is distinguishable at the surface.
func DependencyError(collaborator string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependency, collaborator, err)
}

// Kind maps an error to its machine-readable kind string.
// Unrecognized errors report as "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrDependency):
		return "dependency"
	case errors.Is(err, ErrIngestion):
		return "ingestion"
	default:
		return "internal"
	}
}
