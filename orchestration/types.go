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


package orchestration

import (
	"fmt"
	"time"

	"github.com/codemem/codemem/ai"
)

// TaskKind identifies the reasoning work a task performs.
type TaskKind int

const (
	KindSummarize TaskKind = iota
	KindStyleGuide
	KindDocumentation
)

// String returns the wire name of the kind, as given to the reasoning agent.
func (k TaskKind) String() string {
	switch k {
	case KindSummarize:
		return ai.TaskKindSummarize
	case KindStyleGuide:
		return ai.TaskKindStyleGuide
	case KindDocumentation:
		return ai.TaskKindDocumentation
	default:
		return fmt.Sprintf("TaskKind(%d)", int(k))
	}
}

// ParseTaskKind maps a wire name back to its TaskKind.
func ParseTaskKind(s string) (TaskKind, error) {
	switch s {
	case ai.TaskKindSummarize:
		return KindSummarize, nil
	case ai.TaskKindStyleGuide:
		return KindStyleGuide, nil
	case ai.TaskKindDocumentation:
		return KindDocumentation, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTaskKind, s)
	}
}

// TaskState tracks a task through the scheduler.
type TaskState int

const (
	StatePending TaskState = iota
	StateRunning
	StateDone
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// TaskSpec declares one task in a request graph.
type TaskSpec struct {
	ID        string
	Kind      TaskKind
	DependsOn []string
}

// GraphSpec declares the full task graph for a request.
type GraphSpec struct {
	Tasks []TaskSpec
}

// MergePolicy decides how task failures affect the merged artifact.
type MergePolicy int

const (
	// MergeStrict fails the whole request if any task failed.
	MergeStrict MergePolicy = iota

	// MergeBestEffort returns a partial artifact as long as at least one
	// task succeeded.
	MergeBestEffort
)

// Request is one orchestration run: retrieve context snippets for the query,
// then execute the task graph over them.
type Request struct {
	ProjectID string
	Query     string
	TopK      int // retrieval depth; defaults when non-positive
	Graph     GraphSpec
}

// Section is the output of one completed task.
type Section struct {
	TaskID  string
	Kind    TaskKind
	Content string
}

// TaskFailure describes one task that did not complete.
type TaskFailure struct {
	TaskID string
	Kind   TaskKind
	Err    error
}

// Artifact is the merged result of a run. Sections are ordered by task id.
type Artifact struct {
	RequestID string
	ProjectID string
	Query     string
	Sections  []Section
	Failures  []TaskFailure
	Partial   bool
	CreatedAt time.Time
}
