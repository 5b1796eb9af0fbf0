package orchestration

import "errors"

var (
	// ErrEngineRequired is returned when a query engine is not provided.
	ErrEngineRequired = errors.New("query engine required")

	// ErrAgentRequired is returned when a reasoning agent is not provided.
	ErrAgentRequired = errors.New("reasoning agent required")

	// ErrEmptyGraph indicates a request graph with no tasks.
	ErrEmptyGraph = errors.New("task graph has no tasks")

	// ErrEmptyTaskID indicates a task declared without an id.
	ErrEmptyTaskID = errors.New("task id must not be empty")

	// ErrDuplicateTaskID indicates two tasks sharing an id.
	ErrDuplicateTaskID = errors.New("duplicate task id")

	// ErrUnknownDependency indicates a dependency on an undeclared task.
	ErrUnknownDependency = errors.New("dependency on unknown task")

	// ErrSelfDependency indicates a task depending on itself.
	ErrSelfDependency = errors.New("task depends on itself")

	// ErrCycle indicates the dependency graph is not acyclic.
	ErrCycle = errors.New("task graph contains a cycle")

	// ErrUnknownTaskKind indicates an unrecognized task kind name.
	ErrUnknownTaskKind = errors.New("unknown task kind")

	// ErrDependencyFailed marks tasks skipped because an upstream task failed.
	ErrDependencyFailed = errors.New("upstream task failed")

	// ErrTaskFailed is the strict-merge failure wrapper.
	ErrTaskFailed = errors.New("task failed")

	// ErrAllTasksFailed indicates no task produced a section.
	ErrAllTasksFailed = errors.New("all tasks failed")
)
