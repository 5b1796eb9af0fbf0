package orchestration

import (
	"fmt"

	"github.com/codemem/codemem/core"
)

// validateGraph checks the structural invariants of a request graph: at
// least one task, unique non-empty ids, dependencies on declared tasks only
// and no cycles. All violations surface as validation errors.
func validateGraph(graph GraphSpec) error {
	if len(graph.Tasks) == 0 {
		return fmt.Errorf("%w: %w", core.ErrValidation, ErrEmptyGraph)
	}

	byID := make(map[string]TaskSpec, len(graph.Tasks))
	for _, spec := range graph.Tasks {
		if spec.ID == "" {
			return fmt.Errorf("%w: %w", core.ErrValidation, ErrEmptyTaskID)
		}
		if _, exists := byID[spec.ID]; exists {
			return fmt.Errorf("%w: %w: %q", core.ErrValidation, ErrDuplicateTaskID, spec.ID)
		}
		byID[spec.ID] = spec
	}

	for _, spec := range graph.Tasks {
		for _, dep := range spec.DependsOn {
			if dep == spec.ID {
				return fmt.Errorf("%w: %w: %q", core.ErrValidation, ErrSelfDependency, spec.ID)
			}
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("%w: %w: %q -> %q", core.ErrValidation, ErrUnknownDependency, spec.ID, dep)
			}
		}
	}

	// Kahn's algorithm: if not every task can be peeled off in dependency
	// order, the remainder forms a cycle.
	indegree := make(map[string]int, len(graph.Tasks))
	dependents := make(map[string][]string, len(graph.Tasks))
	for _, spec := range graph.Tasks {
		indegree[spec.ID] = len(spec.DependsOn)
		for _, dep := range spec.DependsOn {
			dependents[dep] = append(dependents[dep], spec.ID)
		}
	}

	queue := make([]string, 0, len(graph.Tasks))
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if visited != len(graph.Tasks) {
		return fmt.Errorf("%w: %w", core.ErrValidation, ErrCycle)
	}
	return nil
}
