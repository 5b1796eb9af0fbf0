package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/codemem/codemem/ai"
)

// MockAgent is a test double for ai.ReasoningAgent.
// It records every task it is asked to run and allows custom behavior
// injection via a function field.
type MockAgent struct {
	// RunFunc is called by Run if set. If nil, a canned response derived
	// from the task kind is returned.
	RunFunc func(ctx context.Context, task ai.AgentTask) (string, error)

	mu    sync.Mutex
	tasks []ai.AgentTask
}

// NewMockAgent creates a mock agent with default canned behavior.
// Note: Returns concrete type to allow test assertions via GetMockAgent().
func NewMockAgent() *MockAgent {
	return &MockAgent{}
}

// Run records the task and returns the injected or canned response.
func (m *MockAgent) Run(ctx context.Context, task ai.AgentTask) (string, error) {
	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, task)
	}

	return fmt.Sprintf("%s result over %d snippets", task.Kind, len(task.Snippets)), nil
}

// Tasks returns a copy of the tasks Run has received, in call order.
func (m *MockAgent) Tasks() []ai.AgentTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.AgentTask, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// CallCount returns the number of times Run was called.
func (m *MockAgent) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Reset clears recorded tasks and injected behavior.
func (m *MockAgent) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = nil
	m.RunFunc = nil
}
