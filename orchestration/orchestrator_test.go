package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/ai/mock"
	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/query"
	"github.com/codemem/codemem/snippet"
	badgerstore "github.com/codemem/codemem/storage/badger"
)

func newTestOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *mock.MockAgent) {
	t.Helper()

	store, backend, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	embedder := mock.NewMockEmbedder()
	repo, err := snippet.NewRepository(store, embedder)
	require.NoError(t, err)

	for _, name := range []string{"auth-check", "token-parse", "session-store"} {
		_, err := repo.Upsert(context.Background(), snippet.UpsertInput{
			Name: name, ProjectID: "demo", Code: "func " + name + "() {}",
		})
		require.NoError(t, err)
	}

	engine, err := query.NewEngine(store, embedder)
	require.NoError(t, err)

	agent := mock.NewMockAgent()
	orch, err := NewOrchestrator(engine, agent, opts...)
	require.NoError(t, err)
	t.Cleanup(orch.Release)

	return orch, agent
}

func TestNewOrchestrator_RequiresCollaborators(t *testing.T) {
	store, backend, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	defer backend.Close()

	engine, err := query.NewEngine(store, mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = NewOrchestrator(nil, mock.NewMockAgent())
	assert.ErrorIs(t, err, ErrEngineRequired)

	_, err = NewOrchestrator(engine, nil)
	assert.ErrorIs(t, err, ErrAgentRequired)
}

func TestRun_SingleTask(t *testing.T) {
	orch, agent := newTestOrchestrator(t)

	artifact, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "authentication",
		Graph: GraphSpec{Tasks: []TaskSpec{
			{ID: "summary", Kind: KindSummarize},
		}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, artifact.RequestID)
	assert.Equal(t, "demo", artifact.ProjectID)
	assert.False(t, artifact.Partial)
	require.Len(t, artifact.Sections, 1)
	assert.Equal(t, "summary", artifact.Sections[0].TaskID)
	assert.Contains(t, artifact.Sections[0].Content, ai.TaskKindSummarize)

	tasks := agent.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, ai.TaskKindSummarize, tasks[0].Kind)
	assert.Len(t, tasks[0].Snippets, 3, "every task sees the retrieved snippets")
}

func TestRun_InvalidGraphRejectedBeforeRetrieval(t *testing.T) {
	orch, agent := newTestOrchestrator(t)

	_, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "q",
		Graph: GraphSpec{Tasks: []TaskSpec{
			{ID: "a", Kind: KindSummarize, DependsOn: []string{"b"}},
			{ID: "b", Kind: KindStyleGuide, DependsOn: []string{"a"}},
		}},
	})
	assert.ErrorIs(t, err, ErrCycle)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Zero(t, agent.CallCount())
}

func TestRun_EmptyQuerySurfacesValidation(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	_, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "",
		Graph:     GraphSpec{Tasks: []TaskSpec{{ID: "a", Kind: KindSummarize}}},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRun_DependentReceivesUpstreamOutput(t *testing.T) {
	orch, agent := newTestOrchestrator(t)
	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		if task.Kind == ai.TaskKindSummarize {
			return "SUMMARY-OUTPUT", nil
		}
		return "docs built on: " + task.Inputs["summary"], nil
	}

	artifact, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "authentication",
		Graph: GraphSpec{Tasks: []TaskSpec{
			{ID: "summary", Kind: KindSummarize},
			{ID: "docs", Kind: KindDocumentation, DependsOn: []string{"summary"}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, artifact.Sections, 2)
	// Sections are ordered by task id: "docs" before "summary".
	assert.Equal(t, "docs", artifact.Sections[0].TaskID)
	assert.Equal(t, "docs built on: SUMMARY-OUTPUT", artifact.Sections[0].Content)
}

func TestRun_IndependentTasksRunConcurrently(t *testing.T) {
	orch, agent := newTestOrchestrator(t, WithWorkers(3))

	started := make(chan string, 3)
	release := make(chan struct{})
	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		started <- task.Kind
		select {
		case <-release:
			return task.Kind, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := orch.Run(context.Background(), Request{
			ProjectID: "demo",
			Query:     "q",
			Graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "a", Kind: KindSummarize},
				{ID: "b", Kind: KindStyleGuide},
				{ID: "c", Kind: KindDocumentation},
			}},
		})
		assert.NoError(t, err)
	}()

	// All three must start without any completing first.
	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("independent tasks did not start concurrently")
		}
	}
	close(release)
	<-done
}

func TestRun_FailedDependencySkipsDependents(t *testing.T) {
	orch, agent := newTestOrchestrator(t, WithMergePolicy(MergeBestEffort))
	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		if task.Kind == ai.TaskKindStyleGuide {
			return "", errors.New("agent exploded")
		}
		return strings.ToUpper(task.Kind), nil
	}

	// A succeeds; B fails; C depends on B and must fail without running.
	artifact, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "q",
		Graph: GraphSpec{Tasks: []TaskSpec{
			{ID: "a", Kind: KindSummarize},
			{ID: "b", Kind: KindStyleGuide},
			{ID: "c", Kind: KindDocumentation, DependsOn: []string{"b"}},
		}},
	})
	require.NoError(t, err)

	assert.True(t, artifact.Partial)
	require.Len(t, artifact.Sections, 1)
	assert.Equal(t, "a", artifact.Sections[0].TaskID)

	require.Len(t, artifact.Failures, 2)
	byID := map[string]TaskFailure{}
	for _, f := range artifact.Failures {
		byID[f.TaskID] = f
	}
	assert.ErrorIs(t, byID["b"].Err, core.ErrDependency)
	assert.ErrorIs(t, byID["c"].Err, ErrDependencyFailed)

	// The agent never saw the skipped dependent.
	for _, task := range agent.Tasks() {
		assert.NotEqual(t, ai.TaskKindDocumentation, task.Kind)
	}
}

func TestRun_StrictMergeFailsOnAnyTaskFailure(t *testing.T) {
	orch, agent := newTestOrchestrator(t)
	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		if task.Kind == ai.TaskKindStyleGuide {
			return "", errors.New("agent exploded")
		}
		return "ok", nil
	}

	_, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "q",
		Graph: GraphSpec{Tasks: []TaskSpec{
			{ID: "a", Kind: KindSummarize},
			{ID: "b", Kind: KindStyleGuide},
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTaskFailed)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestRun_BestEffortAllFailedIsError(t *testing.T) {
	orch, agent := newTestOrchestrator(t, WithMergePolicy(MergeBestEffort))
	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		return "", errors.New("agent exploded")
	}

	_, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "q",
		Graph:     GraphSpec{Tasks: []TaskSpec{{ID: "a", Kind: KindSummarize}}},
	})
	assert.ErrorIs(t, err, ErrAllTasksFailed)
}

func TestRun_TimeoutFailsRemainingTasks(t *testing.T) {
	orch, agent := newTestOrchestrator(t,
		WithMergePolicy(MergeBestEffort), WithTimeout(200*time.Millisecond))

	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		if task.Kind == ai.TaskKindSummarize {
			return "fast result", nil
		}
		<-ctx.Done() // hangs until the run deadline cancels it
		return "", ctx.Err()
	}

	artifact, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "q",
		Graph: GraphSpec{Tasks: []TaskSpec{
			{ID: "fast", Kind: KindSummarize},
			{ID: "slow", Kind: KindStyleGuide},
		}},
	})
	require.NoError(t, err)

	assert.True(t, artifact.Partial)
	require.Len(t, artifact.Sections, 1)
	assert.Equal(t, "fast", artifact.Sections[0].TaskID)

	require.Len(t, artifact.Failures, 1)
	assert.Equal(t, "slow", artifact.Failures[0].TaskID)
	assert.ErrorIs(t, artifact.Failures[0].Err, core.ErrTimeout)
}

func TestRun_StrictTimeoutSurfacesTimeout(t *testing.T) {
	orch, agent := newTestOrchestrator(t, WithTimeout(100*time.Millisecond))
	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	_, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "q",
		Graph:     GraphSpec{Tasks: []TaskSpec{{ID: "a", Kind: KindSummarize}}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTaskFailed)
	assert.ErrorIs(t, err, core.ErrTimeout)
}

func TestRun_DiamondGraphOrdering(t *testing.T) {
	orch, agent := newTestOrchestrator(t, WithWorkers(4))

	agent.RunFunc = func(ctx context.Context, task ai.AgentTask) (string, error) {
		return task.Kind, nil
	}

	artifact, err := orch.Run(context.Background(), Request{
		ProjectID: "demo",
		Query:     "q",
		Graph: GraphSpec{Tasks: []TaskSpec{
			{ID: "root", Kind: KindSummarize},
			{ID: "left", Kind: KindStyleGuide, DependsOn: []string{"root"}},
			{ID: "right", Kind: KindDocumentation, DependsOn: []string{"root"}},
			{ID: "sink", Kind: KindSummarize, DependsOn: []string{"left", "right"}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, artifact.Sections, 4)
	ids := make([]string, len(artifact.Sections))
	for i, s := range artifact.Sections {
		ids[i] = s.TaskID
	}
	assert.Equal(t, []string{"left", "right", "root", "sink"}, ids,
		"sections are ordered by task id")

	// The sink saw both upstream outputs.
	var sinkTask *ai.AgentTask
	for i := range agent.Tasks() {
		task := agent.Tasks()[i]
		if len(task.Inputs) == 2 {
			sinkTask = &task
			break
		}
	}
	require.NotNil(t, sinkTask)
	assert.Contains(t, sinkTask.Inputs, "left")
	assert.Contains(t, sinkTask.Inputs, "right")
}
