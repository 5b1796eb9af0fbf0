package orchestration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codemem/codemem/core"
)

func TestValidateGraph(t *testing.T) {
	tests := []struct {
		name  string
		graph GraphSpec
		want  error
	}{
		{
			name:  "empty graph",
			graph: GraphSpec{},
			want:  ErrEmptyGraph,
		},
		{
			name: "empty task id",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "", Kind: KindSummarize},
			}},
			want: ErrEmptyTaskID,
		},
		{
			name: "duplicate task id",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "a", Kind: KindSummarize},
				{ID: "a", Kind: KindStyleGuide},
			}},
			want: ErrDuplicateTaskID,
		},
		{
			name: "unknown dependency",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "a", Kind: KindSummarize, DependsOn: []string{"ghost"}},
			}},
			want: ErrUnknownDependency,
		},
		{
			name: "self dependency",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "a", Kind: KindSummarize, DependsOn: []string{"a"}},
			}},
			want: ErrSelfDependency,
		},
		{
			name: "two-node cycle",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "a", Kind: KindSummarize, DependsOn: []string{"b"}},
				{ID: "b", Kind: KindStyleGuide, DependsOn: []string{"a"}},
			}},
			want: ErrCycle,
		},
		{
			name: "three-node cycle behind a valid prefix",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "root", Kind: KindSummarize},
				{ID: "a", Kind: KindSummarize, DependsOn: []string{"root", "c"}},
				{ID: "b", Kind: KindStyleGuide, DependsOn: []string{"a"}},
				{ID: "c", Kind: KindDocumentation, DependsOn: []string{"b"}},
			}},
			want: ErrCycle,
		},
		{
			name: "valid single task",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "a", Kind: KindSummarize},
			}},
		},
		{
			name: "valid diamond",
			graph: GraphSpec{Tasks: []TaskSpec{
				{ID: "a", Kind: KindSummarize},
				{ID: "b", Kind: KindStyleGuide, DependsOn: []string{"a"}},
				{ID: "c", Kind: KindDocumentation, DependsOn: []string{"a"}},
				{ID: "d", Kind: KindSummarize, DependsOn: []string{"b", "c"}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGraph(tt.graph)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestParseTaskKind(t *testing.T) {
	for _, kind := range []TaskKind{KindSummarize, KindStyleGuide, KindDocumentation} {
		parsed, err := ParseTaskKind(kind.String())
		assert.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParseTaskKind("translate")
	assert.ErrorIs(t, err, ErrUnknownTaskKind)
}
