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


package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/codemem/codemem/ai"
)

// Agent implements ai.ReasoningAgent using OpenAI-compatible chat APIs.
type Agent struct {
	client llms.Model
	logger *slog.Logger
}

// styleGuide is the expected JSON shape of a style-guide task response.
type styleGuide struct {
	Rules []styleRule `json:"rules"`
}

type styleRule struct {
	Title     string `json:"title"`
	Rationale string `json:"rationale"`
	Example   string `json:"example"`
}

// newAgent is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAgent(config *ai.Config) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.AgentHost),
		openai.WithToken("none"),
		openai.WithModel(config.AgentModel),
	)
	if err != nil {
		return nil, err
	}

	return &Agent{
		client: client,
		logger: slog.Default().With("component", "openai-agent"),
	}, nil
}

// NewAgent creates a new reasoning agent using the provided configuration.
//
// Returns ai.ReasoningAgent interface to enforce abstraction.
func NewAgent(config *ai.Config) (ai.ReasoningAgent, error) {
	return newAgent(config)
}

// Run executes a single analysis task against the chat model.
// Style-guide tasks are validated as JSON and re-requested on malformed
// output, up to 3 attempts.
func (a *Agent) Run(ctx context.Context, task ai.AgentTask) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPromptFor(task.Kind))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(renderTaskInput(task))},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(0.0)}
	wantJSON := task.Kind == ai.TaskKindStyleGuide
	if wantJSON {
		opts = append(opts, llms.WithJSONMode())
	}

	attempts := 1
	if wantJSON {
		// Malformed JSON is worth another try; plain prose is not.
		attempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, opts...)
		if err != nil {
			a.logger.Error("failed to generate content", "kind", task.Kind, "attempt", attempt, "err", err)
			return "", err
		}
		if len(response.Choices) < 1 {
			return "", errors.New("no choices returned from model")
		}

		text := stripCodeFences(response.Choices[0].Content)
		if !wantJSON {
			return text, nil
		}

		repaired := repairJSON(text)
		var guide styleGuide
		if err := json.Unmarshal([]byte(repaired), &guide); err != nil {
			lastErr = err
			a.logger.Warn("error parsing style guide response",
				"attempt", attempt,
				"err", err)
			continue
		}
		return renderStyleGuide(guide), nil
	}

	a.logger.Error("failed to parse style guide response after retries", "err", lastErr)
	return "", lastErr
}

// renderStyleGuide converts the parsed JSON rules into markdown.
func renderStyleGuide(guide styleGuide) string {
	if len(guide.Rules) == 0 {
		return "No conventions identified.\n"
	}
	var b strings.Builder
	for i, rule := range guide.Rules {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, rule.Title)
		if rule.Rationale != "" {
			fmt.Fprintf(&b, "   %s\n", rule.Rationale)
		}
		if rule.Example != "" {
			fmt.Fprintf(&b, "   Example: `%s`\n", rule.Example)
		}
	}
	return b.String()
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
