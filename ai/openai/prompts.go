package openai

import (
	"fmt"
	"slices"
	"strings"

	"github.com/codemem/codemem/ai"
)

const summarizePrompt = `You are a senior engineer summarizing a set of code snippets.

Write a concise technical summary of what the snippets do, grouped by purpose.
Mention the languages involved and any notable algorithms or patterns.
Output plain markdown. Do not include any preamble, greeting, or
acknowledgment; start directly with the summary.`

const styleGuidePrompt = `You are a senior engineer deriving a style guide from a set of code snippets.

Identify the conventions the snippets follow (naming, error handling,
structure, documentation) and output ONLY valid JSON matching:

{
  "rules": [
    {"title": "...", "rationale": "...", "example": "..."}
  ]
}

Start your response directly with the opening brace { and end with the
closing brace }. No trailing commas, no extra keys, no text outside the
object. If no conventions can be identified, return "rules": [].`

const documentationPrompt = `You are a senior engineer writing reference documentation for a set of code snippets.

For each snippet produce a short section: what it does, its inputs and
outputs, and an example of use when one is evident from the code.
Output plain markdown. Do not include any preamble; start directly with
the first section heading.`

const genericPrompt = `You are a senior engineer analyzing a set of code snippets.

Perform the analysis named %q over the snippets and report your findings
as plain markdown. Do not include any preamble; start directly with the
findings.`

// systemPromptFor returns the system prompt for a task kind.
// Unknown kinds get the generic analysis prompt.
func systemPromptFor(kind string) string {
	switch kind {
	case ai.TaskKindSummarize:
		return summarizePrompt
	case ai.TaskKindStyleGuide:
		return styleGuidePrompt
	case ai.TaskKindDocumentation:
		return documentationPrompt
	default:
		return fmt.Sprintf(genericPrompt, kind)
	}
}

// renderTaskInput builds the user message for a task: the retrieved snippet
// context followed by the outputs of prerequisite tasks.
func renderTaskInput(task ai.AgentTask) string {
	var b strings.Builder

	b.WriteString("## Snippets\n\n")
	if len(task.Snippets) == 0 {
		b.WriteString("(none retrieved)\n")
	}
	for i, snippet := range task.Snippets {
		fmt.Fprintf(&b, "### Snippet %d\n\n%s\n\n", i+1, snippet)
	}

	if len(task.Inputs) > 0 {
		b.WriteString("## Prior results\n\n")
		for _, id := range sortedKeys(task.Inputs) {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", id, task.Inputs[id])
		}
	}

	return b.String()
}

// sortedKeys returns map keys in ascending order so agent inputs render
// deterministically.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
