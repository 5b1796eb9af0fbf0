package ingestion

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/codemem/codemem/core"
)

// maxLineBytes bounds a single JSON-Lines entry. Large code snippets fit
// comfortably; anything beyond this is treated as malformed.
const maxLineBytes = 4 * 1024 * 1024

// IngestReader consumes JSON-Lines input, one item object per line, and
// ingests the decoded items as a batch. Blank lines are ignored; malformed
// lines are skipped and recorded in the summary without aborting the read.
func (p *Pipeline) IngestReader(ctx context.Context, source string, r io.Reader) (*Summary, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		items     []Item
		malformed []ItemError
		lineNo    int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			malformed = append(malformed, ItemError{
				Index: lineNo - 1,
				Kind:  "validation",
				Err:   fmt.Errorf("%w: %w: line %d: %w", core.ErrValidation, ErrMalformedItem, lineNo, err),
			})
			p.logger.Warn("skipping malformed line", "source", source, "line", lineNo, "err", err)
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", core.ErrIngestion, source, err)
	}

	summary, err := p.IngestItems(ctx, source, items)
	summary.Skipped += len(malformed)
	summary.Errors = append(summary.Errors, malformed...)
	return summary, err
}
