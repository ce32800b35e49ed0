package nl2sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/datapilot/datapilot/internal/observability"
	"github.com/datapilot/datapilot/internal/oracle"
	"github.com/datapilot/datapilot/internal/warehouse"
)

// AnswerBuilder turns query results into natural-language answers. The
// oracle writes the prose; when it is unavailable the builder falls back to
// a deterministic tabular rendering so a successful query never loses its
// answer to an oracle outage.
type AnswerBuilder struct {
	completer       oracle.Completer
	logger          *slog.Logger
	sampleRows      int
	maxOutputTokens int
}

func NewAnswerBuilder(completer oracle.Completer, logger *slog.Logger, sampleRows, maxOutputTokens int) *AnswerBuilder {
	if sampleRows <= 0 {
		sampleRows = 20
	}
	return &AnswerBuilder{
		completer:       completer,
		logger:          logger,
		sampleRows:      sampleRows,
		maxOutputTokens: maxOutputTokens,
	}
}

// Build answers the question from the query result. Only the first
// sampleRows rows are shown to the oracle; the prompt discloses both that
// sampling and any warehouse-side truncation.
func (b *AnswerBuilder) Build(ctx context.Context, question, sqlText string, result warehouse.Result) string {
	rendered := renderResult(result, b.sampleRows)

	start := time.Now()
	answer, err := b.completer.Complete(ctx, renderAnswerPrompt(question, sqlText, rendered), b.maxOutputTokens)
	observability.ObserveOracleCall("answer", time.Since(start))
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			b.logger.Warn("answer synthesis failed, using tabular fallback", "error", err)
		}
		return rendered
	}
	return strings.TrimSpace(answer)
}

// ExplainFailure produces the user-facing message for a run that exhausted
// its attempts. Deterministic fallback mirrors Build.
func (b *AnswerBuilder) ExplainFailure(ctx context.Context, question, detail string) string {
	start := time.Now()
	answer, err := b.completer.Complete(ctx, renderFailurePrompt(question, detail), b.maxOutputTokens)
	observability.ObserveOracleCall("explain_failure", time.Since(start))
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			b.logger.Warn("failure explanation failed, using static fallback", "error", err)
		}
		return "I could not answer the question: " + detail
	}
	return strings.TrimSpace(answer)
}

// renderResult formats a result as an aligned text table bounded to
// sampleRows rows, with disclosure lines for sampling and truncation.
func renderResult(result warehouse.Result, sampleRows int) string {
	if len(result.Rows) == 0 {
		return "The query returned no rows."
	}

	shown := result.Rows
	sampled := false
	if len(shown) > sampleRows {
		shown = shown[:sampleRows]
		sampled = true
	}

	widths := make([]int, len(result.Columns))
	for i, column := range result.Columns {
		widths[i] = len(column)
	}
	cells := make([][]string, len(shown))
	for rowIdx, rowValues := range shown {
		cells[rowIdx] = make([]string, len(result.Columns))
		for colIdx := range result.Columns {
			text := ""
			if colIdx < len(rowValues) {
				text = formatValue(rowValues[colIdx])
			}
			cells[rowIdx][colIdx] = text
			if len(text) > widths[colIdx] {
				widths[colIdx] = len(text)
			}
		}
	}

	var b strings.Builder
	for i, column := range result.Columns {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%-*s", widths[i], column)
	}
	b.WriteString("\n")
	for _, rowCells := range cells {
		for i, text := range rowCells {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], text)
		}
		b.WriteString("\n")
	}

	if sampled {
		fmt.Fprintf(&b, "(showing first %d of %d rows)\n", sampleRows, len(result.Rows))
	}
	if result.Truncated {
		b.WriteString("(result was truncated at the row cap; totals may be incomplete)\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", value)
}
