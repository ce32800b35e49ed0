// Package nl2sql turns questions into candidate SQL and query results back
// into natural-language answers, via an OpenAI-compatible oracle.
package nl2sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datapilot/datapilot/internal/observability"
	"github.com/datapilot/datapilot/internal/oracle"
)

// Example is a past question/SQL pair injected into the prompt for few-shot
// guidance.
type Example struct {
	Question string
	SQL      string
}

type GenerateInput struct {
	Question      string
	SchemaContext string
	Examples      []Example
	// PreviousSQL and Reflection are set on repair attempts after a failed
	// validation or execution.
	PreviousSQL string
	Reflection  string
}

type Generator struct {
	completer       oracle.Completer
	maxOutputTokens int
}

func NewGenerator(completer oracle.Completer, maxOutputTokens int) *Generator {
	return &Generator{completer: completer, maxOutputTokens: maxOutputTokens}
}

// Generate returns the candidate SQL for a question. Markdown fences around
// the model output are stripped; everything else is passed through untouched
// and left to the sanitizer to judge.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (string, error) {
	if strings.TrimSpace(in.Question) == "" {
		return "", fmt.Errorf("question is required")
	}

	start := time.Now()
	completion, err := g.completer.Complete(ctx, renderGenerationPrompt(in), g.maxOutputTokens)
	observability.ObserveOracleCall("generate", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}

	sqlText := stripMarkdownSQL(completion)
	if sqlText == "" {
		return "", fmt.Errorf("model returned empty SQL")
	}
	return sqlText, nil
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
