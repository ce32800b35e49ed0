package nl2sql

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	completer := &stubCompleter{response: "```sql\nSELECT count(*) FROM orders\n```"}
	generator := NewGenerator(completer, 1024)

	sqlText, err := generator.Generate(context.Background(), GenerateInput{Question: "how many orders"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if sqlText != "SELECT count(*) FROM orders" {
		t.Fatalf("sql = %q", sqlText)
	}
}

func TestGeneratePromptCarriesSchemaAndExamples(t *testing.T) {
	completer := &stubCompleter{response: "SELECT 1"}
	generator := NewGenerator(completer, 1024)

	_, err := generator.Generate(context.Background(), GenerateInput{
		Question:      "orders per country",
		SchemaContext: "TABLE orders\n  id BIGINT",
		Examples: []Example{
			{Question: "total orders", SQL: "SELECT count(*) FROM orders"},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("prompts = %d", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	for _, fragment := range []string{
		"TABLE orders",
		"Question: total orders",
		"SELECT count(*) FROM orders",
		"Question: orders per country",
		"SECURITY_VIOLATION",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestGenerateRepairPromptCarriesReflection(t *testing.T) {
	completer := &stubCompleter{response: "SELECT 2"}
	generator := NewGenerator(completer, 1024)

	_, err := generator.Generate(context.Background(), GenerateInput{
		Question:    "orders per country",
		PreviousSQL: "SELECT cnt FROM orders",
		Reflection:  "warehouse_error: column cnt not found",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "Previous query: SELECT cnt FROM orders") {
		t.Fatalf("prompt missing previous query:\n%s", prompt)
	}
	if !strings.Contains(prompt, "column cnt not found") {
		t.Fatalf("prompt missing reflection detail:\n%s", prompt)
	}
}

func TestGenerateRequiresQuestion(t *testing.T) {
	generator := NewGenerator(&stubCompleter{response: "SELECT 1"}, 1024)
	if _, err := generator.Generate(context.Background(), GenerateInput{}); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestGenerateRejectsEmptyCompletion(t *testing.T) {
	generator := NewGenerator(&stubCompleter{response: "```\n```"}, 1024)
	if _, err := generator.Generate(context.Background(), GenerateInput{Question: "q"}); err == nil {
		t.Fatal("expected error for empty SQL")
	}
}

func TestGeneratePropagatesOracleError(t *testing.T) {
	wantErr := errors.New("oracle down")
	generator := NewGenerator(&stubCompleter{err: wantErr}, 1024)
	if _, err := generator.Generate(context.Background(), GenerateInput{Question: "q"}); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped oracle error", err)
	}
}
