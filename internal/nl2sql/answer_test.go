package nl2sql

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/datapilot/datapilot/internal/warehouse"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult() warehouse.Result {
	return warehouse.Result{
		Columns: []string{"country", "orders"},
		Rows: [][]any{
			{"DE", int64(120)},
			{"US", int64(95)},
		},
	}
}

func TestBuildUsesOracleAnswer(t *testing.T) {
	completer := &stubCompleter{response: "Germany leads with 120 orders."}
	builder := NewAnswerBuilder(completer, testLogger(), 20, 1024)

	answer := builder.Build(context.Background(), "orders per country", "SELECT 1", sampleResult())
	if answer != "Germany leads with 120 orders." {
		t.Fatalf("answer = %q", answer)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("prompts = %d", len(completer.prompts))
	}
	if !strings.Contains(completer.prompts[0], "DE") {
		t.Fatalf("prompt missing result data:\n%s", completer.prompts[0])
	}
}

func TestBuildFallsBackToTableOnOracleError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("oracle down")}
	builder := NewAnswerBuilder(completer, testLogger(), 20, 1024)

	answer := builder.Build(context.Background(), "orders per country", "SELECT 1", sampleResult())
	if !strings.Contains(answer, "country") || !strings.Contains(answer, "DE") {
		t.Fatalf("fallback table missing data:\n%s", answer)
	}
}

func TestBuildEmptyResult(t *testing.T) {
	completer := &stubCompleter{err: errors.New("oracle down")}
	builder := NewAnswerBuilder(completer, testLogger(), 20, 1024)

	answer := builder.Build(context.Background(), "q", "SELECT 1", warehouse.Result{Columns: []string{"a"}})
	if answer != "The query returned no rows." {
		t.Fatalf("answer = %q", answer)
	}
}

func TestBuildDisclosesSamplingAndTruncation(t *testing.T) {
	result := warehouse.Result{Columns: []string{"n"}, Truncated: true}
	for i := 0; i < 30; i++ {
		result.Rows = append(result.Rows, []any{int64(i)})
	}
	completer := &stubCompleter{err: errors.New("oracle down")}
	builder := NewAnswerBuilder(completer, testLogger(), 20, 1024)

	answer := builder.Build(context.Background(), "q", "SELECT 1", result)
	if !strings.Contains(answer, "showing first 20 of 30 rows") {
		t.Fatalf("missing sampling disclosure:\n%s", answer)
	}
	if !strings.Contains(answer, "truncated at the row cap") {
		t.Fatalf("missing truncation disclosure:\n%s", answer)
	}
}

func TestExplainFailureFallback(t *testing.T) {
	completer := &stubCompleter{err: errors.New("oracle down")}
	builder := NewAnswerBuilder(completer, testLogger(), 20, 1024)

	answer := builder.ExplainFailure(context.Background(), "q", "warehouse_error: column cnt not found")
	if !strings.Contains(answer, "column cnt not found") {
		t.Fatalf("answer = %q", answer)
	}
}

func TestExplainFailureUsesOracle(t *testing.T) {
	completer := &stubCompleter{response: "The column cnt does not exist in orders."}
	builder := NewAnswerBuilder(completer, testLogger(), 20, 1024)

	answer := builder.ExplainFailure(context.Background(), "q", "warehouse_error: column cnt not found")
	if answer != "The column cnt does not exist in orders." {
		t.Fatalf("answer = %q", answer)
	}
}
