// Package agent runs the self-correcting question-to-answer loop: select
// schema context and examples once, then generate, validate, execute and, on
// failure, reflect and regenerate until the attempt budget is spent.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datapilot/datapilot/internal/catalog"
	"github.com/datapilot/datapilot/internal/memory"
	"github.com/datapilot/datapilot/internal/nl2sql"
	"github.com/datapilot/datapilot/internal/observability"
	"github.com/datapilot/datapilot/internal/sanitize"
	"github.com/datapilot/datapilot/internal/warehouse"
)

// trainingReadLimit bounds how many stored records example selection scans.
const trainingReadLimit = 500

type Config struct {
	MaxAttempts  int
	QueryTimeout time.Duration
	MaxRows      int
}

type Orchestrator struct {
	source    catalog.Source
	selector  *catalog.Selector
	examples  *memory.ExampleSelector
	store     memory.Store
	generator *nl2sql.Generator
	validator sanitize.Validator
	engine    warehouse.Engine
	answers   *nl2sql.AnswerBuilder
	reflector nl2sql.Reflector
	saver     *Saver
	logger    *slog.Logger
	cfg       Config
}

func NewOrchestrator(
	source catalog.Source,
	selector *catalog.Selector,
	examples *memory.ExampleSelector,
	store memory.Store,
	generator *nl2sql.Generator,
	engine warehouse.Engine,
	answers *nl2sql.AnswerBuilder,
	saver *Saver,
	logger *slog.Logger,
	cfg Config,
) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Orchestrator{
		source:    source,
		selector:  selector,
		examples:  examples,
		store:     store,
		generator: generator,
		engine:    engine,
		answers:   answers,
		saver:     saver,
		logger:    logger,
		cfg:       cfg,
	}
}

// RunOutcome is the terminal result of one ask run. State is StateDone or
// StateFailed; Answer is user-facing either way.
type RunOutcome struct {
	State     State
	Answer    string
	SQL       string
	Attempts  int
	Truncated bool
	Columns   []string
	Rows      [][]any
}

// Ask answers one question against a dataset. Schema context and few-shot
// examples are selected once per run; the generate/validate/execute loop
// reuses them across repair attempts. On budget exhaustion the outcome
// carries a user-facing explanation and the returned error is a
// *RetryBudgetExceededError.
func (o *Orchestrator) Ask(ctx context.Context, datasetID, question string) (RunOutcome, error) {
	logger := o.logger.With("dataset_id", datasetID)

	dataset, err := o.source.Dataset(ctx, datasetID)
	if err != nil {
		return RunOutcome{}, &SchemaResolutionError{DatasetID: datasetID, Err: err}
	}
	selection := o.selector.Select(question, dataset)
	logger.Info("schema context selected", "tables", len(selection.Tables))

	examples := o.selectExamples(ctx, datasetID, question, logger)

	var reflection *nl2sql.Reflection
	var candidateSQL string
	attempts := 0

	for attempts < o.cfg.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return RunOutcome{}, err
		}
		attempts++

		input := nl2sql.GenerateInput{
			Question:      question,
			SchemaContext: selection.Context,
			Examples:      examples,
		}
		if reflection != nil {
			input.PreviousSQL = candidateSQL
			input.Reflection = reflection.Instruction()
		}

		sqlText, err := o.generator.Generate(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return RunOutcome{}, ctx.Err()
			}
			observability.ObserveAskRun(string(StateFailed), attempts)
			return RunOutcome{}, &GenerationError{Err: err}
		}
		candidateSQL = sqlText
		logger.Info("candidate generated", "attempt", attempts)

		verdict := o.validator.Validate(candidateSQL)
		if !verdict.Accepted {
			observability.IncrementValidationRejection(verdict.Reason)
			next := o.reflector.FromValidation(verdict)
			reflection = &next
			logger.Warn("candidate rejected", "attempt", attempts, "reason", verdict.Reason)
			continue
		}

		start := time.Now()
		result, err := o.engine.Execute(ctx, warehouse.Request{
			SQL:     candidateSQL,
			Tables:  selection.Tables,
			Timeout: o.cfg.QueryTimeout,
			MaxRows: o.cfg.MaxRows,
		})
		observability.ObserveWarehouseQuery(time.Since(start))
		if err != nil {
			if ctx.Err() != nil {
				return RunOutcome{}, ctx.Err()
			}
			next := o.reflector.FromExecution(&ExecutionError{Err: err})
			reflection = &next
			logger.Warn("execution failed", "attempt", attempts, "error", err)
			continue
		}
		if len(result.Rows) == 0 {
			next := o.reflector.FromEmptyResult()
			reflection = &next
			logger.Info("empty result, reflecting", "attempt", attempts)
			continue
		}

		answer := o.answers.Build(ctx, question, candidateSQL, result)
		o.saver.SaveSuccess(ctx, memory.AppendQueryHistoryInput{
			DatasetID: datasetID,
			Question:  question,
			SQL:       candidateSQL,
			Outcome:   memory.OutcomeDone,
			Attempts:  attempts,
			Answer:    answer,
		})
		observability.ObserveAskRun(string(StateDone), attempts)
		logger.Info("run done", "attempts", attempts, "rows", len(result.Rows))

		return RunOutcome{
			State:     StateDone,
			Answer:    answer,
			SQL:       candidateSQL,
			Attempts:  attempts,
			Truncated: result.Truncated,
			Columns:   result.Columns,
			Rows:      result.Rows,
		}, nil
	}

	// Budget spent. reflection is always set here: the only way to finish an
	// attempt without returning is via a failure diagnosis.
	kind, detail := "unknown", "no attempt was made"
	if reflection != nil {
		kind, detail = string(reflection.Kind), reflection.Detail
	}
	explanation := o.answers.ExplainFailure(ctx, question, fmt.Sprintf("%s: %s", kind, detail))
	o.saver.SaveFailure(ctx, memory.AppendQueryHistoryInput{
		DatasetID: datasetID,
		Question:  question,
		SQL:       candidateSQL,
		Outcome:   memory.OutcomeFailed,
		Attempts:  attempts,
		Answer:    explanation,
	})
	observability.IncrementRetryBudgetExceeded()
	observability.ObserveAskRun(string(StateFailed), attempts)
	logger.Warn("retry budget exceeded", "attempts", attempts, "last_failure", kind)

	outcome := RunOutcome{
		State:    StateFailed,
		Answer:   explanation,
		SQL:      candidateSQL,
		Attempts: attempts,
	}
	return outcome, &RetryBudgetExceededError{Attempts: attempts, LastKind: kind, LastDetail: detail}
}

// selectExamples is best effort: a memory-store outage degrades the prompt,
// it does not fail the run.
func (o *Orchestrator) selectExamples(ctx context.Context, datasetID, question string, logger *slog.Logger) []nl2sql.Example {
	records, err := o.store.ListTrainingRecords(ctx, datasetID, trainingReadLimit)
	if err != nil {
		logger.Warn("listing training records failed, generating without examples", "error", err)
		return nil
	}
	selected := o.examples.Select(question, records)
	examples := make([]nl2sql.Example, 0, len(selected))
	for _, record := range selected {
		examples = append(examples, nl2sql.Example{Question: record.Question, SQL: record.SQL})
	}
	return examples
}
