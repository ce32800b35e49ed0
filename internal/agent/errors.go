package agent

import "fmt"

// SchemaResolutionError means the dataset's schema could not be loaded, so
// no attempt was made.
type SchemaResolutionError struct {
	DatasetID string
	Err       error
}

func (e *SchemaResolutionError) Error() string {
	return fmt.Sprintf("resolve schema for dataset %q: %v", e.DatasetID, e.Err)
}

func (e *SchemaResolutionError) Unwrap() error { return e.Err }

// GenerationError means the oracle could not produce candidate SQL at all,
// transient retries included. It is terminal for the run.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generate candidate SQL: %v", e.Err) }

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationError carries the sanitizer verdict for a rejected candidate.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("candidate SQL rejected (%s): %s", e.Reason, e.Detail)
}

// ExecutionError wraps a warehouse failure for a validated query.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("execute query: %v", e.Err) }

func (e *ExecutionError) Unwrap() error { return e.Err }

// RetryBudgetExceededError means every attempt failed and the run ended in
// the failed state. LastDetail is the diagnosis of the final attempt.
type RetryBudgetExceededError struct {
	Attempts   int
	LastKind   string
	LastDetail string
}

func (e *RetryBudgetExceededError) Error() string {
	return fmt.Sprintf("retry budget exceeded after %d attempts, last failure %s: %s",
		e.Attempts, e.LastKind, e.LastDetail)
}

// PersistenceError wraps a memory-store failure. Persistence is best effort
// for completed runs, so these are logged rather than returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }
