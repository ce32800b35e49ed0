// Package oracle wraps the external text-completion service used for query
// generation, failure summaries and answer synthesis. The service is a black
// box behind the Completer contract; transient network failures are retried
// here with backoff, independent of the agent's self-correction attempt
// budget.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// ErrContentPolicy marks completions refused by the provider's content
// policy. These are never retried.
var ErrContentPolicy = errors.New("oracle: completion blocked by content policy")

type Completer interface {
	Complete(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// TransientError wraps failures that the client already retried and gave up
// on: network errors, HTTP 429 and 5xx responses.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("oracle unreachable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
