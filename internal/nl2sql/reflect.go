package nl2sql

import (
	"strings"

	"github.com/datapilot/datapilot/internal/sanitize"
)

// FailureKind classifies why an attempt failed, driving both the repair
// prompt and run metrics.
type FailureKind string

const (
	FailureUnsafeSQL   FailureKind = "unsafe_sql"
	FailureSyntax      FailureKind = "syntax_error"
	FailureWarehouse   FailureKind = "warehouse_error"
	FailureEmptyResult FailureKind = "empty_result"
)

const maxReflectionDetail = 300

// Reflection is the deterministic diagnosis of a failed attempt. Detail is
// the first line of the underlying message, bounded so a pathological
// warehouse error cannot blow up the repair prompt.
type Reflection struct {
	Kind   FailureKind
	Detail string
}

type Reflector struct{}

func (Reflector) FromValidation(result sanitize.Result) Reflection {
	kind := FailureUnsafeSQL
	if result.Reason == sanitize.ReasonSyntax {
		kind = FailureSyntax
	}
	return Reflection{Kind: kind, Detail: boundDetail(result.Detail)}
}

func (Reflector) FromExecution(err error) Reflection {
	detail := "query execution failed"
	if err != nil {
		detail = err.Error()
	}
	return Reflection{Kind: FailureWarehouse, Detail: boundDetail(detail)}
}

func (Reflector) FromEmptyResult() Reflection {
	return Reflection{
		Kind:   FailureEmptyResult,
		Detail: "the query executed successfully but returned no rows; reconsider filters, joins and column choices",
	}
}

// Instruction renders the reflection for the repair prompt.
func (r Reflection) Instruction() string {
	return string(r.Kind) + ": " + r.Detail
}

func boundDetail(detail string) string {
	detail = strings.TrimSpace(detail)
	if idx := strings.IndexByte(detail, '\n'); idx >= 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	if len(detail) > maxReflectionDetail {
		detail = detail[:maxReflectionDetail]
	}
	return detail
}
