// Package sanitize enforces the read-only contract on generated SQL before it
// reaches the warehouse. Validation is token based: forbidden keywords are
// matched against lexed word tokens, so occurrences inside string literals,
// quoted identifiers and comments never trigger a rejection, while real
// statement keywords always do regardless of case or surrounding whitespace.
package sanitize

import "strings"

// Rejection reasons. ReasonSyntax covers statements the lexer cannot finish
// scanning; everything else lexed cleanly but violates the read-only policy.
const (
	ReasonSyntax             = "syntax_error"
	ReasonUnsafeKeyword      = "unsafe_sql"
	ReasonNotSelect          = "not_select"
	ReasonMultipleStatements = "multiple_statements"
)

// forbidden lists write and DDL keywords that must never appear as top-level
// tokens anywhere in the statement, not only in leading position.
var forbidden = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {}, "ALTER": {},
	"TRUNCATE": {}, "CREATE": {}, "GRANT": {}, "REVOKE": {}, "MERGE": {},
	"EXEC": {}, "EXECUTE": {}, "CALL": {},
}

// Result reports whether a statement passed validation. When Accepted is
// false, Reason holds one of the Reason constants and Detail a short
// human-readable explanation.
type Result struct {
	Accepted bool
	Reason   string
	Detail   string
}

// Validator checks candidate statements against the read-only policy. The
// zero value is ready to use.
type Validator struct{}

// Validate lexes the statement and applies, in order: the statement must lex
// cleanly and be non-empty, it must contain exactly one statement (a single
// trailing semicolon is tolerated), no forbidden keyword may appear as a
// token, and its first keyword must be SELECT or WITH.
func (Validator) Validate(statement string) Result {
	tokens, err := lex(statement)
	if err != nil {
		return Result{Reason: ReasonSyntax, Detail: err.Error()}
	}
	if len(tokens) == 0 {
		return Result{Reason: ReasonSyntax, Detail: "statement is empty"}
	}

	statements := splitStatements(tokens)
	if len(statements) == 0 {
		return Result{Reason: ReasonSyntax, Detail: "statement is empty"}
	}
	if len(statements) > 1 {
		return Result{
			Reason: ReasonMultipleStatements,
			Detail: "only a single statement is allowed",
		}
	}

	single := statements[0]
	for _, tok := range single {
		if tok.kind != tokenWord {
			continue
		}
		upper := strings.ToUpper(tok.text)
		if _, bad := forbidden[upper]; bad {
			return Result{
				Reason: ReasonUnsafeKeyword,
				Detail: "forbidden keyword " + upper,
			}
		}
	}

	first := firstKeyword(single)
	if first != "SELECT" && first != "WITH" {
		return Result{
			Reason: ReasonNotSelect,
			Detail: "statement must start with SELECT or WITH",
		}
	}
	return Result{Accepted: true}
}

// splitStatements groups tokens by semicolon separators, dropping empty
// groups so "SELECT 1;" counts as one statement.
func splitStatements(tokens []token) [][]token {
	groups := make([][]token, 0, 1)
	current := make([]token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.kind == tokenSemicolon {
			if len(current) > 0 {
				groups = append(groups, current)
				current = nil
			}
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// firstKeyword returns the upper-cased first word token, skipping leading
// parentheses so "(SELECT ...)" validates like a bare SELECT.
func firstKeyword(tokens []token) string {
	for _, tok := range tokens {
		if tok.kind == tokenSymbol && tok.text == "(" {
			continue
		}
		if tok.kind == tokenWord {
			return strings.ToUpper(tok.text)
		}
		return ""
	}
	return ""
}
