package sanitize

import (
	"strings"
	"testing"
)

func TestValidateAcceptsReadOnlyStatements(t *testing.T) {
	cases := []struct {
		name      string
		statement string
	}{
		{name: "plain select", statement: "SELECT * FROM orders"},
		{name: "lowercase select", statement: "select id, status from orders where status = 'shipped'"},
		{name: "trailing semicolon", statement: "SELECT count(*) FROM orders;"},
		{name: "cte", statement: "WITH recent AS (SELECT * FROM orders WHERE created_at > '2023-01-01') SELECT count(*) FROM recent"},
		{name: "parenthesized select", statement: "(SELECT 1)"},
		{name: "keyword inside string literal", statement: "SELECT * FROM orders WHERE note = 'please do not DELETE this row'"},
		{name: "keyword inside escaped string", statement: "SELECT 'it''s a DROP TABLE demo' AS label"},
		{name: "keyword inside dollar quoted string", statement: "SELECT $$DELETE FROM users$$ AS payload"},
		{name: "multibyte literal before dollar quoted keyword", statement: "SELECT 'ääää', $$ drop nothing $$"},
		{name: "multibyte comment before tagged dollar quote", statement: "SELECT /* über */ $body$TRUNCATE t$body$ AS payload"},
		{name: "keyword inside line comment", statement: "SELECT 1 -- TRUNCATE everything\n"},
		{name: "keyword inside block comment", statement: "SELECT 1 /* INSERT INTO x */"},
		{name: "keyword inside nested block comment", statement: "SELECT 1 /* outer /* DROP */ still comment */"},
		{name: "keyword inside quoted identifier", statement: `SELECT "delete" FROM audit_log`},
		{name: "keyword as substring of identifier", statement: "SELECT updated_at, creates FROM orders"},
		{name: "window function", statement: "SELECT id, row_number() OVER (ORDER BY created_at) FROM orders"},
	}
	validator := Validator{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := validator.Validate(tc.statement)
			if !got.Accepted {
				t.Fatalf("Validate(%q) rejected: reason=%q detail=%q", tc.statement, got.Reason, got.Detail)
			}
		})
	}
}

func TestValidateRejectsUnsafeStatements(t *testing.T) {
	cases := []struct {
		name      string
		statement string
		reason    string
	}{
		{name: "drop table", statement: "DROP TABLE orders;", reason: ReasonUnsafeKeyword},
		{name: "delete", statement: "DELETE FROM orders WHERE id = 1", reason: ReasonUnsafeKeyword},
		{name: "insert", statement: "INSERT INTO orders VALUES (1)", reason: ReasonUnsafeKeyword},
		{name: "update", statement: "UPDATE orders SET status = 'x'", reason: ReasonUnsafeKeyword},
		{name: "embedded delete", statement: "SELECT 1; DELETE FROM orders", reason: ReasonMultipleStatements},
		{name: "two selects", statement: "SELECT 1; SELECT 2", reason: ReasonMultipleStatements},
		{name: "forbidden keyword after select", statement: "SELECT * FROM orders WHERE id IN (DELETE FROM orders RETURNING id)", reason: ReasonUnsafeKeyword},
		{name: "mixed case forbidden keyword", statement: "WITH d AS (SELECT 1) SELECT * FROM d UNION ALL SELECT 1 FROM x WHERE TrUnCaTe", reason: ReasonUnsafeKeyword},
		{name: "call procedure inside select body", statement: "SELECT call_count FROM stats WHERE EXEC", reason: ReasonUnsafeKeyword},
		{name: "explain", statement: "EXPLAIN SELECT 1", reason: ReasonNotSelect},
		{name: "empty", statement: "", reason: ReasonSyntax},
		{name: "whitespace only", statement: "   \n\t", reason: ReasonSyntax},
		{name: "comment only", statement: "-- nothing here", reason: ReasonSyntax},
		{name: "semicolons only", statement: ";;;", reason: ReasonSyntax},
		{name: "unterminated string", statement: "SELECT 'open", reason: ReasonSyntax},
		{name: "unterminated quoted identifier", statement: `SELECT "open FROM x`, reason: ReasonSyntax},
		{name: "unterminated block comment", statement: "SELECT 1 /* open", reason: ReasonSyntax},
		{name: "unterminated dollar quote", statement: "SELECT $tag$never closed", reason: ReasonSyntax},
	}
	validator := Validator{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := validator.Validate(tc.statement)
			if got.Accepted {
				t.Fatalf("Validate(%q) accepted, want reason %q", tc.statement, tc.reason)
			}
			if got.Reason != tc.reason {
				t.Fatalf("Validate(%q) reason = %q, want %q (detail %q)", tc.statement, got.Reason, tc.reason, got.Detail)
			}
		})
	}
}

func TestValidateDoesNotCountStringContentAsStatements(t *testing.T) {
	statement := "SELECT 'a; b; c' AS parts FROM orders"
	got := Validator{}.Validate(statement)
	if !got.Accepted {
		t.Fatalf("Validate(%q) rejected: %q %q", statement, got.Reason, got.Detail)
	}
}

func TestValidateDetailNamesKeyword(t *testing.T) {
	got := Validator{}.Validate("SELECT * FROM x WHERE merge")
	if got.Accepted {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(got.Detail, "MERGE") {
		t.Fatalf("Detail = %q, want mention of MERGE", got.Detail)
	}
}

func TestLexTokenPositions(t *testing.T) {
	tokens, err := lex("SELECT a, 'b' FROM t")
	if err != nil {
		t.Fatalf("lex() error = %v", err)
	}
	kinds := []tokenKind{tokenWord, tokenWord, tokenSymbol, tokenString, tokenWord, tokenWord}
	if len(tokens) != len(kinds) {
		t.Fatalf("len(tokens) = %d, want %d", len(tokens), len(kinds))
	}
	for i, want := range kinds {
		if tokens[i].kind != want {
			t.Fatalf("tokens[%d].kind = %d, want %d (%q)", i, tokens[i].kind, want, tokens[i].text)
		}
	}
	if tokens[3].text != "'b'" {
		t.Fatalf("string token = %q", tokens[3].text)
	}
}
