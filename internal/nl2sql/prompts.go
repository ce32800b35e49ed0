package nl2sql

import (
	"fmt"
	"strings"
)

// generationSystemPrompt forbids write statements at the model level. The
// sanitizer enforces the same policy on whatever comes back, so a model that
// ignores the instruction still cannot reach the warehouse.
const generationSystemPrompt = `You are a data analyst expert in DuckDB SQL.
Your goal is to answer the user's question by generating a valid SQL query.

### IMPORTANT: Security Policy
You are ONLY allowed to generate SELECT queries for data analysis.
If the user asks you to DROP, DELETE, INSERT, UPDATE, ALTER, TRUNCATE, CREATE, or perform any data modification:
- Return exactly: "SECURITY_VIOLATION: Cannot generate queries that modify data"
- Do NOT generate any SQL query
- Do NOT try to be helpful by generating a SELECT query instead

### Constraints
1. Return ONLY the SQL query. No markdown, no explanations, no prefixes.
2. Use DuckDB SQL syntax (PostgreSQL-like).
3. Only reference the tables and columns listed in the schema.
4. When the user asks for "top N" or "best N" items, ALWAYS include LIMIT N.
5. For queries that could return many rows, add a reasonable LIMIT.
6. For "top N per group" questions, rank with window functions:
   ROW_NUMBER() OVER (PARTITION BY group_column ORDER BY metric DESC)
   then filter the rank in an outer query or CTE.`

const answerSystemPrompt = `You are a helpful assistant. Summarize the data result in natural language to answer the user's question. If the result is a table, format it nicely. If the result is empty, say so plainly. Do not invent data that is not in the result.`

const failureSystemPrompt = `You are a helpful assistant. The SQL query execution failed after multiple attempts. Explain to the user why their request could not be fulfilled based on the error below. Do not make up data. Just explain the failure clearly.`

func renderGenerationPrompt(in GenerateInput) string {
	var b strings.Builder
	b.WriteString(generationSystemPrompt)

	b.WriteString("\n\n### Database Schema\n")
	if strings.TrimSpace(in.SchemaContext) == "" {
		b.WriteString("(no tables available)\n")
	} else {
		b.WriteString(in.SchemaContext)
		b.WriteString("\n")
	}

	if len(in.Examples) > 0 {
		b.WriteString("\n### Previous Examples\n")
		for _, example := range in.Examples {
			fmt.Fprintf(&b, "Question: %s\nSQL: %s\n\n", example.Question, example.SQL)
		}
	}

	if in.Reflection != "" {
		fmt.Fprintf(&b, "\n### Previous Attempt Failed\nPrevious query: %s\nProblem: %s\nPlease fix the query. Pay attention to the problem description (e.g., column not found).\n",
			in.PreviousSQL, in.Reflection)
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", strings.TrimSpace(in.Question))
	return b.String()
}

func renderAnswerPrompt(question, sqlText, rendered string) string {
	var b strings.Builder
	b.WriteString(answerSystemPrompt)
	fmt.Fprintf(&b, "\n\nUser question: %s\n", question)
	fmt.Fprintf(&b, "SQL query used: %s\n", sqlText)
	fmt.Fprintf(&b, "Data result:\n%s\n", rendered)
	return b.String()
}

func renderFailurePrompt(question, detail string) string {
	var b strings.Builder
	b.WriteString(failureSystemPrompt)
	fmt.Fprintf(&b, "\n\nUser question: %s\n", question)
	fmt.Fprintf(&b, "System error: %s\n", detail)
	return b.String()
}
