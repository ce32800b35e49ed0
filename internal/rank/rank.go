// Package rank provides the relevance scoring policy shared by schema and
// few-shot example selection. Scoring must be deterministic: selectors break
// ties on stable attributes, so equal inputs have to yield equal scores.
package rank

import (
	"strings"
	"unicode"
)

// Scorer rates how relevant a candidate text is to a question. Higher is
// more relevant; 0 means no overlap. Implementations must be pure functions
// of their inputs.
type Scorer interface {
	Score(question, candidate string) float64
}

// stopwords are question words that carry no signal about tables or past
// queries. The list is intentionally small; over-filtering hurts short
// questions more than under-filtering hurts long ones.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "by": {}, "did": {}, "do": {},
	"for": {}, "from": {}, "how": {}, "in": {}, "is": {}, "it": {}, "many": {},
	"me": {}, "much": {}, "of": {}, "on": {}, "or": {}, "show": {}, "the": {},
	"to": {}, "was": {}, "were": {}, "what": {}, "where": {}, "which": {},
	"who": {}, "with": {},
}

// Tokenize lower-cases the text and splits it on any non-alphanumeric rune,
// dropping stopwords and single-character fragments.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if _, skip := stopwords[field]; skip {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// LexicalScorer scores by token overlap between question and candidate,
// normalized by candidate token count so short precise candidates beat long
// vague ones.
type LexicalScorer struct{}

func (LexicalScorer) Score(question, candidate string) float64 {
	questionTokens := Tokenize(question)
	candidateTokens := Tokenize(candidate)
	if len(questionTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	questionSet := make(map[string]struct{}, len(questionTokens))
	for _, token := range questionTokens {
		questionSet[token] = struct{}{}
	}

	matched := 0
	seen := make(map[string]struct{}, len(candidateTokens))
	for _, token := range candidateTokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := questionSet[token]; ok {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return float64(matched) + float64(matched)/float64(len(seen))
}
