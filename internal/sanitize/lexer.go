package sanitize

import (
	"fmt"
	"unicode"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenQuotedIdent
	tokenString
	tokenNumber
	tokenSymbol
	tokenSemicolon
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits the statement into tokens, discarding comments. String literals
// (including dollar-quoted ones) and quoted identifiers come back as single
// tokens so keyword scanning never looks inside them. Errors are returned for
// unterminated strings, identifiers and block comments.
func lex(input string) ([]token, error) {
	runes := []rune(input)
	tokens := make([]token, 0, 32)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '-' && peek(runes, i+1) == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && peek(runes, i+1) == '*':
			end, err := skipBlockComment(runes, i)
			if err != nil {
				return nil, err
			}
			i = end
		case r == '\'':
			end, err := scanSingleQuoted(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, text: string(runes[i:end]), pos: i})
			i = end
		case r == '"':
			end, err := scanDoubleQuoted(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenQuotedIdent, text: string(runes[i:end]), pos: i})
			i = end
		case r == '$':
			if tag, ok := dollarQuoteTag(runes, i); ok {
				end, err := scanDollarQuoted(runes, i, tag)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, token{kind: tokenString, text: string(runes[i:end]), pos: i})
				i = end
			} else {
				tokens = append(tokens, token{kind: tokenSymbol, text: "$", pos: i})
				i++
			}
		case r == ';':
			tokens = append(tokens, token{kind: tokenSemicolon, text: ";", pos: i})
			i++
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenWord, text: string(runes[start:i]), pos: start})
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == 'e' || runes[i] == 'E') {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: string(runes[start:i]), pos: start})
		default:
			tokens = append(tokens, token{kind: tokenSymbol, text: string(r), pos: i})
			i++
		}
	}
	return tokens, nil
}

func peek(runes []rune, i int) rune {
	if i < 0 || i >= len(runes) {
		return 0
	}
	return runes[i]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// skipBlockComment handles nested /* */ pairs the way Postgres-family
// dialects do.
func skipBlockComment(runes []rune, start int) (int, error) {
	depth := 0
	i := start
	for i < len(runes) {
		if runes[i] == '/' && peek(runes, i+1) == '*' {
			depth++
			i += 2
			continue
		}
		if runes[i] == '*' && peek(runes, i+1) == '/' {
			depth--
			i += 2
			if depth == 0 {
				return i, nil
			}
			continue
		}
		i++
	}
	return 0, fmt.Errorf("unterminated block comment at offset %d", start)
}

// scanSingleQuoted consumes a standard SQL string literal where '' is the
// only escape. Backslash is an ordinary character.
func scanSingleQuoted(runes []rune, start int) (int, error) {
	i := start + 1
	for i < len(runes) {
		if runes[i] == '\'' {
			if peek(runes, i+1) == '\'' {
				i += 2
				continue
			}
			return i + 1, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated string literal at offset %d", start)
}

func scanDoubleQuoted(runes []rune, start int) (int, error) {
	i := start + 1
	for i < len(runes) {
		if runes[i] == '"' {
			if peek(runes, i+1) == '"' {
				i += 2
				continue
			}
			return i + 1, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated quoted identifier at offset %d", start)
}

// dollarQuoteTag reports whether a $tag$ opener starts at i and returns the
// full opener (for example "$$" or "$body$").
func dollarQuoteTag(runes []rune, i int) (string, bool) {
	j := i + 1
	for j < len(runes) && isWordRune(runes[j]) {
		j++
	}
	if j < len(runes) && runes[j] == '$' {
		return string(runes[i : j+1]), true
	}
	return "", false
}

// scanDollarQuoted consumes a $tag$ ... $tag$ literal. All indexes are rune
// positions; the close tag is matched rune by rune so multibyte input ahead
// of the literal cannot shift the search.
func scanDollarQuoted(runes []rune, start int, tag string) (int, error) {
	tagRunes := []rune(tag)
	for i := start + len(tagRunes); i+len(tagRunes) <= len(runes); i++ {
		if matchesAt(runes, i, tagRunes) {
			return i + len(tagRunes), nil
		}
	}
	return 0, fmt.Errorf("unterminated dollar-quoted string at offset %d", start)
}

func matchesAt(runes []rune, i int, want []rune) bool {
	for j, r := range want {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}
