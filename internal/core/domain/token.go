package domain

import (
	"fmt"
	"strings"
)

// tokenKind classifies the superficial token classes the guard needs.
// This is deliberately not a SQL grammar: the guard only has to assert the
// absence of forbidden constructs and the presence of qualified owners.
type tokenKind int

const (
	tokWord    tokenKind = iota // bare identifier, keyword, or number
	tokQuoted                   // "ident" or [ident]; text holds the unquoted content
	tokString                   // 'literal'
	tokComment                  // -- ..., // ..., or /* ... */
	tokPunct                    // single punctuation character
)

type token struct {
	kind  tokenKind
	text  string
	start int // byte offset into the scanned statement
	end   int // byte offset one past the token
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b == '#' || b == '@' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		b >= 0x80 // multi-byte identifiers pass through untouched
}

// scanTokens splits sql into superficial tokens, honoring single-quoted
// strings, double-quoted and bracketed identifiers, and both comment
// styles. Anything that cannot be terminated (open quote, open bracket,
// open block comment) is an error: input that cannot be scanned far enough
// to confirm safety must be rejected, not guessed at.
func scanTokens(sql string) ([]token, error) {
	var toks []token
	i := 0
	n := len(sql)

	for i < n {
		c := sql[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++

		case c == '-' && i+1 < n && sql[i+1] == '-',
			c == '/' && i+1 < n && sql[i+1] == '/':
			start := i
			for i < n && sql[i] != '\n' {
				i++
			}
			toks = append(toks, token{kind: tokComment, text: sql[start:i], start: start, end: i})

		case c == '/' && i+1 < n && sql[i+1] == '*':
			start := i
			close := strings.Index(sql[i+2:], "*/")
			if close < 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", start)
			}
			i += 2 + close + 2
			toks = append(toks, token{kind: tokComment, text: sql[start:i], start: start, end: i})

		case c == '\'':
			start := i
			text, next, err := scanDelimited(sql, i, '\'')
			if err != nil {
				return nil, err
			}
			i = next
			toks = append(toks, token{kind: tokString, text: text, start: start, end: i})

		case c == '"':
			start := i
			text, next, err := scanDelimited(sql, i, '"')
			if err != nil {
				return nil, err
			}
			i = next
			toks = append(toks, token{kind: tokQuoted, text: text, start: start, end: i})

		case c == '[':
			start := i
			text, next, err := scanBracketed(sql, i)
			if err != nil {
				return nil, err
			}
			i = next
			toks = append(toks, token{kind: tokQuoted, text: text, start: start, end: i})

		case isWordByte(c):
			start := i
			for i < n && isWordByte(sql[i]) {
				i++
			}
			toks = append(toks, token{kind: tokWord, text: sql[start:i], start: start, end: i})

		default:
			toks = append(toks, token{kind: tokPunct, text: sql[i : i+1], start: i, end: i + 1})
			i++
		}
	}

	return toks, nil
}

// scanDelimited scans a quote-delimited region starting at sql[start],
// where a doubled delimiter is an escape. Returns the content without the
// delimiters and the offset past the closing quote.
func scanDelimited(sql string, start int, delim byte) (string, int, error) {
	var sb strings.Builder
	i := start + 1
	n := len(sql)
	for i < n {
		if sql[i] == delim {
			if i+1 < n && sql[i+1] == delim {
				sb.WriteByte(delim)
				i += 2
				continue
			}
			return sb.String(), i + 1, nil
		}
		sb.WriteByte(sql[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated %c-quoted region at offset %d", delim, start)
}

// scanBracketed scans a [bracketed] identifier; ]] is an escaped bracket.
func scanBracketed(sql string, start int) (string, int, error) {
	var sb strings.Builder
	i := start + 1
	n := len(sql)
	for i < n {
		if sql[i] == ']' {
			if i+1 < n && sql[i+1] == ']' {
				sb.WriteByte(']')
				i += 2
				continue
			}
			return sb.String(), i + 1, nil
		}
		sb.WriteByte(sql[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated bracketed identifier at offset %d", start)
}
