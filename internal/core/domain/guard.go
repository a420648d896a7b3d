package domain

import (
	"errors"
	"strings"
)

// ErrStatementRejected is the sentinel wrapped by services when the guard
// turns a statement away. Rejections are ordinary outcomes, not failures:
// the guard itself never returns an error.
var ErrStatementRejected = errors.New("statement rejected")

// ValidationResult is the guard's verdict on a single statement.
type ValidationResult struct {
	Allowed bool `json:"allowed"`
	// Reason is a human-readable explanation when Allowed is false.
	Reason string `json:"reason,omitempty"`
	// NormalizedStatement is the text to execute when Allowed is true:
	// leading comments stripped, the leading keyword uppercased, a trailing
	// semicolon removed. The payload is otherwise untouched.
	NormalizedStatement string `json:"normalized_statement,omitempty"`
}

// forbiddenKeywords are statement verbs that mutate data or schema, or
// escape the read-only surface. Matched as whole tokens only, so an
// identifier or string literal containing one of these is not a false
// positive. INTO is included because SELECT INTO creates a table in
// SQL Anywhere.
var forbiddenKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true,
	"DROP": true, "ALTER": true, "TRUNCATE": true, "CREATE": true,
	"GRANT": true, "REVOKE": true,
	"EXEC": true, "EXECUTE": true, "CALL": true,
	"MERGE": true, "LOAD": true, "UNLOAD": true, "INTO": true,
}

// fromListTerminators are keywords that end a FROM list, after which a bare
// identifier is no longer a table reference.
var fromListTerminators = map[string]bool{
	"WHERE": true, "GROUP": true, "HAVING": true, "ORDER": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true,
	"ON": true, "WINDOW": true, "FOR": true, "OPTION": true,
}

// QueryGuard decides whether a statement is a safe, authorized, read-only
// query. It is a pure function over its inputs: no database access, no
// mutable state, safe for concurrent use.
type QueryGuard struct {
	owners OwnerAllowList
}

func NewQueryGuard(owners OwnerAllowList) *QueryGuard {
	return &QueryGuard{owners: owners}
}

// Owners returns the allow-list the guard was built with.
func (g *QueryGuard) Owners() OwnerAllowList {
	return g.owners
}

func reject(reason string) ValidationResult {
	return ValidationResult{Allowed: false, Reason: reason}
}

// Validate inspects the statement and returns a verdict. It never panics
// and never returns an error: input that cannot be tokenized far enough to
// confirm safety is rejected with a descriptive reason.
func (g *QueryGuard) Validate(statement string) ValidationResult {
	trimmed := strings.TrimSpace(statement)
	if trimmed == "" {
		return reject("statement is empty")
	}

	toks, err := scanTokens(trimmed)
	if err != nil {
		return reject("statement cannot be parsed safely: " + err.Error())
	}

	// Leading comments are tolerated and stripped; anything after the
	// statement begins is treated as keyword obfuscation.
	i0 := 0
	for i0 < len(toks) && toks[i0].kind == tokComment {
		i0++
	}
	if i0 == len(toks) {
		return reject("statement is empty")
	}
	body := toks[i0:]
	for _, t := range body {
		if t.kind == tokComment {
			return reject("comment inside statement body (possible keyword obfuscation)")
		}
	}

	first := body[0]
	if first.kind != tokWord || !strings.EqualFold(first.text, "SELECT") {
		return reject("only SELECT statements are allowed (statement begins with \"" + first.text + "\")")
	}

	// A trailing semicolon is tolerated; a semicolon followed by anything
	// else means a second statement is being smuggled in.
	last := len(body)
	for i, t := range body {
		if t.kind == tokPunct && t.text == ";" {
			if i != len(body)-1 {
				return reject("multiple statements are not allowed")
			}
			last = i
		}
	}
	body = body[:last]
	if len(body) == 0 {
		return reject("statement is empty")
	}

	for _, t := range body[1:] {
		if t.kind == tokWord {
			if up := strings.ToUpper(t.text); forbiddenKeywords[up] {
				return reject("forbidden keyword " + up)
			}
		}
	}

	if res := g.checkTableOwners(body); !res.Allowed {
		return res
	}

	normalized := strings.ToUpper(first.text) + trimmed[first.end:body[len(body)-1].end]
	return ValidationResult{Allowed: true, NormalizedStatement: normalized}
}

// fromScope is the FROM-list tracking state for one parenthesis level.
type fromScope struct {
	inFromList bool
	fromDepth  int
}

// checkTableOwners walks the token stream and verifies that every table
// referenced by a FROM or JOIN clause is qualified with an authorized
// owner. Derived tables (FROM followed by a parenthesis) are not table
// references themselves, but the linear walk still visits their inner FROM
// and JOIN clauses. Each parenthesis opens a fresh scope, saved on a stack
// and restored on close, so an inner FROM cannot clobber the state of the
// clause that contains it: a comma-separated table after a derived table
// is still part of the outer FROM list and still gets checked.
func (g *QueryGuard) checkTableOwners(body []token) ValidationResult {
	depth := 0
	expectTable := false
	inFromList := false
	fromDepth := 0
	var scopes []fromScope

	i := 0
	for i < len(body) {
		t := body[i]
		switch t.kind {
		case tokPunct:
			switch t.text {
			case "(":
				scopes = append(scopes, fromScope{inFromList, fromDepth})
				expectTable = false // derived table or subquery
				inFromList = false
				depth++
			case ")":
				depth--
				if n := len(scopes); n > 0 {
					inFromList = scopes[n-1].inFromList
					fromDepth = scopes[n-1].fromDepth
					scopes = scopes[:n-1]
				} else {
					inFromList = false
				}
			case ",":
				if inFromList && depth == fromDepth {
					expectTable = true
				}
			}
			i++

		case tokWord, tokQuoted:
			if t.kind == tokWord {
				up := strings.ToUpper(t.text)
				if up == "FROM" {
					expectTable = true
					inFromList = true
					fromDepth = depth
					i++
					continue
				}
				if up == "JOIN" {
					expectTable = true
					i++
					continue
				}
				if inFromList && depth == fromDepth && fromListTerminators[up] {
					inFromList = false
					expectTable = false
					i++
					continue
				}
			}
			if expectTable {
				parts, next := qualifiedNameAt(body, i)
				if res := g.checkReference(parts); !res.Allowed {
					return res
				}
				expectTable = false
				i = next
				continue
			}
			i++

		default:
			i++
		}
	}

	return ValidationResult{Allowed: true}
}

// checkReference validates one dotted table reference against the
// allow-list. The owner is the part immediately before the table name, so
// three-part names (database.owner.table) are handled too.
func (g *QueryGuard) checkReference(parts []string) ValidationResult {
	if len(parts) == 1 {
		return reject("table \"" + parts[0] + "\" is not qualified with an owner; use owner." + parts[0] +
			" with one of the authorized owners: " + strings.Join(g.owners.Names(), ", "))
	}
	owner := parts[len(parts)-2]
	if !g.owners.Contains(owner) {
		return reject("owner \"" + owner + "\" is not authorized; authorized owners: " +
			strings.Join(g.owners.Names(), ", "))
	}
	return ValidationResult{Allowed: true}
}

// qualifiedNameAt collects a dotted identifier chain starting at body[i]
// and returns its parts plus the index of the first token past the chain.
func qualifiedNameAt(body []token, i int) ([]string, int) {
	parts := []string{body[i].text}
	j := i + 1
	for j+1 < len(body) &&
		body[j].kind == tokPunct && body[j].text == "." &&
		(body[j+1].kind == tokWord || body[j+1].kind == tokQuoted) {
		parts = append(parts, body[j+1].text)
		j += 2
	}
	return parts, j
}
