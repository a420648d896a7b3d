package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidBuilderInput is the sentinel for query-builder validation
// failures; the wrapped message names the offending parameter.
var ErrInvalidBuilderInput = errors.New("invalid query builder input")

var (
	identPattern   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	orderByPattern = regexp.MustCompile(`(?i)^[a-zA-Z_][a-zA-Z0-9_]*(\s+(ASC|DESC))?(\s*,\s*[a-zA-Z_][a-zA-Z0-9_]*(\s+(ASC|DESC))?)*$`)
	wherePattern   = regexp.MustCompile(`;|--|/\*|\*/`)
)

// BuilderInput is the raw input to BuildQuery. Each field is checked by an
// explicit predicate that produces its own rejection reason; there is no
// declarative validation layer.
type BuilderInput struct {
	Table   string // must be owner.Table
	Columns string // comma-separated names, or "*"
	Where   string // optional
	OrderBy string // optional
	Limit   int    // rows to fetch; already resolved by the caller
}

// BuildQuery assembles a SELECT TOP statement from validated parts. The
// result still goes through the QueryGuard before execution; this function
// only guarantees the parts cannot change the statement's shape.
func BuildQuery(in BuilderInput) (string, error) {
	if err := validateTableName(in.Table); err != nil {
		return "", err
	}
	if err := validateColumns(in.Columns); err != nil {
		return "", err
	}
	if err := validateWhere(in.Where); err != nil {
		return "", err
	}
	if err := validateOrderBy(in.OrderBy); err != nil {
		return "", err
	}
	if in.Limit < 1 {
		return "", fmt.Errorf("%w: limit: %v", ErrInvalidBuilderInput, ErrInvalidRowLimit)
	}

	columns := in.Columns
	if columns == "" {
		columns = "*"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT TOP %d %s FROM %s", in.Limit, columns, in.Table)
	if in.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(in.Where)
	}
	if in.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(in.OrderBy)
	}
	return sb.String(), nil
}

func validateTableName(table string) error {
	parts := strings.Split(table, ".")
	if len(parts) != 2 {
		return fmt.Errorf("%w: table_name %q must include an owner prefix, e.g. monitor.Part", ErrInvalidBuilderInput, table)
	}
	for _, p := range parts {
		if !identPattern.MatchString(p) {
			return fmt.Errorf("%w: table_name %q contains an invalid identifier %q", ErrInvalidBuilderInput, table, p)
		}
	}
	return nil
}

func validateColumns(columns string) error {
	if columns == "" || columns == "*" {
		return nil
	}
	for _, col := range strings.Split(columns, ",") {
		col = strings.TrimSpace(col)
		if !identPattern.MatchString(col) {
			return fmt.Errorf("%w: invalid column name %q", ErrInvalidBuilderInput, col)
		}
	}
	return nil
}

func validateWhere(where string) error {
	if where == "" {
		return nil
	}
	if wherePattern.MatchString(where) {
		return fmt.Errorf("%w: where clause contains a comment or statement separator", ErrInvalidBuilderInput)
	}
	return nil
}

func validateOrderBy(orderBy string) error {
	if orderBy == "" {
		return nil
	}
	if !orderByPattern.MatchString(orderBy) {
		return fmt.Errorf("%w: invalid ORDER BY clause %q", ErrInvalidBuilderInput, orderBy)
	}
	return nil
}
