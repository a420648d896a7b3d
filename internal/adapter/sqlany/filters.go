package sqlany

import (
	"fmt"
	"strings"

	"github.com/guillermoBallester/strait/internal/core/port"
	"github.com/jmoiron/sqlx"
)

// ownerKeys returns the allow-list in the lowercase form the catalog
// predicates compare against.
func (e *Explorer) ownerKeys() []string {
	names := e.owners.Names()
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = strings.ToLower(n)
	}
	return keys
}

// expandIn runs sqlx.In over a query containing IN (?) placeholders. The
// ODBC driver already uses ?-style bindvars, so no rebind pass is needed.
func expandIn(query string, args ...any) (string, []any, error) {
	q, bound, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expanding IN clause: %w", err)
	}
	return q, bound, nil
}

// listTablesQuery assembles the list_tables SQL and bind arguments for a
// resolved filter. The allow-list predicate is always present; owner and
// search add at most one more.
func (e *Explorer) listTablesQuery(filter port.TableFilter) (string, []any, error) {
	return e.listingQuery(queryListTables, condTableOwner, condTableSearch, filter)
}

// listProceduresQuery is the procedure counterpart of listTablesQuery.
func (e *Explorer) listProceduresQuery(filter port.TableFilter) (string, []any, error) {
	return e.listingQuery(queryListProcedures, condProcOwner, condProcSearch, filter)
}

func (e *Explorer) listingQuery(base, condOwner, condSearch string, filter port.TableFilter) (string, []any, error) {
	cond := ""
	args := []any{e.ownerKeys()}
	switch {
	case filter.Owner != "":
		cond = condOwner
		args = append(args, strings.ToLower(filter.Owner))
	case filter.Search != "":
		cond = condSearch
		args = append(args, likePattern(filter.Search))
	}
	return expandInf(base, cond, args...)
}

// expandInf formats the optional predicate into the base query, then
// expands the IN list.
func expandInf(base, cond string, args ...any) (string, []any, error) {
	return expandIn(fmt.Sprintf(base, cond), args...)
}

// likePattern builds a case-insensitive substring LIKE pattern.
func likePattern(search string) string {
	return "%" + strings.ToLower(search) + "%"
}
