package port

import "context"

// ExecResult is the raw outcome of one executed statement.
type ExecResult struct {
	Rows    []map[string]any `json:"rows"`
	Columns []string         `json:"columns"`
	// HasMore is true when the database had at least one row beyond the
	// applied limit.
	HasMore bool `json:"has_more"`
}

// QueryExecutor runs an already-validated statement against the database,
// fetching at most limit rows.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string, limit int) (*ExecResult, error)
}
