package sqlany

import (
	"context"
	"fmt"
	"time"

	"github.com/guillermoBallester/strait/internal/core/port"
	"github.com/jmoiron/sqlx"
)

// Executor runs validated statements with a per-query timeout and a row
// fetch cap. It trusts its caller: every statement must already have
// passed the guard.
type Executor struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewExecutor(db *sqlx.DB, queryTimeout time.Duration) *Executor {
	return &Executor{db: db, queryTimeout: queryTimeout}
}

// Execute runs the statement and fetches at most limit rows. One extra row
// is read to detect truncation, matching what the has_more flag promises.
func (e *Executor) Execute(ctx context.Context, sql string, limit int) (*port.ExecResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	rows, err := e.db.QueryxContext(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	return collectRows(rows, limit)
}
