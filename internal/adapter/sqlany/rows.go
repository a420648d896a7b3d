package sqlany

import (
	"fmt"
	"time"

	"github.com/guillermoBallester/strait/internal/core/port"
	"github.com/jmoiron/sqlx"
)

// collectRows drains at most limit rows into maps keyed by column name.
// A limit of 0 or less means "no cap".
func collectRows(rows *sqlx.Rows, limit int) (*port.ExecResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading column names: %w", err)
	}

	res := &port.ExecResult{Columns: columns}
	for rows.Next() {
		if limit > 0 && len(res.Rows) == limit {
			res.HasMore = true
			break
		}
		row := make(map[string]any, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for k, v := range row {
			row[k] = normalizeValue(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return res, nil
}

// normalizeValue makes driver values JSON-friendly: the ODBC driver hands
// back []byte for character columns, which encoding/json would base64.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}
