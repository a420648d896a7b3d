package sqlany

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/guillermoBallester/strait/internal/core/port"
	"github.com/jmoiron/sqlx"
)

// tableMeta carries the catalog identifiers the per-table fetchers key on.
// SYSTAB rows are addressed by table_id, except check constraints which
// reference object_id.
type tableMeta struct {
	TableID  int64
	ObjectID int64
	Name     string
	Owner    string
	Type     string
	RowCount int64
}

// indexRef holds the identifiers needed to resolve an index's column list
// after the listing row has been scanned.
type indexRef struct {
	IndexID int64
	TableID int64
}

func (e *Explorer) fetchTableMeta(ctx context.Context, owner, table string) (*tableMeta, error) {
	cond := ""
	args := []any{table, e.ownerKeys()}
	if owner != "" {
		cond = condTableOwner
		args = append(args, strings.ToLower(owner))
	}
	query, bound, err := expandInf(queryTableMeta, cond, args...)
	if err != nil {
		return nil, err
	}

	var meta tableMeta
	var count sql.NullInt64
	err = e.db.QueryRowxContext(ctx, query, bound...).Scan(
		&meta.TableID, &meta.ObjectID, &meta.Name, &meta.Owner, &meta.Type, &count,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %q: %w", table, port.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving table: %w", err)
	}
	meta.RowCount = count.Int64
	return &meta, nil
}

func (e *Explorer) fetchColumns(ctx context.Context, tableID int64) ([]port.ColumnInfo, error) {
	rows, err := e.db.QueryxContext(ctx, queryColumns, tableID)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	defer rows.Close()

	var cols []port.ColumnInfo
	for rows.Next() {
		var c port.ColumnInfo
		var width, scale sql.NullInt64
		var nulls, dflt sql.NullString
		if err := rows.Scan(&c.Name, &c.Type, &width, &scale, &nulls, &dflt); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		c.Width = int(width.Int64)
		c.Scale = int(scale.Int64)
		c.Nullable = nulls.String == "Y"
		c.Default = dflt.String
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// markPrimaryKeys flips IsPrimaryKey on the columns that belong to the
// table's PK index (index_category 1).
func (e *Explorer) markPrimaryKeys(ctx context.Context, tableID int64, cols []port.ColumnInfo) error {
	rows, err := e.db.QueryxContext(ctx, queryPrimaryKeyColumns, tableID)
	if err != nil {
		return fmt.Errorf("listing primary key columns: %w", err)
	}
	defer rows.Close()

	pk := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning primary key row: %w", err)
		}
		pk[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range cols {
		if pk[cols[i].Name] {
			cols[i].IsPrimaryKey = true
		}
	}
	return nil
}

func (e *Explorer) fetchForeignKeys(ctx context.Context, tableID int64) ([]port.ForeignKey, error) {
	rows, err := e.db.QueryxContext(ctx, queryForeignKeys, tableID)
	if err != nil {
		return nil, fmt.Errorf("listing foreign keys: %w", err)
	}
	defer rows.Close()

	// Composite keys come back as one row per column pair, ordered by
	// constraint name then sequence. Fold them back together.
	var fks []port.ForeignKey
	byName := map[string]int{}
	for rows.Next() {
		var name, refOwner, refTable, col, refCol string
		if err := rows.Scan(&name, &refOwner, &refTable, &col, &refCol); err != nil {
			return nil, fmt.Errorf("scanning foreign key row: %w", err)
		}
		i, ok := byName[name]
		if !ok {
			fks = append(fks, port.ForeignKey{
				Name:            name,
				ReferencedOwner: refOwner,
				ReferencedTable: refTable,
			})
			i = len(fks) - 1
			byName[name] = i
		}
		fks[i].Columns = append(fks[i].Columns, col)
		fks[i].ReferencedColumns = append(fks[i].ReferencedColumns, refCol)
	}
	return fks, rows.Err()
}

func (e *Explorer) fetchTableIndexes(ctx context.Context, meta *tableMeta) ([]port.IndexInfo, error) {
	rows, err := e.db.QueryxContext(ctx, queryTableIndexes, meta.TableID)
	if err != nil {
		return nil, fmt.Errorf("listing table indexes: %w", err)
	}

	var idxs []port.IndexInfo
	var refs []indexRef
	for rows.Next() {
		var indexID int64
		var unique, category int
		var idx port.IndexInfo
		if err := rows.Scan(&indexID, &idx.Name, &unique, &category); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		idx.Table = meta.Name
		idx.Owner = meta.Owner
		idx.IsUnique = uniqueFlag(unique)
		idx.IsPrimaryKey = category == 1
		idxs = append(idxs, idx)
		refs = append(refs, indexRef{IndexID: indexID, TableID: meta.TableID})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range idxs {
		idxs[i].Columns, err = e.fetchIndexColumns(ctx, refs[i].TableID, refs[i].IndexID)
		if err != nil {
			return nil, err
		}
	}
	return idxs, nil
}

func (e *Explorer) fetchIndexColumns(ctx context.Context, tableID, indexID int64) ([]port.IndexColumn, error) {
	rows, err := e.db.QueryxContext(ctx, queryIndexColumns, tableID, indexID)
	if err != nil {
		return nil, fmt.Errorf("listing index columns: %w", err)
	}
	defer rows.Close()

	var cols []port.IndexColumn
	for rows.Next() {
		var c port.IndexColumn
		var order sql.NullString
		if err := rows.Scan(&c.Name, &order); err != nil {
			return nil, fmt.Errorf("scanning index column row: %w", err)
		}
		c.Order = "ASC"
		if order.String == "D" {
			c.Order = "DESC"
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (e *Explorer) fetchCheckConstraints(ctx context.Context, objectID int64) ([]port.CheckConstraint, error) {
	rows, err := e.db.QueryxContext(ctx, queryCheckConstraints, objectID)
	if err != nil {
		return nil, fmt.Errorf("listing check constraints: %w", err)
	}
	defer rows.Close()

	var checks []port.CheckConstraint
	for rows.Next() {
		var c port.CheckConstraint
		var defn sql.NullString
		if err := rows.Scan(&c.Name, &defn); err != nil {
			return nil, fmt.Errorf("scanning check constraint row: %w", err)
		}
		c.Definition = defn.String
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

func (e *Explorer) fetchProcedureParams(ctx context.Context, procID int64) ([]port.ProcedureParam, error) {
	rows, err := e.db.QueryxContext(ctx, queryProcedureParams, procID)
	if err != nil {
		return nil, fmt.Errorf("listing procedure parameters: %w", err)
	}
	defer rows.Close()

	var params []port.ProcedureParam
	for rows.Next() {
		var p port.ProcedureParam
		var modeIn, modeOut sql.NullString
		if err := rows.Scan(&p.Name, &p.Type, &modeIn, &modeOut); err != nil {
			return nil, fmt.Errorf("scanning parameter row: %w", err)
		}
		p.Mode = paramMode(modeIn.String == "Y", modeOut.String == "Y")
		params = append(params, p)
	}
	return params, rows.Err()
}

func paramMode(in, out bool) string {
	switch {
	case in && out:
		return "INOUT"
	case out:
		return "OUT"
	default:
		return "IN"
	}
}

// uniqueFlag interprets SYSIDX."unique": 1 and 2 are unique indexes and
// constraints, 5 is a primary key.
func uniqueFlag(u int) bool {
	return u == 1 || u == 2 || u == 5
}

func scanIndexRow(rows *sqlx.Rows, ref *indexRef) (port.IndexInfo, error) {
	var idx port.IndexInfo
	var unique, category int
	err := rows.Scan(&ref.IndexID, &ref.TableID, &idx.Name, &idx.Table, &idx.Owner, &unique, &category)
	if err != nil {
		return idx, fmt.Errorf("scanning index row: %w", err)
	}
	idx.IsUnique = uniqueFlag(unique)
	idx.IsPrimaryKey = category == 1
	return idx, nil
}
