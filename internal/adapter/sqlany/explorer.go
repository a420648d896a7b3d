package sqlany

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/guillermoBallester/strait/internal/core/domain"
	"github.com/guillermoBallester/strait/internal/core/port"
	"github.com/jmoiron/sqlx"
)

// Explorer reads the SQL Anywhere catalog, restricted to objects owned by
// allow-listed owners. Unauthorized and missing objects are reported
// identically as port.ErrObjectNotFound.
type Explorer struct {
	db     *sqlx.DB
	owners domain.OwnerAllowList
}

func NewExplorer(db *sqlx.DB, owners domain.OwnerAllowList) *Explorer {
	return &Explorer{db: db, owners: owners}
}

func (e *Explorer) Ping(ctx context.Context) (*port.ServerInfo, error) {
	var info port.ServerInfo
	if err := e.db.QueryRowxContext(ctx, queryPing).Scan(&info.ServerName, &info.DatabaseName); err != nil {
		return nil, fmt.Errorf("pinging server: %w", err)
	}
	return &info, nil
}

func (e *Explorer) ListOwners(ctx context.Context) ([]port.OwnerInfo, error) {
	query, args, err := expandIn(queryListOwners, e.ownerKeys())
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	defer rows.Close()

	var owners []port.OwnerInfo
	for rows.Next() {
		var o port.OwnerInfo
		if err := rows.Scan(&o.Name, &o.TableCount); err != nil {
			return nil, fmt.Errorf("scanning owner row: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func (e *Explorer) ListTables(ctx context.Context, filter port.TableFilter) (*port.TableList, error) {
	query, args, err := e.listTablesQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	list := &port.TableList{}
	for rows.Next() {
		if len(list.Tables) == filter.Limit {
			list.HasMore = true
			break
		}
		var t port.TableInfo
		var count sql.NullInt64
		if err := rows.Scan(&t.Name, &t.Owner, &t.Type, &count); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		t.RowCount = count.Int64
		list.Tables = append(list.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	list.Count = len(list.Tables)
	return list, nil
}

func (e *Explorer) DescribeTable(ctx context.Context, owner, table string) (*port.TableDetail, error) {
	meta, err := e.fetchTableMeta(ctx, owner, table)
	if err != nil {
		return nil, err
	}

	detail := &port.TableDetail{
		Name:     meta.Name,
		Owner:    meta.Owner,
		Type:     meta.Type,
		RowCount: meta.RowCount,
	}

	detail.Columns, err = e.fetchColumns(ctx, meta.TableID)
	if err != nil {
		return nil, err
	}
	if err := e.markPrimaryKeys(ctx, meta.TableID, detail.Columns); err != nil {
		return nil, err
	}
	detail.ForeignKeys, err = e.fetchForeignKeys(ctx, meta.TableID)
	if err != nil {
		return nil, err
	}
	detail.Indexes, err = e.fetchTableIndexes(ctx, meta)
	if err != nil {
		return nil, err
	}
	detail.CheckConstraints, err = e.fetchCheckConstraints(ctx, meta.ObjectID)
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func (e *Explorer) ListProcedures(ctx context.Context, filter port.TableFilter) (*port.ProcedureList, error) {
	query, args, err := e.listProceduresQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing procedures: %w", err)
	}
	defer rows.Close()

	list := &port.ProcedureList{}
	for rows.Next() {
		if len(list.Procedures) == filter.Limit {
			list.HasMore = true
			break
		}
		var p port.ProcedureInfo
		if err := rows.Scan(&p.Name, &p.Owner); err != nil {
			return nil, fmt.Errorf("scanning procedure row: %w", err)
		}
		list.Procedures = append(list.Procedures, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	list.Count = len(list.Procedures)
	return list, nil
}

func (e *Explorer) DescribeProcedure(ctx context.Context, owner, name string) (*port.ProcedureInfo, error) {
	cond := ""
	args := []any{name, e.ownerKeys()}
	if owner != "" {
		cond = condProcOwner
		args = append(args, strings.ToLower(owner))
	}
	query, bound, err := expandInf(queryProcedureMeta, cond, args...)
	if err != nil {
		return nil, err
	}

	var procID int64
	var info port.ProcedureInfo
	var defn sql.NullString
	err = e.db.QueryRowxContext(ctx, query, bound...).Scan(&procID, &info.Name, &info.Owner, &defn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("procedure %q: %w", name, port.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("describing procedure: %w", err)
	}
	info.Definition = defn.String

	info.Parameters, err = e.fetchProcedureParams(ctx, procID)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (e *Explorer) ListIndexes(ctx context.Context, table string, limit int) (*port.IndexList, error) {
	cond := ""
	args := []any{e.ownerKeys()}
	if table != "" {
		cond = condIndexTable
		args = append(args, strings.ToLower(table))
	}
	query, bound, err := expandInf(queryListIndexes, cond, args...)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryxContext(ctx, query, bound...)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	defer rows.Close()

	list := &port.IndexList{}
	for rows.Next() {
		if len(list.Indexes) == limit {
			list.HasMore = true
			break
		}
		var ref indexRef
		idx, err := scanIndexRow(rows, &ref)
		if err != nil {
			return nil, err
		}
		list.Indexes = append(list.Indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	list.Count = len(list.Indexes)
	return list, nil
}

func (e *Explorer) DescribeIndex(ctx context.Context, name string) (*port.IndexInfo, error) {
	query, bound, err := expandInf(queryListIndexes, condIndexName, e.ownerKeys(), name)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryxContext(ctx, query, bound...)
	if err != nil {
		return nil, fmt.Errorf("describing index: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("index %q: %w", name, port.ErrObjectNotFound)
	}
	var ref indexRef
	idx, err := scanIndexRow(rows, &ref)
	if err != nil {
		return nil, err
	}
	rows.Close()

	idx.Columns, err = e.fetchIndexColumns(ctx, ref.TableID, ref.IndexID)
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

func (e *Explorer) DatabaseInfo(ctx context.Context) (*port.DatabaseInfo, error) {
	var info port.DatabaseInfo
	var charset, collation sql.NullString
	var pageSize sql.NullInt64
	err := e.db.QueryRowxContext(ctx, queryDatabaseProperties).Scan(
		&info.DatabaseName, &info.ServerName, &info.Version,
		&charset, &collation, &pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("reading database properties: %w", err)
	}
	info.Charset = charset.String
	info.Collation = collation.String
	info.PageSize = int(pageSize.Int64)

	query, args, err := expandIn(queryObjectCounts, e.ownerKeys())
	if err != nil {
		return nil, err
	}
	var tables, views sql.NullInt64
	if err := e.db.QueryRowxContext(ctx, query, args...).Scan(&tables, &views); err != nil {
		return nil, fmt.Errorf("counting tables: %w", err)
	}
	info.TableCount = int(tables.Int64)
	info.ViewCount = int(views.Int64)

	query, args, err = expandIn(queryProcedureCount, e.ownerKeys())
	if err != nil {
		return nil, err
	}
	if err := e.db.QueryRowxContext(ctx, query, args...).Scan(&info.ProcedureCount); err != nil {
		return nil, fmt.Errorf("counting procedures: %w", err)
	}

	return &info, nil
}
