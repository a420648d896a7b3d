package port

import (
	"context"
	"errors"
)

// ErrObjectNotFound means the requested catalog object does not exist, or
// is owned by someone outside the allow-list. The two cases are reported
// identically so the catalog does not leak the existence of unauthorized
// objects.
var ErrObjectNotFound = errors.New("object not found or access denied")

// ServerInfo identifies the database the server is connected to.
type ServerInfo struct {
	ServerName   string `json:"server_name"`
	DatabaseName string `json:"database_name"`
}

// OwnerInfo is one authorized owner and how many tables it holds.
type OwnerInfo struct {
	Name       string `json:"name"`
	TableCount int    `json:"table_count"`
}

// TableInfo is a catalog row for a table or view.
type TableInfo struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Type     string `json:"type"` // BASE, VIEW, GBL TEMP, ...
	RowCount int64  `json:"row_count"`
	// Description comes from the policy data dictionary, if configured.
	Description string `json:"description,omitempty"`
}

// TableList is a bounded listing result.
type TableList struct {
	Tables  []TableInfo `json:"tables"`
	Count   int         `json:"count"`
	HasMore bool        `json:"has_more"`
}

// ColumnInfo describes one table column.
type ColumnInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Width        int    `json:"width,omitempty"`
	Scale        int    `json:"scale,omitempty"`
	Nullable     bool   `json:"nullable"`
	Default      string `json:"default,omitempty"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	Description  string `json:"description,omitempty"`
}

// ForeignKey describes a referential constraint on a table.
type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedOwner   string   `json:"referenced_owner"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
}

// IndexColumn is one column within an index, with its sort order.
type IndexColumn struct {
	Name  string `json:"name"`
	Order string `json:"order"` // ASC or DESC
}

// IndexInfo describes an index.
type IndexInfo struct {
	Name         string        `json:"name"`
	Table        string        `json:"table"`
	Owner        string        `json:"owner"`
	IsUnique     bool          `json:"is_unique"`
	IsPrimaryKey bool          `json:"is_primary_key"`
	Columns      []IndexColumn `json:"columns,omitempty"`
}

// IndexList is a bounded index listing result.
type IndexList struct {
	Indexes []IndexInfo `json:"indexes"`
	Count   int         `json:"count"`
	HasMore bool        `json:"has_more"`
}

// CheckConstraint is a CHECK constraint and its definition.
type CheckConstraint struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// TableDetail is the full structure of one table or view.
type TableDetail struct {
	Name             string            `json:"name"`
	Owner            string            `json:"owner"`
	Type             string            `json:"type"`
	RowCount         int64             `json:"row_count"`
	Description      string            `json:"description,omitempty"`
	Columns          []ColumnInfo      `json:"columns"`
	ForeignKeys      []ForeignKey      `json:"foreign_keys,omitempty"`
	Indexes          []IndexInfo       `json:"indexes,omitempty"`
	CheckConstraints []CheckConstraint `json:"check_constraints,omitempty"`
}

// ProcedureParam is one parameter of a stored procedure or function.
type ProcedureParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode string `json:"mode"` // IN, OUT, or INOUT
}

// ProcedureInfo describes a stored procedure or function.
type ProcedureInfo struct {
	Name       string           `json:"name"`
	Owner      string           `json:"owner"`
	Parameters []ProcedureParam `json:"parameters,omitempty"`
	Definition string           `json:"definition,omitempty"`
}

// ProcedureList is a bounded procedure listing result.
type ProcedureList struct {
	Procedures []ProcedureInfo `json:"procedures"`
	Count      int             `json:"count"`
	HasMore    bool            `json:"has_more"`
}

// DatabaseInfo is database-level metadata plus authorized object counts.
type DatabaseInfo struct {
	DatabaseName   string `json:"database_name"`
	ServerName     string `json:"server_name"`
	Version        string `json:"version"`
	Charset        string `json:"charset,omitempty"`
	Collation      string `json:"collation,omitempty"`
	PageSize       int    `json:"page_size,omitempty"`
	TableCount     int    `json:"table_count"`
	ViewCount      int    `json:"view_count"`
	ProcedureCount int    `json:"procedure_count"`
}

// TableFilter narrows a table or procedure listing. Owner and Search are
// mutually exclusive; the service enforces that before the adapter runs.
type TableFilter struct {
	Owner  string
	Search string
	Limit  int
}

// CatalogExplorer reads schema metadata, always restricted to objects
// owned by members of the allow-list.
type CatalogExplorer interface {
	Ping(ctx context.Context) (*ServerInfo, error)
	ListOwners(ctx context.Context) ([]OwnerInfo, error)
	ListTables(ctx context.Context, filter TableFilter) (*TableList, error)
	DescribeTable(ctx context.Context, owner, table string) (*TableDetail, error)
	ListProcedures(ctx context.Context, filter TableFilter) (*ProcedureList, error)
	DescribeProcedure(ctx context.Context, owner, name string) (*ProcedureInfo, error)
	ListIndexes(ctx context.Context, table string, limit int) (*IndexList, error)
	DescribeIndex(ctx context.Context, name string) (*IndexInfo, error)
	DatabaseInfo(ctx context.Context) (*DatabaseInfo, error)
}
