package policy

import (
	"context"

	"github.com/guillermoBallester/strait/internal/core/port"
)

// Explorer decorates a CatalogExplorer with policy-based context
// enrichment, merging dictionary descriptions into table listings and
// table details. All other calls pass through untouched.
type Explorer struct {
	inner  port.CatalogExplorer
	policy *Policy
}

// NewExplorer wraps an existing CatalogExplorer with dictionary merging.
func NewExplorer(inner port.CatalogExplorer, pol *Policy) *Explorer {
	return &Explorer{inner: inner, policy: pol}
}

func (p *Explorer) Ping(ctx context.Context) (*port.ServerInfo, error) {
	return p.inner.Ping(ctx)
}

func (p *Explorer) ListOwners(ctx context.Context) ([]port.OwnerInfo, error) {
	return p.inner.ListOwners(ctx)
}

func (p *Explorer) ListTables(ctx context.Context, filter port.TableFilter) (*port.TableList, error) {
	list, err := p.inner.ListTables(ctx, filter)
	if err != nil {
		return nil, err
	}
	MergeTableInfoList(list.Tables, p.policy.Context)
	return list, nil
}

func (p *Explorer) DescribeTable(ctx context.Context, owner, table string) (*port.TableDetail, error) {
	detail, err := p.inner.DescribeTable(ctx, owner, table)
	if err != nil {
		return nil, err
	}
	MergeTableDetail(detail, p.policy.Context)
	return detail, nil
}

func (p *Explorer) ListProcedures(ctx context.Context, filter port.TableFilter) (*port.ProcedureList, error) {
	return p.inner.ListProcedures(ctx, filter)
}

func (p *Explorer) DescribeProcedure(ctx context.Context, owner, name string) (*port.ProcedureInfo, error) {
	return p.inner.DescribeProcedure(ctx, owner, name)
}

func (p *Explorer) ListIndexes(ctx context.Context, table string, limit int) (*port.IndexList, error) {
	return p.inner.ListIndexes(ctx, table, limit)
}

func (p *Explorer) DescribeIndex(ctx context.Context, name string) (*port.IndexInfo, error) {
	return p.inner.DescribeIndex(ctx, name)
}

func (p *Explorer) DatabaseInfo(ctx context.Context) (*port.DatabaseInfo, error) {
	return p.inner.DatabaseInfo(ctx)
}
