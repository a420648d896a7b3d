package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/guillermoBallester/strait/internal/core/domain"
	"github.com/guillermoBallester/strait/internal/core/port"
)

// ExplorerService fronts the catalog explorer and enforces the listing
// input rules (mutually exclusive filters, clamped limits) as explicit
// checks before the adapter runs any SQL.
type ExplorerService struct {
	explorer     port.CatalogExplorer
	owners       domain.OwnerAllowList
	defaultLimit int
	maxLimit     int
}

func NewExplorerService(explorer port.CatalogExplorer, owners domain.OwnerAllowList, defaultLimit, maxLimit int) *ExplorerService {
	return &ExplorerService{
		explorer:     explorer,
		owners:       owners,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// resolveFilter applies the shared listing rules: owner XOR search, owner
// must be authorized, limit defaulted then clamped.
func (s *ExplorerService) resolveFilter(filter port.TableFilter) (port.TableFilter, error) {
	if filter.Owner != "" && filter.Search != "" {
		return filter, fmt.Errorf("cannot specify both owner and search; use one or the other")
	}
	if filter.Owner != "" && !s.owners.Contains(filter.Owner) {
		return filter, fmt.Errorf("owner %q is not authorized; authorized owners: %s",
			filter.Owner, strings.Join(s.owners.Names(), ", "))
	}
	if filter.Limit == 0 {
		filter.Limit = s.defaultLimit
	}
	limit, err := domain.ClampRowLimit(filter.Limit, s.maxLimit)
	if err != nil {
		return filter, fmt.Errorf("limit %d: %w", filter.Limit, err)
	}
	filter.Limit = limit
	return filter, nil
}

func (s *ExplorerService) Ping(ctx context.Context) (*port.ServerInfo, error) {
	return s.explorer.Ping(ctx)
}

func (s *ExplorerService) ListOwners(ctx context.Context) ([]port.OwnerInfo, error) {
	return s.explorer.ListOwners(ctx)
}

func (s *ExplorerService) ListTables(ctx context.Context, filter port.TableFilter) (*port.TableList, error) {
	filter, err := s.resolveFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.explorer.ListTables(ctx, filter)
}

// DescribeTable accepts "Part" or "monitor.Part". A qualified owner must
// be authorized; an unqualified name is resolved among authorized owners
// by the adapter.
func (s *ExplorerService) DescribeTable(ctx context.Context, name string) (*port.TableDetail, error) {
	owner, table, err := s.splitQualified(name)
	if err != nil {
		return nil, err
	}
	return s.explorer.DescribeTable(ctx, owner, table)
}

func (s *ExplorerService) ListProcedures(ctx context.Context, filter port.TableFilter) (*port.ProcedureList, error) {
	filter, err := s.resolveFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.explorer.ListProcedures(ctx, filter)
}

func (s *ExplorerService) DescribeProcedure(ctx context.Context, name string) (*port.ProcedureInfo, error) {
	owner, proc, err := s.splitQualified(name)
	if err != nil {
		return nil, err
	}
	return s.explorer.DescribeProcedure(ctx, owner, proc)
}

func (s *ExplorerService) ListIndexes(ctx context.Context, table string, limit int) (*port.IndexList, error) {
	if limit == 0 {
		limit = s.defaultLimit
	}
	limit, err := domain.ClampRowLimit(limit, s.maxLimit)
	if err != nil {
		return nil, fmt.Errorf("limit: %w", err)
	}
	return s.explorer.ListIndexes(ctx, table, limit)
}

func (s *ExplorerService) DescribeIndex(ctx context.Context, name string) (*port.IndexInfo, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("index name cannot be empty")
	}
	return s.explorer.DescribeIndex(ctx, name)
}

func (s *ExplorerService) DatabaseInfo(ctx context.Context) (*port.DatabaseInfo, error) {
	return s.explorer.DatabaseInfo(ctx)
}

func (s *ExplorerService) splitQualified(name string) (owner, object string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("name cannot be empty")
	}
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		return "", parts[0], nil
	case 2:
		if !s.owners.Contains(parts[0]) {
			return "", "", fmt.Errorf("owner %q is not authorized; authorized owners: %s",
				parts[0], strings.Join(s.owners.Names(), ", "))
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid name %q: use Name or owner.Name", name)
	}
}
