package policy

import (
	"github.com/guillermoBallester/strait/internal/core/domain"
	"github.com/guillermoBallester/strait/internal/core/port"
)

// MergeTableDetail fills the Description fields of a TableDetail from the
// policy dictionary. Existing descriptions are never overwritten.
func MergeTableDetail(detail *port.TableDetail, ctx ContextConfig) {
	if detail == nil {
		return
	}

	tc, ok := ctx.lookup(detail.Owner, detail.Name)
	if !ok {
		return
	}

	if detail.Description == "" && tc.Description != "" {
		detail.Description = tc.Description
	}

	for i, col := range detail.Columns {
		if cc, ok := tc.Columns[col.Name]; ok && col.Description == "" && cc.Description != "" {
			detail.Columns[i].Description = cc.Description
		}
	}
}

// MergeTableInfoList fills table-level descriptions in a listing result.
func MergeTableInfoList(tables []port.TableInfo, ctx ContextConfig) {
	for i, t := range tables {
		if tc, ok := ctx.lookup(t.Owner, t.Name); ok && t.Description == "" && tc.Description != "" {
			tables[i].Description = tc.Description
		}
	}
}

// MaskSpec flattens the policy's mask directives into the column-name map
// the query service applies to result rows.
func MaskSpec(ctx ContextConfig) map[string]domain.MaskType {
	spec := make(map[string]domain.MaskType)
	for _, tc := range ctx.Tables {
		for col, cc := range tc.Columns {
			if cc.Mask != "" {
				spec[col] = cc.Mask
			}
		}
	}
	return spec
}
