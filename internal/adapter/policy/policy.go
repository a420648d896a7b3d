package policy

import (
	"fmt"
	"strings"

	"github.com/guillermoBallester/strait/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Policy holds operator-controlled configuration loaded from a YAML file:
// a data dictionary keyed by owner.table, plus column-level masking rules.
type Policy struct {
	Context ContextConfig `yaml:"context"`
}

// ContextConfig maps owner-qualified table names (owner.table, matched
// case-insensitively) to business descriptions that are merged into
// catalog tool responses.
type ContextConfig struct {
	Tables map[string]TableContext `yaml:"tables"`
}

// TableContext is the dictionary entry for one table and its columns.
type TableContext struct {
	Description string                   `yaml:"description"`
	Columns     map[string]ColumnContext `yaml:"columns"`
}

// ColumnContext holds a column's business description and optional mask
// directive.
type ColumnContext struct {
	Description string          `yaml:"description"`
	Mask        domain.MaskType `yaml:"mask,omitempty"`
}

// UnmarshalYAML accepts both the struct form and a plain-string shorthand:
//
//	columns:
//	  Email: "customer email"     # shorthand, description only
//	  TaxId:
//	    description: "tax id"
//	    mask: "partial"
func (cc *ColumnContext) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		cc.Description = value.Value
		return nil
	}
	type alias ColumnContext
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding column context: %w", err)
	}
	*cc = ColumnContext(a)
	return nil
}

// tableKey normalizes an owner/table pair to the map key form.
func tableKey(owner, table string) string {
	return strings.ToLower(owner) + "." + strings.ToLower(table)
}

// lookup finds the dictionary entry for owner.table, if any.
func (c ContextConfig) lookup(owner, table string) (TableContext, bool) {
	tc, ok := c.Tables[tableKey(owner, table)]
	return tc, ok
}
