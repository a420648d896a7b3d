package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML policy file and returns a validated Policy.
// Table keys are normalized to lowercase owner.table form.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	var pol Policy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}

	if err := validate(&pol); err != nil {
		return nil, fmt.Errorf("validating policy: %w", err)
	}

	normalizeKeys(&pol)
	return &pol, nil
}

func validate(pol *Policy) error {
	// Masks apply by column name across all tables, so the same column
	// name must not carry two different directives.
	seenMasks := map[string]string{}
	for key, tc := range pol.Context.Tables {
		if key == "" {
			return fmt.Errorf("context.tables contains an empty key")
		}
		if strings.Count(key, ".") != 1 {
			return fmt.Errorf("context.tables key %q: must be owner.table", key)
		}
		for col, cc := range tc.Columns {
			if col == "" {
				return fmt.Errorf("context.tables[%q].columns contains an empty key", key)
			}
			if !cc.Mask.Valid() {
				return fmt.Errorf("context.tables[%q].columns[%q].mask: invalid value %q (allowed: redact, hash, partial, null)", key, col, cc.Mask)
			}
			if cc.Mask == "" {
				continue
			}
			if prev, ok := seenMasks[col]; ok && prev != string(cc.Mask) {
				return fmt.Errorf("conflicting masks for column %q: %q and %q", col, prev, cc.Mask)
			}
			seenMasks[col] = string(cc.Mask)
		}
	}
	return nil
}

func normalizeKeys(pol *Policy) {
	if len(pol.Context.Tables) == 0 {
		return
	}
	normalized := make(map[string]TableContext, len(pol.Context.Tables))
	for key, tc := range pol.Context.Tables {
		normalized[strings.ToLower(key)] = tc
	}
	pol.Context.Tables = normalized
}
