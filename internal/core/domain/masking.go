package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// MaskType is a column masking strategy applied to query results before
// they leave the server. The zero value means "no mask".
type MaskType string

const (
	MaskRedact  MaskType = "redact"  // replace with ***
	MaskHash    MaskType = "hash"    // sha256 hex of the value's string form
	MaskPartial MaskType = "partial" // keep the last 4 characters
	MaskNull    MaskType = "null"    // replace with NULL
)

// Valid reports whether m names a known strategy ("" counts as valid and
// means no masking).
func (m MaskType) Valid() bool {
	switch m {
	case MaskRedact, MaskHash, MaskPartial, MaskNull, "":
		return true
	}
	return false
}

// ApplyMask transforms a single value. Masked values may change type
// (hash and partial always yield strings); MaskNull returns nil, which is
// indistinguishable from SQL NULL downstream.
func ApplyMask(value any, mask MaskType) any {
	if value == nil {
		return nil
	}
	switch mask {
	case MaskRedact:
		return "***"
	case MaskHash:
		sum := sha256.Sum256([]byte(fmt.Sprintf("%v", value)))
		return fmt.Sprintf("%x", sum)
	case MaskPartial:
		return partialMask(fmt.Sprintf("%v", value))
	case MaskNull:
		return nil
	default:
		return value
	}
}

// partialMask hides all but the last four characters. Short values are
// fully prefixed so nothing original leaks when there is little to hide.
func partialMask(s string) string {
	runes := []rune(s)
	if len(runes) <= 4 {
		return "***" + s
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

// MaskRows applies column masks to result rows in place. Matching is by
// column name only; a mask configured for "email" covers that column in
// every table it appears in.
func MaskRows(rows []map[string]any, masks map[string]MaskType) {
	if len(masks) == 0 {
		return
	}
	for _, row := range rows {
		for col, mask := range masks {
			if v, ok := row[col]; ok {
				row[col] = ApplyMask(v, mask)
			}
		}
	}
}
