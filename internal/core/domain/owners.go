package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoAuthorizedOwners means the allow-list is empty. Without at least one
// authorized owner no statement can ever be accepted, so this is fatal at
// startup rather than a per-query rejection.
var ErrNoAuthorizedOwners = errors.New("authorized owner list is empty")

// OwnerAllowList is the immutable set of schema owners whose objects may be
// queried. Membership checks are case-insensitive. The zero value is empty
// and authorizes nothing; build instances with NewOwnerAllowList.
type OwnerAllowList struct {
	owners map[string]string // lowercased -> as configured
}

// NewOwnerAllowList builds an allow-list from configured owner names.
// Names are trimmed and deduplicated case-insensitively. An empty result,
// or an owner containing quoting or separator characters, is a
// configuration error.
func NewOwnerAllowList(owners []string) (OwnerAllowList, error) {
	set := make(map[string]string, len(owners))
	for _, o := range owners {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if strings.ContainsAny(o, ".\"'[]`;") {
			return OwnerAllowList{}, fmt.Errorf("malformed owner name %q", o)
		}
		set[strings.ToLower(o)] = o
	}
	if len(set) == 0 {
		return OwnerAllowList{}, ErrNoAuthorizedOwners
	}
	return OwnerAllowList{owners: set}, nil
}

// Contains reports whether owner is authorized, ignoring case.
func (l OwnerAllowList) Contains(owner string) bool {
	_, ok := l.owners[strings.ToLower(owner)]
	return ok
}

// Names returns the configured owner names, sorted.
func (l OwnerAllowList) Names() []string {
	names := make([]string, 0, len(l.owners))
	for _, name := range l.owners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of authorized owners.
func (l OwnerAllowList) Len() int {
	return len(l.owners)
}
