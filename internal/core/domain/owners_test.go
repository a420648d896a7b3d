package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOwnerAllowList(t *testing.T) {
	list, err := NewOwnerAllowList([]string{" monitor ", "Reporting", "monitor"})
	require.NoError(t, err)

	assert.Equal(t, 2, list.Len())
	assert.Equal(t, []string{"Reporting", "monitor"}, list.Names())
}

func TestNewOwnerAllowList_Empty(t *testing.T) {
	for _, owners := range [][]string{nil, {}, {"", "  "}} {
		_, err := NewOwnerAllowList(owners)
		assert.ErrorIs(t, err, ErrNoAuthorizedOwners)
	}
}

func TestNewOwnerAllowList_MalformedOwner(t *testing.T) {
	for _, owner := range []string{"mon.itor", `mo"nitor`, "mon'itor", "mon[itor", "mon;itor"} {
		_, err := NewOwnerAllowList([]string{owner})
		require.Error(t, err, "owner %q", owner)
		assert.Contains(t, err.Error(), "malformed")
	}
}

func TestOwnerAllowList_Contains(t *testing.T) {
	list, err := NewOwnerAllowList([]string{"Monitor"})
	require.NoError(t, err)

	assert.True(t, list.Contains("monitor"))
	assert.True(t, list.Contains("MONITOR"))
	assert.True(t, list.Contains("Monitor"))
	assert.False(t, list.Contains("dba"))
	assert.False(t, list.Contains(""))
}

func TestOwnerAllowList_ZeroValue(t *testing.T) {
	var list OwnerAllowList
	assert.False(t, list.Contains("monitor"))
	assert.Equal(t, 0, list.Len())
	assert.Empty(t, list.Names())
}
