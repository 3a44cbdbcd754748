package users

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampDefaults(t *testing.T) {
	p := ListParams{}.clamp()
	require.Equal(t, 1, p.Page)
	require.Equal(t, defaultListLimit, p.Limit)
}

func TestClampLimits(t *testing.T) {
	p := ListParams{Page: -1, Limit: 9999}.clamp()
	require.Equal(t, 1, p.Page)
	require.Equal(t, maxListLimit, p.Limit)

	p = ListParams{Page: 4, Limit: 50}.clamp()
	require.Equal(t, 4, p.Page)
	require.Equal(t, 50, p.Limit)
}

func TestSearchFilter(t *testing.T) {
	where, args := searchFilter("")
	require.Empty(t, where)
	require.Empty(t, args)

	where, args = searchFilter("alice")
	require.Equal(t, " WHERE (email ILIKE $1 OR name ILIKE $1)", where)
	require.Equal(t, []any{"%alice%"}, args)
}
