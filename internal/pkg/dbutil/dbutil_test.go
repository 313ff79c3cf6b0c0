package dbutil

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("select id from quote_requests where service_type = ? and status = ?",
		[]interface{}{"website", "new"})
	require.Equal(t, "select id from quote_requests where service_type = $1 and status = $2", query)
	require.Equal(t, []interface{}{"website", "new"}, args)
}

func TestFinalizeRewritesLimitOffset(t *testing.T) {
	query, args := Finalize("select id from quote_requests where status = ? limit ?,?",
		[]interface{}{"new", 10, 5})
	require.Equal(t, "select id from quote_requests where status = $1 LIMIT $2 OFFSET $3", query)
	// offset 10 / count 5 becomes count 5 / offset 10
	require.Equal(t, []interface{}{"new", 5, 10}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(nil))
}
