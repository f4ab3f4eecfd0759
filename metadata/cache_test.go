package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGetLocations(t *testing.T) {
	c, err := NewCache(nil)
	require.NoError(t, err)
	key := Key{DB: "db", NS: "ns", Metric: "m"}
	loc := Location{Metric: "m", Node: "n1", From: 0, To: 60000}

	require.NoError(t, c.PutLocation(key, loc))
	got := c.GetLocations(key)
	require.Len(t, got, 1)
	assert.Equal(t, loc, got[0])

	// GetLocations must return a copy, not a view onto internal state.
	got[0].Node = "mutated"
	assert.Equal(t, "n1", c.GetLocations(key)[0].Node, "GetLocations leaked internal storage")
}

func TestCacheDeleteAll(t *testing.T) {
	c, err := NewCache(nil)
	require.NoError(t, err)
	key := Key{DB: "db", NS: "ns", Metric: "m"}
	require.NoError(t, c.PutLocation(key, Location{Metric: "m", Node: "n1", From: 0, To: 60000}))
	require.NoError(t, c.PutMetricInfo(key, MetricInfo{Metric: "m", ShardIntervalMs: 60000}))

	c.DeleteAll(key)
	assert.Empty(t, c.GetLocations(key), "expected locations to be gone")
	_, ok := c.GetMetricInfo(key)
	assert.False(t, ok, "expected metric info to be gone")
}
