package sqlitecache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb-io/nsdb/metadata"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nsdb.sqlite")
	b, err := NewBackend(path)
	require.NoError(t, err)
	defer b.Close()

	key := metadata.Key{DB: "db", NS: "ns", Metric: "m"}
	loc := metadata.Location{Metric: "m", Node: "n1", From: 0, To: 60000}
	info := metadata.MetricInfo{Metric: "m", ShardIntervalMs: 60000}

	require.NoError(t, b.SaveLocation(key, loc))
	require.NoError(t, b.SaveMetricInfo(key, info))

	locations, infos, err := b.LoadAll()
	require.NoError(t, err)
	require.Len(t, locations[key], 1)
	assert.Equal(t, "n1", locations[key][0].Node)
	assert.Equal(t, int64(60000), infos[key].ShardIntervalMs)
}

func TestSaveMetricInfoUpserts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nsdb.sqlite")
	b, err := NewBackend(path)
	require.NoError(t, err)
	defer b.Close()

	key := metadata.Key{DB: "db", NS: "ns", Metric: "m"}
	require.NoError(t, b.SaveMetricInfo(key, metadata.MetricInfo{Metric: "m", ShardIntervalMs: 1000}))
	require.NoError(t, b.SaveMetricInfo(key, metadata.MetricInfo{Metric: "m", ShardIntervalMs: 2000}))

	_, infos, err := b.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, int64(2000), infos[key].ShardIntervalMs, "expected upsert to overwrite")
}
