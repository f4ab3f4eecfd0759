package write

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/metadata"
	"github.com/nsdb-io/nsdb/namespace"
	"github.com/nsdb-io/nsdb/schema"
)

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return c
}

func newTestCoordinator(t *testing.T) (*Coordinator, *schema.Actor, *metadata.Coordinator, *namespace.Actor) {
	schemaActor := schema.NewActor()
	cache, err := metadata.NewCache(nil)
	require.NoError(t, err)
	metaCoord := metadata.NewCoordinator(cache, metadata.Config{DefaultShardIntervalMs: 60000})
	nsActor := namespace.NewActor(0)
	t.Cleanup(func() {
		schemaActor.Close()
		metaCoord.Close()
		nsActor.Close()
	})
	return NewCoordinator(schemaActor, metaCoord, nsActor, 4), schemaActor, metaCoord, nsActor
}

func TestMapInputAcceptsAndReplicates(t *testing.T) {
	c, _, _, nsActor := newTestCoordinator(t)
	b := bit.Bit{Timestamp: 1, Value: bit.Double(1.5), Dimensions: bit.Dimensions{"content": bit.String("c")}}

	got, err := c.MapInput(ctx(t), "db", "ns", "x", b)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Metric)

	count, err := nsActor.GetCount(ctx(t), namespace.Key{DB: "db", NS: "ns", Metric: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count, "expected the record to land in the namespace actor")
}

func TestMapInputRejectsOnSchemaConflict(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)
	first := bit.Bit{Timestamp: 1, Value: bit.Long(1), Dimensions: bit.Dimensions{"tag": bit.String("a")}}
	second := bit.Bit{Timestamp: 2, Value: bit.Long(2), Dimensions: bit.Dimensions{"tag": bit.Long(1)}}

	_, err := c.MapInput(ctx(t), "db", "ns", "x", first)
	require.NoError(t, err)

	_, err = c.MapInput(ctx(t), "db", "ns", "x", second)
	assert.Error(t, err, "expected a schema conflict to reject the second write")
}

func TestDropMetricRemovesSchemaAndData(t *testing.T) {
	c, schemaActor, _, nsActor := newTestCoordinator(t)
	b := bit.Bit{Timestamp: 1, Value: bit.Long(1)}
	_, err := c.MapInput(ctx(t), "db", "ns", "x", b)
	require.NoError(t, err)

	require.NoError(t, c.DropMetric(ctx(t), "db", "ns", "x"))

	sc, err := schemaActor.GetSchema(ctx(t), schema.Key{DB: "db", NS: "ns", Metric: "x"})
	require.NoError(t, err)
	assert.False(t, sc.Found, "expected schema to be gone")

	count, err := nsActor.GetCount(ctx(t), namespace.Key{DB: "db", NS: "ns", Metric: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, count.Count, "expected data to be gone")
}
