package namespace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/parser"
)

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return c
}

func TestAddRecordThenCount(t *testing.T) {
	// S4
	a := NewActor(0)
	defer a.Close()
	key := Key{DB: "db", NS: "ns", Metric: "x"}
	b := bit.Bit{Timestamp: 1, Value: bit.Double(0.5), Dimensions: bit.Dimensions{"content": bit.String("c")}}

	_, err := a.AddRecord(ctx(t), key, b)
	require.NoError(t, err)

	got, err := a.GetCount(ctx(t), key)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestAddRecordDeduplicatesByIdentity(t *testing.T) {
	a := NewActor(0)
	defer a.Close()
	key := Key{DB: "db", NS: "ns", Metric: "x"}
	b := bit.Bit{Timestamp: 1, Value: bit.Double(0.5), Dimensions: bit.Dimensions{"content": bit.String("c")}}

	a.AddRecord(ctx(t), key, b)
	a.AddRecord(ctx(t), key, b)
	got, err := a.GetCount(ctx(t), key)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count, "expected over-replicated write to dedupe to 1")
}

func TestDeleteRecordDecrementsCount(t *testing.T) {
	a := NewActor(0)
	defer a.Close()
	key := Key{DB: "db", NS: "ns", Metric: "x"}
	b := bit.Bit{Timestamp: 1, Value: bit.Long(1)}

	a.AddRecord(ctx(t), key, b)
	_, err := a.DeleteRecord(ctx(t), key, b)
	require.NoError(t, err)

	got, err := a.GetCount(ctx(t), key)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count, "expected count 0 after delete")
}

func TestDeleteNamespaceClearsChildIndexers(t *testing.T) {
	a := NewActor(0)
	defer a.Close()
	key := Key{DB: "db", NS: "ns", Metric: "x"}
	a.AddRecord(ctx(t), key, bit.Bit{Timestamp: 1, Value: bit.Long(1)})

	_, err := a.DeleteNamespace(ctx(t), "db", "ns")
	require.NoError(t, err)

	got, err := a.GetCount(ctx(t), key)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count, "expected 0 after namespace deletion")

	metrics, err := a.GetMetrics(ctx(t), "db", "ns")
	require.NoError(t, err)
	assert.Empty(t, metrics.Metrics, "expected no metrics left")
}

func TestExecuteSelectStatementFilters(t *testing.T) {
	a := NewActor(0)
	defer a.Close()
	key := Key{DB: "db", NS: "ns", Metric: "x"}
	for ts := int64(0); ts < 5; ts++ {
		a.AddRecord(ctx(t), key, bit.Bit{Timestamp: ts, Value: bit.Long(ts)})
	}

	stmt := parser.SelectStatement{
		Fields: parser.FieldList{All: true},
		From:   "x",
		Where:  parser.Comparison{Dim: "ts", Op: ">=", Value: 2},
	}
	got, err := a.ExecuteSelectStatement(ctx(t), key, stmt)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 3, "expected 3 rows (ts 2,3,4)")
}

func TestExecuteSelectStatementAggregates(t *testing.T) {
	a := NewActor(0)
	defer a.Close()
	key := Key{DB: "db", NS: "ns", Metric: "x"}
	for ts := int64(0); ts < 3; ts++ {
		a.AddRecord(ctx(t), key, bit.Bit{Timestamp: ts, Value: bit.Long(ts + 1)})
	}

	stmt := parser.SelectStatement{
		Fields: parser.FieldList{Fields: []parser.Field{{Name: "value", Agg: parser.AggSum}}},
		From:   "x",
	}
	got, err := a.ExecuteSelectStatement(ctx(t), key, stmt)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1, "expected a single aggregate row")

	sum, ok := got.Rows[0].Values["value"].AsDouble()
	assert.True(t, ok)
	assert.Equal(t, float64(6), sum)
}
