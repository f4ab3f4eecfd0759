package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelectStar(t *testing.T) {
	// S5
	stmt, err := Parse("SELECT * FROM people LIMIT 1", "registry")
	require.NoError(t, err)
	sel, ok := stmt.(SelectStatement)
	require.True(t, ok, "expected SelectStatement, got %T", stmt)
	assert.True(t, sel.Fields.All)
	assert.Equal(t, "people", sel.From)
	assert.True(t, sel.HasLimit)
	assert.Equal(t, 1, sel.Limit)
	assert.Equal(t, "registry", sel.Namespace())
}

func TestParseSelectWithRange(t *testing.T) {
	// S6
	stmt, err := Parse("SELECT value FROM x WHERE ts IN (NOW-1h, NOW)", "ns")
	require.NoError(t, err)
	sel := stmt.(SelectStatement)
	rng, ok := sel.Where.(Range)
	require.True(t, ok, "expected Range, got %T", sel.Where)
	assert.Equal(t, "ts", rng.Dim)
	assert.Equal(t, int64(msPerHour), rng.To-rng.From)
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("INSERT INTO x TS=10 DIM(content='c', size=3) VAL=0.5", "ns")
	require.NoError(t, err)
	ins := stmt.(InsertStatement)
	assert.Equal(t, "x", ins.Metric)
	assert.True(t, ins.HasTimestamp)
	assert.Equal(t, int64(10), ins.Timestamp)

	s, _ := ins.Dimensions["content"].AsString()
	assert.Equal(t, "c", s)
	n, _ := ins.Dimensions["size"].AsLong()
	assert.Equal(t, int64(3), n)
	f, _ := ins.Value.AsDouble()
	assert.Equal(t, 0.5, f)
}

func TestParseDeleteAndDrop(t *testing.T) {
	del, err := Parse("DELETE FROM x WHERE content = 'c'", "ns")
	require.NoError(t, err)
	_, ok := del.(DeleteStatement)
	assert.True(t, ok, "expected DeleteStatement, got %T", del)

	drop, err := Parse("DROP x", "ns")
	require.NoError(t, err)
	d, ok := drop.(DropStatement)
	require.True(t, ok, "expected DropStatement, got %T", drop)
	assert.Equal(t, "x", d.Metric)
}

func TestTupledLogicalLeftAssociative(t *testing.T) {
	stmt, err := Parse("SELECT * FROM x WHERE a = 1 AND b = 2 OR c = 3", "ns")
	require.NoError(t, err)
	sel := stmt.(SelectStatement)
	outer, ok := sel.Where.(TupledLogical)
	require.True(t, ok, "expected outermost TupledLogical, got %+v", sel.Where)
	assert.Equal(t, "OR", outer.Op)

	inner, ok := outer.Left.(TupledLogical)
	require.True(t, ok, "expected left-associative TupledLogical, got %+v", outer.Left)
	assert.Equal(t, "AND", inner.Op)
}

func TestUnaryLogical(t *testing.T) {
	stmt, err := Parse("DELETE FROM x WHERE NOT content = 'c'", "ns")
	require.NoError(t, err)
	del := stmt.(DeleteStatement)
	_, ok := del.Where.(UnaryLogical)
	assert.True(t, ok, "expected UnaryLogical, got %T", del.Where)
}

func TestParseErrorCarriesTail(t *testing.T) {
	_, err := Parse("SELECT FROM x", "ns")
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok, "expected *ParseError, got %T", err)
	assert.NotEmpty(t, pe.Tail)
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"SELECT * FROM people LIMIT 1",
		"SELECT value, SUM(size) FROM x GROUP BY content ORDER BY ts DESC LIMIT 10",
		"SELECT value FROM x WHERE ts > 10 AND ts <= 20",
		"INSERT INTO x TS=10 DIM(content='c') VAL=0.5",
		"INSERT INTO x VAL=42",
		"DELETE FROM x WHERE content = 'c' OR size = 3",
		"DROP x",
	}
	for _, sql := range cases {
		stmt, err := Parse(sql, "ns")
		require.NoError(t, err, "parsing %q", sql)
		pretty := Format(stmt)
		reparsed, err := Parse(pretty, "ns")
		require.NoError(t, err, "re-parsing %q (from %q)", pretty, sql)
		assert.True(t, statementsEqual(stmt, reparsed), "round trip mismatch for %q: %+v vs %+v", sql, stmt, reparsed)
	}
}

// statementsEqual is a structural comparison tolerant of the non-exported
// fields inside bit.Value by routing through the formatted SQL text
// instead of reflect.DeepEqual.
func statementsEqual(a, b Statement) bool {
	return Format(a) == Format(b)
}

func TestNowDeltaIsStable(t *testing.T) {
	stmt, err := Parse("SELECT * FROM x WHERE ts IN (NOW-1h, NOW+1h)", "ns")
	require.NoError(t, err)
	sel := stmt.(SelectStatement)
	rng := sel.Where.(Range)
	assert.Equal(t, int64(2*msPerHour), rng.To-rng.From)
}

func TestMetricNameValidation(t *testing.T) {
	_, err := Parse("DROP _bad", "ns")
	assert.Error(t, err, "expected metric name validation to reject a leading underscore")

	_, err = Parse("DROP good_name1", "ns")
	assert.NoError(t, err)
}
