package namespace

import (
	"sort"

	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/parser"
)

// Row is one projected result row of a SELECT.
type Row struct {
	Timestamp int64
	Values    map[string]bit.Value
}

// executeSelect evaluates stmt's WHERE and LIMIT clauses against records
// and projects stmt.Fields, the Namespace Data Actor's half of
// "ExecuteSelectStatement" (spec.md §4.6). Rows are always ordered by
// timestamp, descending when stmt.Desc is set; the ORDER BY field name is
// not consulted. GROUP BY is not applied: aggregates cover every matching
// record.
func executeSelect(stmt parser.SelectStatement, records []bit.Bit) []Row {
	filtered := make([]bit.Bit, 0, len(records))
	for _, r := range records {
		if stmt.Where == nil || evalExpr(stmt.Where, r) {
			filtered = append(filtered, r)
		}
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Timestamp < filtered[j].Timestamp })
	if stmt.Desc {
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Timestamp > filtered[j].Timestamp })
	}

	rows := project(stmt.Fields, filtered)
	if stmt.HasLimit && len(rows) > stmt.Limit {
		rows = rows[:stmt.Limit]
	}
	return rows
}

func project(fl parser.FieldList, records []bit.Bit) []Row {
	if fl.All {
		rows := make([]Row, len(records))
		for i, r := range records {
			rows[i] = Row{Timestamp: r.Timestamp, Values: recordValues(r)}
		}
		return rows
	}

	hasAgg := false
	for _, f := range fl.Fields {
		if f.Agg != parser.AggNone {
			hasAgg = true
			break
		}
	}
	if hasAgg {
		return []Row{aggregate(fl.Fields, records)}
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		values := map[string]bit.Value{}
		for _, f := range fl.Fields {
			values[f.Name] = fieldValue(f.Name, r)
		}
		rows[i] = Row{Timestamp: r.Timestamp, Values: values}
	}
	return rows
}

func recordValues(r bit.Bit) map[string]bit.Value {
	values := map[string]bit.Value{"value": r.Value}
	for k, v := range r.Dimensions {
		values[k] = v
	}
	return values
}

// fieldValue resolves a projected field name against a record: "value" is
// the Bit's value, "ts"/"timestamp" is its timestamp, anything else is
// looked up among its dimensions.
func fieldValue(name string, r bit.Bit) bit.Value {
	switch name {
	case "value":
		return r.Value
	case "ts", "timestamp":
		return bit.Long(r.Timestamp)
	}
	if v, ok := r.Dimensions[name]; ok {
		return v
	}
	return bit.Value{}
}

func aggregate(fields []parser.Field, records []bit.Bit) Row {
	values := map[string]bit.Value{}
	for _, f := range fields {
		switch f.Agg {
		case parser.AggCount:
			values[f.Name] = bit.Long(int64(len(records)))
		case parser.AggSum:
			values[f.Name] = bit.Double(sumOf(records))
		case parser.AggMin:
			values[f.Name] = bit.Double(extremumOf(records, false))
		case parser.AggMax:
			values[f.Name] = bit.Double(extremumOf(records, true))
		default:
			if len(records) > 0 {
				values[f.Name] = fieldValue(f.Name, records[0])
			}
		}
	}
	return Row{Values: values}
}

func numeric(v bit.Value) float64 {
	if l, ok := v.AsLong(); ok {
		return float64(l)
	}
	if d, ok := v.AsDouble(); ok {
		return d
	}
	return 0
}

func sumOf(records []bit.Bit) float64 {
	var s float64
	for _, r := range records {
		s += numeric(r.Value)
	}
	return s
}

func extremumOf(records []bit.Bit, max bool) float64 {
	if len(records) == 0 {
		return 0
	}
	best := numeric(records[0].Value)
	for _, r := range records[1:] {
		v := numeric(r.Value)
		if (max && v > best) || (!max && v < best) {
			best = v
		}
	}
	return best
}

func evalExpr(e parser.Expression, r bit.Bit) bool {
	switch ex := e.(type) {
	case parser.Equality:
		return valuesEqual(fieldValue(ex.Dim, r), ex.Value)
	case parser.Comparison:
		ts := fieldLong(ex.Dim, r)
		switch ex.Op {
		case ">":
			return ts > ex.Value
		case ">=":
			return ts >= ex.Value
		case "<":
			return ts < ex.Value
		case "<=":
			return ts <= ex.Value
		}
		return false
	case parser.Range:
		ts := fieldLong(ex.Dim, r)
		return ts >= ex.From && ts < ex.To
	case parser.UnaryLogical:
		return !evalExpr(ex.Expr, r)
	case parser.TupledLogical:
		left := evalExpr(ex.Left, r)
		right := evalExpr(ex.Right, r)
		if ex.Op == "AND" {
			return left && right
		}
		return left || right
	}
	return false
}

func fieldLong(dim string, r bit.Bit) int64 {
	if dim == "ts" || dim == "timestamp" {
		return r.Timestamp
	}
	if v, ok := r.Dimensions[dim]; ok {
		if l, ok := v.AsLong(); ok {
			return l
		}
	}
	return 0
}

func valuesEqual(a, b bit.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	return a.String() == b.String()
}
