package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nsdb-io/nsdb/bit"
)

// Format renders stmt back to NSDb SQL text such that
// Parse(Format(stmt), stmt.Namespace()) reproduces an equal AST
// (spec.md §8, "Parser round-trip"). NOW references are never
// reconstructed: the AST only ever carries the timestamps NOW resolved
// to at parse time, so the canonical form is always the numeric literal.
func Format(stmt Statement) string {
	switch st := stmt.(type) {
	case SelectStatement:
		return formatSelect(st)
	case InsertStatement:
		return formatInsert(st)
	case DeleteStatement:
		return formatDelete(st)
	case DropStatement:
		return fmt.Sprintf("DROP %s", st.Metric)
	default:
		return ""
	}
}

func formatSelect(st SelectStatement) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(formatFields(st.Fields))
	b.WriteString(" FROM ")
	b.WriteString(st.From)
	if st.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(formatExpr(st.Where))
	}
	if st.GroupBy != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(st.GroupBy)
	}
	if st.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(st.OrderBy)
		if st.Desc {
			b.WriteString(" DESC")
		}
	}
	if st.HasLimit {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(st.Limit))
	}
	return b.String()
}

func formatFields(fl FieldList) string {
	if fl.All {
		return "*"
	}
	parts := make([]string, len(fl.Fields))
	for i, f := range fl.Fields {
		if f.Agg == AggNone {
			parts[i] = f.Name
		} else {
			parts[i] = fmt.Sprintf("%s(%s)", f.Agg, f.Name)
		}
	}
	return strings.Join(parts, ", ")
}

func formatInsert(st InsertStatement) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(st.Metric)
	if st.HasTimestamp {
		b.WriteString(fmt.Sprintf(" TS=%d", st.Timestamp))
	}
	if len(st.Dimensions) > 0 {
		b.WriteString(" DIM(")
		first := true
		for k, v := range st.Dimensions {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(fmt.Sprintf("%s=%s", k, formatValue(v)))
		}
		b.WriteString(")")
	}
	b.WriteString(fmt.Sprintf(" VAL=%s", formatValue(st.Value)))
	return b.String()
}

func formatDelete(st DeleteStatement) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s", st.Metric, formatExpr(st.Where))
}

func formatValue(v bit.Value) string {
	switch v.Type() {
	case bit.ValueTypeString:
		s, _ := v.AsString()
		return fmt.Sprintf("'%s'", strings.ReplaceAll(s, "'", "''"))
	case bit.ValueTypeDouble:
		// always keep a decimal point so the literal re-parses as a FLOAT
		d, _ := v.AsDouble()
		s := strconv.FormatFloat(d, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	default:
		return v.String()
	}
}

func formatExpr(e Expression) string {
	switch ex := e.(type) {
	case Equality:
		return fmt.Sprintf("%s = %s", ex.Dim, formatValue(ex.Value))
	case Comparison:
		return fmt.Sprintf("%s %s %d", ex.Dim, ex.Op, ex.Value)
	case Range:
		return fmt.Sprintf("%s IN (%d, %d)", ex.Dim, ex.From, ex.To)
	case UnaryLogical:
		return fmt.Sprintf("NOT %s", formatExpr(ex.Expr))
	case TupledLogical:
		return fmt.Sprintf("%s %s %s", formatExpr(ex.Left), ex.Op, formatExpr(ex.Right))
	default:
		return ""
	}
}
