// Package bit defines the record model written and read by the core:
// a single time-series measurement, its dimensions, and the small tagged
// value union used for both of those and for schema field types.
package bit

import (
	"fmt"

	"github.com/nsdb-io/nsdb/util"
)

// ValueType is the closed set of variants a Value can hold.
type ValueType int

const (
	ValueTypeLong ValueType = iota
	ValueTypeDouble
	ValueTypeString
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeLong:
		return "LONG"
	case ValueTypeDouble:
		return "DOUBLE"
	case ValueTypeString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Value is the tagged union backing Bit.Value and every dimension value,
// per spec.md's "Dynamic typing of bit values" design note.
type Value struct {
	typ    ValueType
	long   int64
	double float64
	str    string
}

func Long(v int64) Value    { return Value{typ: ValueTypeLong, long: v} }
func Double(v float64) Value { return Value{typ: ValueTypeDouble, double: v} }
func String(v string) Value  { return Value{typ: ValueTypeString, str: v} }

func (v Value) Type() ValueType { return v.typ }

func (v Value) AsLong() (int64, bool) {
	if v.typ != ValueTypeLong {
		return 0, false
	}
	return v.long, true
}

func (v Value) AsDouble() (float64, bool) {
	if v.typ != ValueTypeDouble {
		return 0, false
	}
	return v.double, true
}

func (v Value) AsString() (string, bool) {
	if v.typ != ValueTypeString {
		return "", false
	}
	return v.str, true
}

func (v Value) String() string {
	switch v.typ {
	case ValueTypeLong:
		return fmt.Sprintf("%d", v.long)
	case ValueTypeDouble:
		return fmt.Sprintf("%g", v.double)
	case ValueTypeString:
		return v.str
	default:
		return ""
	}
}

// Dimensions is the string-keyed bag of scalar attributes carried by a Bit.
type Dimensions map[string]Value

// Bit is a single, immutable time-series record.
type Bit struct {
	Timestamp  int64 // epoch-ms, must be >= 0
	Value      Value
	Dimensions Dimensions
}

// Identity is the tuple the indexer deduplicates on (spec.md §4.5): a Bit
// written twice under over-replication must collapse to one on read.
type Identity struct {
	Timestamp  int64
	Value      Value
	dimensions string
}

// Identity returns a comparable identity for deduplication purposes.
// Dimensions are folded into a canonical string so Identity remains a
// plain comparable value usable as a map key.
func (b Bit) Identity() Identity {
	return Identity{
		Timestamp:  b.Timestamp,
		Value:      b.Value,
		dimensions: canonicalDimensions(b.Dimensions),
	}
}

func canonicalDimensions(d Dimensions) string {
	if len(d) == 0 {
		return ""
	}
	s := ""
	for k, v := range util.CanonicalMapIter(d) {
		s += k + "=" + v.typ.String() + ":" + v.String() + ";"
	}
	return s
}
