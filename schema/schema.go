// Package schema implements the Schema Actor of spec.md §4.2: a
// per-(db, namespace, metric) field-name -> value-type map that evolves
// only by widening.
package schema

import (
	"github.com/nsdb-io/nsdb/bit"
	"github.com/nsdb-io/nsdb/util"
)

// Key identifies the metric a schema belongs to.
type Key struct {
	DB     string
	NS     string
	Metric string
}

// Schema is an immutable field-name -> value-type map. The distinguished
// "timestamp" and "value" fields are ordinary entries in Fields.
type Schema struct {
	Fields map[string]bit.ValueType
}

// FromBit derives the candidate schema implied by writing b: every
// dimension's inferred type plus the distinguished "timestamp" and
// "value" fields.
func FromBit(b bit.Bit) Schema {
	fields := make(map[string]bit.ValueType, len(b.Dimensions)+2)
	fields["timestamp"] = bit.ValueTypeLong
	fields["value"] = b.Value.Type()
	for k, v := range b.Dimensions {
		fields[k] = v.Type()
	}
	return Schema{Fields: fields}
}

// Evolve merges candidate into the existing schema. Fields present in
// both must agree on type (conflicts are reported by name); fields only
// in candidate are added; fields only in existing are retained
// (spec.md §4.2).
func Evolve(existing Schema, candidate Schema) (Schema, []string) {
	merged := make(map[string]bit.ValueType, len(existing.Fields)+len(candidate.Fields))
	for k, v := range existing.Fields {
		merged[k] = v
	}

	var conflicts []string
	for k, v := range util.CanonicalMapIter(candidate.Fields) {
		if existingType, ok := existing.Fields[k]; ok {
			if existingType != v {
				conflicts = append(conflicts, k)
			}
			continue
		}
		merged[k] = v
	}
	if len(conflicts) > 0 {
		return existing, conflicts
	}
	return Schema{Fields: merged}, nil
}
