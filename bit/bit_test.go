package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueAccessors(t *testing.T) {
	assert.Equal(t, ValueTypeLong, Long(42).Type())

	v, ok := Double(1.5).AsDouble()
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = String("x").AsLong()
	assert.False(t, ok, "AsLong should fail on a String value")
}

func TestIdentityDeduplication(t *testing.T) {
	b1 := Bit{Timestamp: 1, Value: Double(0.5), Dimensions: Dimensions{"content": String("c"), "size": Long(3)}}
	b2 := Bit{Timestamp: 1, Value: Double(0.5), Dimensions: Dimensions{"size": Long(3), "content": String("c")}}
	assert.Equal(t, b1.Identity(), b2.Identity(), "identities should be equal regardless of dimension insertion order")

	b3 := Bit{Timestamp: 1, Value: Double(0.6), Dimensions: Dimensions{"content": String("c"), "size": Long(3)}}
	assert.NotEqual(t, b1.Identity(), b3.Identity(), "identities should differ when value differs")
}
