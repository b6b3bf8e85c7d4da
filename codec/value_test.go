package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructPreservesInsertionOrder(t *testing.T) {
	s := NewStruct()
	s.Set("z", UInt(1))
	s.Set("a", UInt(2))
	s.Set("m", UInt(3))

	assert.Equal(t, []string{"z", "a", "m"}, s.Keys())
	assert.Equal(t, 3, s.Len())
}

func TestStructOverwritePreservesPosition(t *testing.T) {
	s := NewStruct()
	s.Set("a", UInt(1))
	s.Set("b", UInt(2))
	s.Set("a", UInt(99))

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, uint64(99), v.AsUInt())
}

func TestStructGetMissing(t *testing.T) {
	s := NewStruct()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestValueConstructorsAndAccessors(t *testing.T) {
	assert.Equal(t, KindNone, None().Kind)

	assert.True(t, Bool(true).AsBool())
	assert.Equal(t, uint64(42), UInt(42).AsUInt())
	assert.Equal(t, int64(-7), SInt(-7).AsSInt())
	assert.Equal(t, 3.5, Float(3.5).AsFloat())
	assert.Equal(t, "hi", String("hi").AsString())

	arr := Array([]Value{UInt(1), UInt(2)})
	assert.Len(t, arr.AsArray(), 2)

	variant := VariantValue(3, UInt(9))
	assert.Equal(t, KindVariant, variant.Kind)
	assert.EqualValues(t, 3, variant.AsVariant().Type)
	assert.Equal(t, uint64(9), variant.AsVariant().Value.AsUInt())
}
