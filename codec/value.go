// Package codec implements the reflective binary<->Value<->JSON codec: a
// pair of mutually-recursive walkers driven by a reflection.TypeRegistry
// that convert packed descriptor bytes to a structured in-memory Value and
// back, byte-identical for any value obtained from a prior decode.
package codec

import (
	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/reflection"
)

// Kind discriminates Value's sum-type cases.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindUInt
	KindSInt
	KindFloat
	KindString
	KindGuid
	KindStruct
	KindArray
	KindVariant
)

// Variant holds a blob-variant payload: which concrete type was chosen and
// its decoded value.
type Variant struct {
	Type  reflection.TypeIndex
	Value Value
}

// Value is the in-memory model the codec reads into and writes from, and
// the JSON bridge's schema.
type Value struct {
	Kind    Kind
	boolV   bool
	uintV   uint64
	sintV   int64
	floatV  float64
	strV    string
	guidV   guid.Guid
	structV *Struct
	arrayV  []Value
	variant *Variant
}

func None() Value                { return Value{Kind: KindNone} }
func Bool(b bool) Value          { return Value{Kind: KindBool, boolV: b} }
func UInt(u uint64) Value        { return Value{Kind: KindUInt, uintV: u} }
func SInt(s int64) Value         { return Value{Kind: KindSInt, sintV: s} }
func Float(f float64) Value      { return Value{Kind: KindFloat, floatV: f} }
func String(s string) Value      { return Value{Kind: KindString, strV: s} }
func GuidValue(g guid.Guid) Value { return Value{Kind: KindGuid, guidV: g} }
func StructValue(s *Struct) Value { return Value{Kind: KindStruct, structV: s} }
func Array(items []Value) Value  { return Value{Kind: KindArray, arrayV: items} }
func VariantValue(t reflection.TypeIndex, v Value) Value {
	return Value{Kind: KindVariant, variant: &Variant{Type: t, Value: v}}
}

func (v Value) AsBool() bool             { return v.boolV }
func (v Value) AsUInt() uint64           { return v.uintV }
func (v Value) AsSInt() int64            { return v.sintV }
func (v Value) AsFloat() float64         { return v.floatV }
func (v Value) AsString() string         { return v.strV }
func (v Value) AsGuid() guid.Guid        { return v.guidV }
func (v Value) AsStruct() *Struct        { return v.structV }
func (v Value) AsArray() []Value         { return v.arrayV }
func (v Value) AsVariant() *Variant      { return v.variant }

// Struct is an insertion-order-preserving name->Value map, the Go analogue
// of kfc-descriptor's indexmap::IndexMap use for struct fields.
type Struct struct {
	keys   []string
	values map[string]Value
}

// NewStruct returns an empty ordered struct value.
func NewStruct() *Struct {
	return &Struct{values: make(map[string]Value)}
}

// Set inserts or overwrites key, preserving its original position on
// overwrite and appending on first insertion.
func (s *Struct) Set(key string, v Value) {
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Get returns the value stored at key, if any.
func (s *Struct) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns field names in insertion order.
func (s *Struct) Keys() []string { return s.keys }

// Len returns the number of fields.
func (s *Struct) Len() int { return len(s.keys) }
