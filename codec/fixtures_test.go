package codec

import (
	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/reflection"
)

// Type indices for the shared test registry built by newSampleRegistry.
const (
	tUInt32 reflection.TypeIndex = iota
	tFloat32
	tBool
	tColor
	tFlags
	tBlobStringT
	tBlobArrayOfUInt32
	tBlobOptionalOfUInt32
	tGuidT
	tVariantBase
	tVariantSub
	tBlobVariantOfBase
	tSample
)

func ptrIdx(i reflection.TypeIndex) *reflection.TypeIndex { return &i }

// newSampleRegistry builds a small but representative type graph covering
// every primitive the codec handles: scalars, an enum, a bitmask, a blob
// string/array/optional/variant, a guid, and a struct tying them together.
func newSampleRegistry() *reflection.TypeRegistry {
	reg, err := reflection.Build([]reflection.TypeMetadata{
		tUInt32: {Name: "u32", QualifiedHash: 1, PrimitiveType: reflection.PrimitiveUInt32, Size: 4, Alignment: 4},
		tFloat32: {Name: "f32", QualifiedHash: 2, PrimitiveType: reflection.PrimitiveFloat32, Size: 4, Alignment: 4},
		tBool:    {Name: "bool", QualifiedHash: 3, PrimitiveType: reflection.PrimitiveBool, Size: 1, Alignment: 1},
		tColor: {
			Name: "Color", QualifiedHash: 4, PrimitiveType: reflection.PrimitiveEnum, Size: 4, Alignment: 4,
			EnumFields: []reflection.EnumField{{Name: "Red", Value: 0}, {Name: "Green", Value: 1}, {Name: "Blue", Value: 2}},
		},
		tFlags: {
			Name: "Flags", QualifiedHash: 5, PrimitiveType: reflection.PrimitiveBitmask32, Size: 4, Alignment: 4,
			EnumFields: []reflection.EnumField{{Name: "A", Value: 1}, {Name: "B", Value: 2}, {Name: "C", Value: 4}},
		},
		tBlobStringT: {Name: "BlobString", QualifiedHash: 6, PrimitiveType: reflection.PrimitiveBlobString, Size: 16, Alignment: 4},
		tBlobArrayOfUInt32: {
			Name: "BlobArrayU32", QualifiedHash: 7, PrimitiveType: reflection.PrimitiveBlobArray, Size: 16, Alignment: 4,
			InnerType: ptrIdx(tUInt32),
		},
		tBlobOptionalOfUInt32: {
			Name: "BlobOptionalU32", QualifiedHash: 8, PrimitiveType: reflection.PrimitiveBlobOptional, Size: 16, Alignment: 4,
			InnerType: ptrIdx(tUInt32),
		},
		tGuidT: {Name: "Guid", QualifiedHash: 9, PrimitiveType: reflection.PrimitiveGuid, Size: 16, Alignment: 8},
		tVariantBase: {
			Name: "Base", QualifiedHash: 10, PrimitiveType: reflection.PrimitiveStruct, Size: 4, Alignment: 4,
			StructFields: []reflection.StructField{{Name: "tag", Type: tUInt32, DataOffset: 0}},
		},
		tVariantSub: {
			Name: "Sub", QualifiedHash: 11, PrimitiveType: reflection.PrimitiveStruct, Size: 8, Alignment: 4,
			InnerType:    ptrIdx(tVariantBase),
			StructFields: []reflection.StructField{{Name: "extra", Type: tUInt32, DataOffset: 4}},
		},
		tBlobVariantOfBase: {
			Name: "BlobVariantBase", QualifiedHash: 12, PrimitiveType: reflection.PrimitiveBlobVariant, Size: 16, Alignment: 4,
			InnerType: ptrIdx(tVariantBase),
		},
		tSample: {
			Name: "Sample", QualifiedHash: 13, PrimitiveType: reflection.PrimitiveStruct, Size: 112, Alignment: 8,
			StructFields: []reflection.StructField{
				{Name: "count", Type: tUInt32, DataOffset: 0},
				{Name: "ratio", Type: tFloat32, DataOffset: 4},
				{Name: "enabled", Type: tBool, DataOffset: 8},
				{Name: "color", Type: tColor, DataOffset: 12},
				{Name: "flags", Type: tFlags, DataOffset: 16},
				{Name: "label", Type: tBlobStringT, DataOffset: 32},
				{Name: "items", Type: tBlobArrayOfUInt32, DataOffset: 48},
				{Name: "maybe", Type: tBlobOptionalOfUInt32, DataOffset: 64},
				{Name: "id", Type: tGuidT, DataOffset: 80},
				{Name: "payload", Type: tBlobVariantOfBase, DataOffset: 96},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return reg
}

// sampleValue returns a fully populated Sample struct value matching
// newSampleRegistry's layout.
func sampleValue() Value {
	s := NewStruct()
	s.Set("count", UInt(7))
	s.Set("ratio", Float(1.5))
	s.Set("enabled", Bool(true))
	s.Set("color", UInt(1)) // Green
	s.Set("flags", UInt(5)) // A|C
	s.Set("label", String("hello"))
	s.Set("items", Array([]Value{UInt(10), UInt(20), UInt(30)}))
	s.Set("maybe", UInt(42))
	s.Set("id", GuidValue(sampleGuid()))

	sub := NewStruct()
	sub.Set("tag", UInt(1))
	sub.Set("extra", UInt(99))
	s.Set("payload", VariantValue(tVariantSub, StructValue(sub)))

	return StructValue(s)
}

func sampleGuid() (g guid.Guid) {
	for i := range g {
		g[i] = byte(i + 1)
	}
	return g
}
