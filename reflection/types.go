// Package reflection builds an immutable type graph out of the raw type
// records pescan locates inside a host executable, and exposes the lookups
// the codec needs: by index, by qualified/impact hash, inheritance and
// typedef walks, and ancestor-first field iteration.
package reflection

import "errors"

// PrimitiveType is the closed set of type kinds a TypeMetadata can carry.
type PrimitiveType uint32

const (
	PrimitiveNone PrimitiveType = iota
	PrimitiveBool
	PrimitiveUInt8
	PrimitiveUInt16
	PrimitiveUInt32
	PrimitiveUInt64
	PrimitiveSInt8
	PrimitiveSInt16
	PrimitiveSInt32
	PrimitiveSInt64
	PrimitiveFloat32
	PrimitiveFloat64
	PrimitiveEnum
	PrimitiveBitmask8
	PrimitiveBitmask16
	PrimitiveBitmask32
	PrimitiveBitmask64
	PrimitiveTypedef
	PrimitiveStruct
	PrimitiveStaticArray
	PrimitiveDsArray
	PrimitiveDsString
	PrimitiveDsOptional
	PrimitiveDsVariant
	PrimitiveBlobArray
	PrimitiveBlobString
	PrimitiveBlobOptional
	PrimitiveBlobVariant
	PrimitiveObjectReference
	PrimitiveGuid
)

// Flags are the per-type boolean attributes spec.md's data model lists.
type Flags uint32

const (
	FlagHasDs Flags = 1 << iota
	FlagHasBlobArray
	FlagHasBlobString
	FlagHasBlobOptional
	FlagHasBlobVariant
	FlagGPUUniform
	FlagGPUStorage
	FlagGPUConstant
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// TypeIndex is a type's position in the registry's backing slice.
type TypeIndex int

// StructFieldAttribute is a name/namespace/optional-type/value tuple
// attached to a struct field.
type StructFieldAttribute struct {
	Name      string
	Namespace []string
	Type      *TypeIndex
	Value     string
}

// StructField describes one named, offset-located field of a struct type.
type StructField struct {
	Name       string
	Type       TypeIndex
	DataOffset uint64
	Attributes []StructFieldAttribute
}

// EnumField is one name/value pair of an enum type.
type EnumField struct {
	Name  string
	Value uint64
}

// TypeMetadata is the complete description of one registered type.
type TypeMetadata struct {
	Index            TypeIndex
	Name             string
	Namespace        []string
	ImpactName       string
	Size             uint32
	Alignment        uint32
	ElementAlignment uint32
	FieldCount       uint32
	PrimitiveType    PrimitiveType
	Flags            Flags
	QualifiedHash    uint32
	ImpactHash       uint32

	// InnerType is used for typedef targets, array elements, optional
	// payloads, variant bases, object-reference pointees, and bitmask
	// underlying integers.
	InnerType *TypeIndex

	StructFields []StructField
	EnumFields   []EnumField
}

// QualifiedName joins the namespace chain and the type's own name with "::".
func (m *TypeMetadata) QualifiedName() string {
	out := ""
	for _, ns := range m.Namespace {
		out += ns + "::"
	}
	return out + m.Name
}

// Errors returned by Build and lookup methods.
var (
	ErrDuplicateQualifiedHash = errors.New("reflection: duplicate qualified hash")
	ErrDuplicateImpactHash    = errors.New("reflection: duplicate impact hash")
	ErrUnknownIndex           = errors.New("reflection: type index out of range")
	ErrUnknownQualifiedHash   = errors.New("reflection: unknown qualified hash")
	ErrUnknownImpactHash      = errors.New("reflection: unknown impact hash")
	ErrTypedefCycle           = errors.New("reflection: typedef chain does not terminate")
	ErrInheritanceCycle       = errors.New("reflection: inheritance chain does not terminate")
)
