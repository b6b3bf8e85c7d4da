package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intIdx(i int) *TypeIndex {
	idx := TypeIndex(i)
	return &idx
}

func TestBuildRejectsDuplicateQualifiedHash(t *testing.T) {
	_, err := Build([]TypeMetadata{
		{Name: "A", QualifiedHash: 1},
		{Name: "B", QualifiedHash: 1},
	})
	assert.ErrorIs(t, err, ErrDuplicateQualifiedHash)
}

func TestBuildRejectsDuplicateImpactHash(t *testing.T) {
	_, err := Build([]TypeMetadata{
		{Name: "A", QualifiedHash: 1, ImpactHash: 9},
		{Name: "B", QualifiedHash: 2, ImpactHash: 9},
	})
	assert.ErrorIs(t, err, ErrDuplicateImpactHash)
}

func TestByQualifiedHashAndByImpactHash(t *testing.T) {
	reg, err := Build([]TypeMetadata{
		{Name: "Vec3", QualifiedHash: 100, ImpactHash: 200},
	})
	require.NoError(t, err)

	got, err := reg.ByQualifiedHash(100)
	require.NoError(t, err)
	assert.Equal(t, "Vec3", got.Name)

	got2, err := reg.ByImpactHash(200)
	require.NoError(t, err)
	assert.Equal(t, "Vec3", got2.Name)

	_, err = reg.ByQualifiedHash(999)
	assert.ErrorIs(t, err, ErrUnknownQualifiedHash)
}

func TestUnwrapTypedef(t *testing.T) {
	reg, err := Build([]TypeMetadata{
		{Name: "MyInt", QualifiedHash: 1, PrimitiveType: PrimitiveTypedef, InnerType: intIdx(1)},
		{Name: "UInt32", QualifiedHash: 2, PrimitiveType: PrimitiveUInt32},
	})
	require.NoError(t, err)

	resolved, err := reg.UnwrapTypedef(0)
	require.NoError(t, err)
	assert.Equal(t, "UInt32", resolved.Name)
}

func TestIsSubtypeAndInheritanceChain(t *testing.T) {
	reg, err := Build([]TypeMetadata{
		{Name: "Base", QualifiedHash: 1, PrimitiveType: PrimitiveStruct},
		{Name: "Mid", QualifiedHash: 2, PrimitiveType: PrimitiveStruct, InnerType: intIdx(0)},
		{Name: "Leaf", QualifiedHash: 3, PrimitiveType: PrimitiveStruct, InnerType: intIdx(1)},
	})
	require.NoError(t, err)

	ok, err := reg.IsSubtype(0, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.IsSubtype(2, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	chain, err := reg.InheritanceChain(2)
	require.NoError(t, err)
	assert.Equal(t, []TypeIndex{2, 1, 0}, chain)
}

func TestIterFieldsAncestorFirst(t *testing.T) {
	reg, err := Build([]TypeMetadata{
		{
			Name: "Base", QualifiedHash: 1, PrimitiveType: PrimitiveStruct,
			StructFields: []StructField{{Name: "baseField"}},
		},
		{
			Name: "Leaf", QualifiedHash: 2, PrimitiveType: PrimitiveStruct, InnerType: intIdx(0),
			StructFields: []StructField{{Name: "leafField"}},
		},
	})
	require.NoError(t, err)

	fields, err := reg.IterFields(1)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "baseField", fields[0].Name)
	assert.Equal(t, "leafField", fields[1].Name)
}

func TestByIndexOutOfRange(t *testing.T) {
	reg, err := Build([]TypeMetadata{{Name: "A", QualifiedHash: 1}})
	require.NoError(t, err)
	_, err = reg.ByIndex(5)
	assert.ErrorIs(t, err, ErrUnknownIndex)
}
