package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfcio/kfc/catalog"
	"github.com/kfcio/kfc/codec"
	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/reflection"
	"github.com/kfcio/kfc/staticmap"
)

const tCount reflection.TypeIndex = 0

func buildCountRegistry(t *testing.T) *reflection.TypeRegistry {
	t.Helper()
	reg, err := reflection.Build([]reflection.TypeMetadata{
		tCount: {
			Name: "Counter", QualifiedHash: 0xC0117E7, PrimitiveType: reflection.PrimitiveStruct,
			Size: 4, Alignment: 4,
			StructFields: []reflection.StructField{
				{Name: "count", Type: tU32Primitive(), DataOffset: 0},
			},
		},
		tU32Idx: {Name: "u32", QualifiedHash: 2, PrimitiveType: reflection.PrimitiveUInt32, Size: 4, Alignment: 4},
	})
	require.NoError(t, err)
	return reg
}

const tU32Idx reflection.TypeIndex = 1

func tU32Primitive() reflection.TypeIndex { return tU32Idx }

// writeTestCatalog builds a one-descriptor catalog at dir/test.kfc, the
// descriptor's raw bytes being a 4-byte little-endian encoding of value.
func writeTestCatalog(t *testing.T, dir string, reg *reflection.TypeRegistry, id guid.DescriptorID, value uint32) string {
	t.Helper()

	s := codec.NewStruct()
	s.Set("count", codec.UInt(uint64(value)))
	raw, err := codec.Encode(reg, tCount, codec.StructValue(s), codec.ConversionOptions{})
	require.NoError(t, err)

	descBuilder := staticmap.NewBuilder[guid.DescriptorID, catalog.DescriptorLink]()
	descBuilder.Insert(id, catalog.DescriptorLink{Offset: 0, Size: uint32(len(raw))})
	descMap := descBuilder.Build()

	blobMap := staticmap.NewBuilder[guid.ContentHash, catalog.BlobLink]().Build()

	f := &catalog.File{
		GameVersion:       "1.0.0",
		DatInfos:          []catalog.DatInfo{{}},
		BlobBuckets:       bucketsFromBlob(blobMap.Buckets()),
		BlobGuids:         blobMap.Keys(),
		BlobLinks:         blobMap.Values(),
		DescriptorBuckets: bucketsFrom(descMap.Buckets()),
		DescriptorGuids:   descMap.Keys(),
		DescriptorLinks:   descMap.Values(),
	}

	path := filepath.Join(dir, "test.kfc")
	file, err := os.Create(path)
	require.NoError(t, err)
	dataOffset, err := catalog.WriteFile(file, f, int64(len(raw)))
	require.NoError(t, err)
	_, err = file.WriteAt(raw, dataOffset)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	return path
}

func bucketsFrom(bs []staticmap.Bucket) []catalog.DescriptorBucket {
	out := make([]catalog.DescriptorBucket, len(bs))
	for i, b := range bs {
		out[i] = catalog.DescriptorBucket{Index: b.Index, Count: b.Count}
	}
	return out
}

func bucketsFromBlob(bs []staticmap.Bucket) []catalog.BlobBucket {
	out := make([]catalog.BlobBucket, len(bs))
	for i, b := range bs {
		out[i] = catalog.BlobBucket{Index: b.Index, Count: b.Count}
	}
	return out
}

func TestExportAllDecodesAndMarshalsDescriptor(t *testing.T) {
	dir := t.TempDir()
	reg := buildCountRegistry(t)

	id := guid.DescriptorID{Data: guid.Guid{7}, TypeHash: 0xC0117E7, Part: 0}
	path := writeTestCatalog(t, dir, reg, id, 42)

	exp := NewExporter(path, reg, WithWorkers(2))
	results, err := exp.ExportAll([]guid.DescriptorID{id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Contains(t, string(results[0].JSON), `"count":42`)
}

func TestExportAllUnknownDescriptorReturnsError(t *testing.T) {
	dir := t.TempDir()
	reg := buildCountRegistry(t)

	id := guid.DescriptorID{Data: guid.Guid{7}, TypeHash: 0xC0117E7, Part: 0}
	path := writeTestCatalog(t, dir, reg, id, 42)

	missing := guid.DescriptorID{Data: guid.Guid{9}, TypeHash: 0xC0117E7, Part: 0}
	exp := NewExporter(path, reg, WithWorkers(1))
	results, err := exp.ExportAll([]guid.DescriptorID{missing})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestCancelStopsFutureItems(t *testing.T) {
	dir := t.TempDir()
	reg := buildCountRegistry(t)

	id := guid.DescriptorID{Data: guid.Guid{7}, TypeHash: 0xC0117E7, Part: 0}
	path := writeTestCatalog(t, dir, reg, id, 42)

	exp := NewExporter(path, reg, WithWorkers(1))
	exp.Cancel()
	assert.True(t, exp.Cancelled())

	results, err := exp.ExportAll([]guid.DescriptorID{id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrCancelled)
}
