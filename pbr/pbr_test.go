package pbr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packVertexWords(t *testing.T) []byte {
	t.Helper()
	words := []uint32{
		0x00000001, // packed_vertex_1: x=0
		0x00000002, // packed_vertex_2: z=2
		0x00000000, // packed_normal
		0xC0000000, // packed_tangent: w sign bits = 3
		0x01020304, // packed_color
		0x00003C00, // packed_uv: lower half = 1.0 in binary16
	}
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], w)
		buf = append(buf, tmp[:]...)
	}
	return buf
}

func TestDecodeVerticesSingleRecord(t *testing.T) {
	data := packVertexWords(t)
	verts, err := DecodeVertices(data, Vec3{}, Vec3{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	require.Len(t, verts, 1)

	v := verts[0]
	assert.InDelta(t, 1.0, float64(v.UV.X), 1e-4)
	assert.Equal(t, uint8(0x04), v.Color[0])
	assert.Equal(t, uint8(0x03), v.Color[1])
	assert.Equal(t, uint8(0x02), v.Color[2])
	assert.Equal(t, uint8(0x01), v.Color[3])
}

func TestDecodeVerticesRejectsPartialRecord(t *testing.T) {
	_, err := DecodeVertices([]byte{1, 2, 3}, Vec3{}, Vec3{})
	assert.Error(t, err)
}

func TestDecodeToBytesLengthMatchesLayout(t *testing.T) {
	data := packVertexWords(t)
	out, err := DecodeToBytes(data, 1, Vec3{}, Vec3{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	assert.Len(t, out, bytesPerVertex)
}

func TestFloat16ToFloat32Zero(t *testing.T) {
	assert.Equal(t, float32(0), float16ToFloat32(0))
}

func TestFloat16ToFloat32One(t *testing.T) {
	assert.InDelta(t, 1.0, float64(float16ToFloat32(0x3C00)), 1e-6)
}

func TestFloat16ToFloat32NegativeOne(t *testing.T) {
	assert.InDelta(t, -1.0, float64(float16ToFloat32(0xBC00)), 1e-6)
}
