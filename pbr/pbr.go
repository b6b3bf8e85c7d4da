// Package pbr decodes the packed vertex format kfc-content's PBR mesh
// pipeline stores in blob buffers: six packed uint32 words per vertex
// (11/21-bit position, three 10-bit signed normal/tangent lanes each, a
// half-float UV pair, and four packed color bytes) unpacked into plain
// float32 components.
package pbr

import (
	"encoding/binary"
	"io"
	"math"
)

// Vec3 is a plain 3-component float vector.
type Vec3 struct{ X, Y, Z float32 }

// Vec2 is a plain 2-component float vector.
type Vec2 struct{ X, Y float32 }

// Vertex is one decoded PBR vertex.
type Vertex struct {
	Position Vec3
	Normal   Vec3
	Tangent  [4]float32 // xyz signed unit vector, w handedness sign
	UV       Vec2
	Color    [4]uint8
}

// wordsPerVertex is the number of packed uint32 words the on-disk format
// spends per vertex.
const wordsPerVertex = 6

// bytesPerVertex is the encoded byte size DecodeToBytes produces per
// vertex: 3+3+4+2 float32 components plus 4 color bytes.
const bytesPerVertex = 4*12 + 4

func decodeVertex(w [wordsPerVertex]uint32, offset, scale Vec3) Vertex {
	v1, v2 := w[0], w[1]
	position := Vec3{
		X: float32(v1>>11)*scale.X + offset.X,
		Y: float32(((v1&0x7FF)<<10)|(v2>>21))*scale.Y + offset.Y,
		Z: float32(v2&0x1FFFFF)*scale.Z + offset.Z,
	}

	unpackSigned10 := func(packed uint32) (float32, float32, float32) {
		x := int32(packed<<22) >> 22
		y := int32(packed<<12) >> 22
		z := int32(packed<<2) >> 22
		return float32(x) / 511.0, float32(y) / 511.0, float32(z) / 511.0
	}

	nx, ny, nz := unpackSigned10(w[2])
	normal := Vec3{X: nx, Y: ny, Z: nz}

	tx, ty, tz := unpackSigned10(w[3])
	tangent := [4]float32{tx, ty, tz, float32(w[3] >> 30)}

	uv := Vec2{
		X: float16ToFloat32(uint16(w[5] & 0xFFFF)),
		Y: float16ToFloat32(uint16(w[5] >> 16)),
	}

	color := [4]uint8{
		uint8(w[4]),
		uint8(w[4] >> 8),
		uint8(w[4] >> 16),
		uint8(w[4] >> 24),
	}

	return Vertex{Position: position, Normal: normal, Tangent: tangent, UV: uv, Color: color}
}

// DecodeVertices unpacks every 24-byte packed vertex record in data,
// applying offset and scale to the quantized position lanes.
func DecodeVertices(data []byte, offset, scale Vec3) ([]Vertex, error) {
	if len(data)%(wordsPerVertex*4) != 0 {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]Vertex, 0, len(data)/(wordsPerVertex*4))
	for pos := 0; pos < len(data); pos += wordsPerVertex * 4 {
		var w [wordsPerVertex]uint32
		for i := range w {
			w[i] = binary.LittleEndian.Uint32(data[pos+i*4:])
		}
		out = append(out, decodeVertex(w, offset, scale))
	}
	return out, nil
}

// DecodeToBytes unpacks count packed vertices from data and re-encodes
// them as a flat interleaved float32 buffer (position, normal, tangent,
// uv) followed by four raw color bytes per vertex — the layout a GPU
// vertex buffer upload expects.
func DecodeToBytes(data []byte, count int, offset, scale Vec3) ([]byte, error) {
	if len(data) < count*wordsPerVertex*4 {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, 0, count*bytesPerVertex)
	for i := 0; i < count; i++ {
		base := i * wordsPerVertex * 4
		var w [wordsPerVertex]uint32
		for j := range w {
			w[j] = binary.LittleEndian.Uint32(data[base+j*4:])
		}
		v := decodeVertex(w, offset, scale)

		out = appendF32(out, v.Position.X, v.Position.Y, v.Position.Z)
		out = appendF32(out, v.Normal.X, v.Normal.Y, v.Normal.Z)
		out = appendF32(out, v.Tangent[0], v.Tangent[1], v.Tangent[2], v.Tangent[3])
		out = appendF32(out, v.UV.X, v.UV.Y)
		out = append(out, v.Color[0], v.Color[1], v.Color[2], v.Color[3])
	}
	return out, nil
}

func appendF32(buf []byte, vs ...float32) []byte {
	var tmp [4]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// float16ToFloat32 converts an IEEE-754 binary16 half-float to float32.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := int32(h&0x7C00) >> 10
	frac := uint32(h & 0x03FF)

	switch {
	case exp == 0 && frac == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// Subnormal half: normalize by shifting the fraction until its
		// implicit leading bit would land at the 10th position.
		for frac&0x0400 == 0 {
			frac <<= 1
			exp--
		}
		exp++
		frac &= 0x03FF
	case exp == 0x1F && frac == 0:
		return math.Float32frombits(sign | 0x7F800000)
	case exp == 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | (frac << 13))
	}

	bits := sign | (uint32(exp+112)<<23)&0x7F800000 | (frac << 13)
	return math.Float32frombits(bits)
}
