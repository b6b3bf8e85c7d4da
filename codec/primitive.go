package codec

import "github.com/kfcio/kfc/reflection"

// scalarWidth returns the byte width of a fixed-size scalar primitive, or 0
// if p isn't one (structs, arrays, blob containers compute their own size).
func scalarWidth(p reflection.PrimitiveType) int {
	switch p {
	case reflection.PrimitiveBool, reflection.PrimitiveUInt8, reflection.PrimitiveSInt8, reflection.PrimitiveBitmask8:
		return 1
	case reflection.PrimitiveUInt16, reflection.PrimitiveSInt16, reflection.PrimitiveBitmask16:
		return 2
	case reflection.PrimitiveUInt32, reflection.PrimitiveSInt32, reflection.PrimitiveFloat32, reflection.PrimitiveBitmask32:
		return 4
	case reflection.PrimitiveUInt64, reflection.PrimitiveSInt64, reflection.PrimitiveFloat64, reflection.PrimitiveBitmask64:
		return 8
	case reflection.PrimitiveGuid:
		return 16
	default:
		return 0
	}
}

func isBitmask(p reflection.PrimitiveType) bool {
	switch p {
	case reflection.PrimitiveBitmask8, reflection.PrimitiveBitmask16, reflection.PrimitiveBitmask32, reflection.PrimitiveBitmask64:
		return true
	default:
		return false
	}
}

func isSigned(p reflection.PrimitiveType) bool {
	switch p {
	case reflection.PrimitiveSInt8, reflection.PrimitiveSInt16, reflection.PrimitiveSInt32, reflection.PrimitiveSInt64:
		return true
	default:
		return false
	}
}

func isFloat(p reflection.PrimitiveType) bool {
	return p == reflection.PrimitiveFloat32 || p == reflection.PrimitiveFloat64
}

// blobHeaderCellSize is the fixed 16-byte header cell every blob-backed
// container field occupies at its declared struct offset.
const blobHeaderCellSize = 16

// blobHeader is the decoded {self_relative_offset, a, b} triple shared by
// every blob container's 16-byte header cell; a/b's meaning depends on the
// container kind (length+capacity, present flag, or type index).
type blobHeader struct {
	SelfRelativeOffset uint32
	A                  uint32
	B                  uint32
}

func readBlobHeader(data []byte, cellOffset int) blobHeader {
	return blobHeader{
		SelfRelativeOffset: leU32(data[cellOffset : cellOffset+4]),
		A:                  leU32(data[cellOffset+4 : cellOffset+8]),
		B:                  leU32(data[cellOffset+8 : cellOffset+12]),
	}
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLeU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
