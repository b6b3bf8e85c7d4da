package codec

import (
	"fmt"
	"math"

	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/reflection"
)

// Decode walks data, a packed descriptor buffer, driven by t's type graph
// in reg, producing a structured Value. It is the mirror of Encode: for any
// value obtained by decoding unmutated bytes, re-encoding MUST reproduce
// them exactly.
func Decode(reg *reflection.TypeRegistry, t reflection.TypeIndex, data []byte, opts ConversionOptions) (Value, error) {
	return decodeAt(reg, t, data, 0, "", opts)
}

func decodeAt(reg *reflection.TypeRegistry, t reflection.TypeIndex, data []byte, offset int, path string, opts ConversionOptions) (Value, error) {
	meta, err := reg.ByIndex(t)
	if err != nil {
		return Value{}, &ReaderError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
	}

	switch meta.PrimitiveType {
	case reflection.PrimitiveTypedef:
		if meta.InnerType == nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType}
		}
		return decodeAt(reg, *meta.InnerType, data, offset, path, opts)

	case reflection.PrimitiveNone:
		return None(), nil

	case reflection.PrimitiveBool:
		b, err := readByte(data, offset, path)
		if err != nil {
			return Value{}, err
		}
		return Bool(b != 0), nil

	case reflection.PrimitiveUInt8, reflection.PrimitiveUInt16, reflection.PrimitiveUInt32, reflection.PrimitiveUInt64:
		raw, err := readUint(data, offset, scalarWidth(meta.PrimitiveType), path)
		if err != nil {
			return Value{}, err
		}
		return UInt(raw), nil

	case reflection.PrimitiveSInt8, reflection.PrimitiveSInt16, reflection.PrimitiveSInt32, reflection.PrimitiveSInt64:
		raw, err := readUint(data, offset, scalarWidth(meta.PrimitiveType), path)
		if err != nil {
			return Value{}, err
		}
		return SInt(signExtend(raw, scalarWidth(meta.PrimitiveType))), nil

	case reflection.PrimitiveFloat32, reflection.PrimitiveFloat64:
		raw, err := readUint(data, offset, scalarWidth(meta.PrimitiveType), path)
		if err != nil {
			return Value{}, err
		}
		return Float(bitsToFloat(raw, scalarWidth(meta.PrimitiveType))), nil

	case reflection.PrimitiveEnum:
		width := int(meta.Size)
		raw, err := readUint(data, offset, width, path)
		if err != nil {
			return Value{}, err
		}
		if opts.EnumRepr == EnumAsName {
			for _, f := range meta.EnumFields {
				if f.Value == raw {
					return String(f.Name), nil
				}
			}
		}
		return UInt(raw), nil

	case reflection.PrimitiveBitmask8, reflection.PrimitiveBitmask16, reflection.PrimitiveBitmask32, reflection.PrimitiveBitmask64:
		width := scalarWidth(meta.PrimitiveType)
		raw, err := readUint(data, offset, width, path)
		if err != nil {
			return Value{}, err
		}
		if opts.BitmaskRepr == BitmaskAsNames {
			return Array(decodeBitmaskNames(meta, raw, width)), nil
		}
		return UInt(raw), nil

	case reflection.PrimitiveStruct:
		fields, err := reg.IterFields(t)
		if err != nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType, Err: err}
		}
		s := NewStruct()
		for _, f := range fields {
			v, err := decodeAt(reg, f.Type, data, offset+int(f.DataOffset), path+"."+f.Name, opts)
			if err != nil {
				return Value{}, err
			}
			s.Set(f.Name, v)
		}
		return StructValue(s), nil

	case reflection.PrimitiveStaticArray:
		if meta.InnerType == nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType}
		}
		items := make([]Value, 0, meta.FieldCount)
		stride := int(meta.ElementAlignment)
		for i := 0; i < int(meta.FieldCount); i++ {
			v, err := decodeAt(reg, *meta.InnerType, data, offset+i*stride, fmt.Sprintf("%s[%d]", path, i), opts)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items), nil

	case reflection.PrimitiveBlobArray:
		return decodeBlobArray(reg, meta, data, offset, path, opts)

	case reflection.PrimitiveBlobString:
		return decodeBlobString(data, offset, path)

	case reflection.PrimitiveBlobOptional:
		return decodeBlobOptional(reg, meta, data, offset, path, opts)

	case reflection.PrimitiveBlobVariant:
		return decodeBlobVariant(reg, meta, data, offset, path, opts)

	case reflection.PrimitiveObjectReference, reflection.PrimitiveGuid:
		g, err := readGuid(data, offset, path)
		if err != nil {
			return Value{}, err
		}
		return fromGuid(g, opts), nil

	default:
		return Value{}, &ReaderError{Path: path, Kind: kindInvalidType, Err: fmt.Errorf("unsupported primitive type %d", meta.PrimitiveType)}
	}
}

func decodeBitmaskNames(meta *reflection.TypeMetadata, raw uint64, width int) []Value {
	named := make(map[uint64]string, len(meta.EnumFields))
	for _, f := range meta.EnumFields {
		named[f.Value] = f.Name
	}
	var out []Value
	for bit := 0; bit < width*8; bit++ {
		mask := uint64(1) << uint(bit)
		if raw&mask == 0 {
			continue
		}
		if name, ok := named[mask]; ok {
			out = append(out, String(name))
		} else {
			out = append(out, UInt(uint64(bit)))
		}
	}
	return out
}

func decodeBlobArray(reg *reflection.TypeRegistry, meta *reflection.TypeMetadata, data []byte, offset int, path string, opts ConversionOptions) (Value, error) {
	if offset+blobHeaderCellSize > len(data) {
		return Value{}, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	hdr := readBlobHeader(data, offset)
	length := hdr.A
	if hdr.SelfRelativeOffset == 0 {
		if length != 0 {
			return Value{}, &ReaderError{Path: path, Kind: kindUnexpectedEOF, Err: fmt.Errorf("zero blob array offset with nonzero length")}
		}
		return Array(nil), nil
	}
	if meta.InnerType == nil {
		return Value{}, &ReaderError{Path: path, Kind: kindInvalidType}
	}
	elemMeta, err := reg.ByIndex(*meta.InnerType)
	if err != nil {
		return Value{}, &ReaderError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
	}
	pos := offset + int(hdr.SelfRelativeOffset)
	items := make([]Value, 0, length)
	for i := uint32(0); i < length; i++ {
		pos = alignUp(pos, int(elemMeta.Alignment))
		v, err := decodeAt(reg, *meta.InnerType, data, pos, fmt.Sprintf("%s[%d]", path, i), opts)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		pos += int(elemMeta.Size)
	}
	return Array(items), nil
}

func decodeBlobString(data []byte, offset int, path string) (Value, error) {
	if offset+blobHeaderCellSize > len(data) {
		return Value{}, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	hdr := readBlobHeader(data, offset)
	if hdr.SelfRelativeOffset == 0 {
		return String(""), nil
	}
	pos := offset + int(hdr.SelfRelativeOffset)
	end := pos + int(hdr.A)
	if end > len(data) || pos < 0 {
		return Value{}, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	return String(string(data[pos:end])), nil
}

func decodeBlobOptional(reg *reflection.TypeRegistry, meta *reflection.TypeMetadata, data []byte, offset int, path string, opts ConversionOptions) (Value, error) {
	if offset+blobHeaderCellSize > len(data) {
		return Value{}, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	hdr := readBlobHeader(data, offset)
	if hdr.A == 0 {
		return None(), nil
	}
	if meta.InnerType == nil {
		return Value{}, &ReaderError{Path: path, Kind: kindInvalidType}
	}
	pos := offset + int(hdr.SelfRelativeOffset)
	return decodeAt(reg, *meta.InnerType, data, pos, path, opts)
}

func decodeBlobVariant(reg *reflection.TypeRegistry, meta *reflection.TypeMetadata, data []byte, offset int, path string, opts ConversionOptions) (Value, error) {
	if offset+blobHeaderCellSize > len(data) {
		return Value{}, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	hdr := readBlobHeader(data, offset)
	if hdr.SelfRelativeOffset == 0 {
		return None(), nil
	}
	concrete := reflection.TypeIndex(hdr.A)
	if meta.InnerType != nil {
		ok, err := reg.IsSubtype(*meta.InnerType, concrete)
		if err != nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
		}
		if !ok {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType, Err: fmt.Errorf("variant concrete type is not a subtype of the declared base")}
		}
	}
	pos := offset + int(hdr.SelfRelativeOffset)
	inner, err := decodeAt(reg, concrete, data, pos, path, opts)
	if err != nil {
		return Value{}, err
	}
	return VariantValue(concrete, inner), nil
}

func readByte(data []byte, offset int, path string) (byte, error) {
	if offset < 0 || offset >= len(data) {
		return 0, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	return data[offset], nil
}

func readUint(data []byte, offset, width int, path string) (uint64, error) {
	if width == 0 || offset < 0 || offset+width > len(data) {
		return 0, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(data[offset+i]) << (8 * i)
	}
	return v, nil
}

func readGuid(data []byte, offset int, path string) (guid.Guid, error) {
	if offset < 0 || offset+16 > len(data) {
		return guid.Guid{}, &ReaderError{Path: path, Kind: kindUnexpectedEOF}
	}
	var g guid.Guid
	copy(g[:], data[offset:offset+16])
	return g, nil
}

// fromGuid mirrors kfc-resource's from_guid: a none GUID collapses to None
// regardless of options, otherwise guid_as_string picks a string or a
// structured guid.
func fromGuid(g guid.Guid, opts ConversionOptions) Value {
	switch {
	case g.IsNone():
		return None()
	case opts.GuidAsString:
		return String(g.String())
	default:
		return GuidValue(g)
	}
}

func signExtend(raw uint64, width int) int64 {
	bits := uint(width * 8)
	shift := 64 - bits
	return int64(raw<<shift) >> shift
}

func bitsToFloat(raw uint64, width int) float64 {
	if width == 4 {
		return float64(math.Float32frombits(uint32(raw)))
	}
	return math.Float64frombits(raw)
}

func alignUp(pos, align int) int {
	if align <= 1 {
		return pos
	}
	rem := pos % align
	if rem == 0 {
		return pos
	}
	return pos + (align - rem)
}
