package codec

import (
	"fmt"
	"math"

	"github.com/kfcio/kfc/reflection"
)

// Encode walks v, a structured Value, driven by t's type graph in reg,
// producing the packed descriptor bytes Decode would have read it from.
func Encode(reg *reflection.TypeRegistry, t reflection.TypeIndex, v Value, opts ConversionOptions) ([]byte, error) {
	meta, err := reg.ByIndex(t)
	if err != nil {
		return nil, &WriterError{Kind: kindInvalidTypeIdx, Err: err}
	}
	enc := newEncoder(int(meta.Size))
	if err := encodeAt(reg, t, v, enc, 0, "", opts); err != nil {
		return nil, err
	}
	return enc.buf, nil
}

func encodeAt(reg *reflection.TypeRegistry, t reflection.TypeIndex, v Value, enc *encoder, offset int, path string, opts ConversionOptions) error {
	meta, err := reg.ByIndex(t)
	if err != nil {
		return &WriterError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
	}

	switch meta.PrimitiveType {
	case reflection.PrimitiveTypedef:
		if meta.InnerType == nil {
			return &WriterError{Path: path, Kind: kindInvalidType}
		}
		return encodeAt(reg, *meta.InnerType, v, enc, offset, path, opts)

	case reflection.PrimitiveNone:
		return nil

	case reflection.PrimitiveBool:
		if v.Kind != KindBool {
			return wrongKind(path, "Bool", v.Kind)
		}
		b := byte(0)
		if v.AsBool() {
			b = 1
		}
		enc.writeAt(offset, []byte{b})
		return nil

	case reflection.PrimitiveUInt8, reflection.PrimitiveUInt16, reflection.PrimitiveUInt32, reflection.PrimitiveUInt64:
		if v.Kind != KindUInt {
			return wrongKind(path, "UInt", v.Kind)
		}
		writeUint(enc, offset, v.AsUInt(), scalarWidth(meta.PrimitiveType))
		return nil

	case reflection.PrimitiveSInt8, reflection.PrimitiveSInt16, reflection.PrimitiveSInt32, reflection.PrimitiveSInt64:
		if v.Kind != KindSInt {
			return wrongKind(path, "SInt", v.Kind)
		}
		writeUint(enc, offset, uint64(v.AsSInt()), scalarWidth(meta.PrimitiveType))
		return nil

	case reflection.PrimitiveFloat32:
		if v.Kind != KindFloat {
			return wrongKind(path, "Float", v.Kind)
		}
		writeUint(enc, offset, uint64(math.Float32bits(float32(v.AsFloat()))), 4)
		return nil

	case reflection.PrimitiveFloat64:
		if v.Kind != KindFloat {
			return wrongKind(path, "Float", v.Kind)
		}
		writeUint(enc, offset, math.Float64bits(v.AsFloat()), 8)
		return nil

	case reflection.PrimitiveEnum:
		raw, err := enumRawValue(meta, v, path)
		if err != nil {
			return err
		}
		writeUint(enc, offset, raw, int(meta.Size))
		return nil

	case reflection.PrimitiveBitmask8, reflection.PrimitiveBitmask16, reflection.PrimitiveBitmask32, reflection.PrimitiveBitmask64:
		raw, err := bitmaskRawValue(meta, v, path)
		if err != nil {
			return err
		}
		writeUint(enc, offset, raw, scalarWidth(meta.PrimitiveType))
		return nil

	case reflection.PrimitiveStruct:
		if v.Kind != KindStruct {
			return wrongKind(path, "Struct", v.Kind)
		}
		fields, err := reg.IterFields(t)
		if err != nil {
			return &WriterError{Path: path, Kind: kindInvalidType, Err: err}
		}
		for _, f := range fields {
			fv, ok := v.AsStruct().Get(f.Name)
			if !ok {
				return &WriterError{Path: path + "." + f.Name, Kind: kindMissingField}
			}
			if err := encodeAt(reg, f.Type, fv, enc, offset+int(f.DataOffset), path+"."+f.Name, opts); err != nil {
				return err
			}
		}
		return nil

	case reflection.PrimitiveStaticArray:
		if v.Kind != KindArray {
			return wrongKind(path, "Array", v.Kind)
		}
		if meta.InnerType == nil {
			return &WriterError{Path: path, Kind: kindInvalidType}
		}
		items := v.AsArray()
		if len(items) != int(meta.FieldCount) {
			return &WriterError{Path: path, Kind: kindIncompatibleType, Got: fmt.Sprintf("len=%d", len(items)), Want: fmt.Sprintf("len=%d", meta.FieldCount)}
		}
		stride := int(meta.ElementAlignment)
		for i, item := range items {
			if err := encodeAt(reg, *meta.InnerType, item, enc, offset+i*stride, fmt.Sprintf("%s[%d]", path, i), opts); err != nil {
				return err
			}
		}
		return nil

	case reflection.PrimitiveBlobArray:
		return encodeBlobArray(reg, meta, v, enc, offset, path, opts)

	case reflection.PrimitiveBlobString:
		return encodeBlobString(v, enc, offset, path)

	case reflection.PrimitiveBlobOptional:
		return encodeBlobOptional(reg, meta, v, enc, offset, path, opts)

	case reflection.PrimitiveBlobVariant:
		return encodeBlobVariant(reg, meta, v, enc, offset, path, opts)

	case reflection.PrimitiveObjectReference, reflection.PrimitiveGuid:
		if v.Kind != KindGuid {
			return wrongKind(path, "Guid", v.Kind)
		}
		g := v.AsGuid()
		enc.writeAt(offset, g[:])
		return nil

	default:
		return &WriterError{Path: path, Kind: kindInvalidType, Err: fmt.Errorf("unsupported primitive type %d", meta.PrimitiveType)}
	}
}

func wrongKind(path, want string, got Kind) error {
	return &WriterError{Path: path, Kind: kindIncompatibleType, Got: kindName(got), Want: want}
}

func kindName(k Kind) string {
	switch k {
	case KindNone:
		return "None"
	case KindBool:
		return "Bool"
	case KindUInt:
		return "UInt"
	case KindSInt:
		return "SInt"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindGuid:
		return "Guid"
	case KindStruct:
		return "Struct"
	case KindArray:
		return "Array"
	case KindVariant:
		return "Variant"
	default:
		return "Unknown"
	}
}

func writeUint(enc *encoder, offset int, v uint64, width int) {
	b := make([]byte, width)
	for i := 0; i < width; i++ {
		b[i] = byte(v >> (8 * i))
	}
	enc.writeAt(offset, b)
}

func enumRawValue(meta *reflection.TypeMetadata, v Value, path string) (uint64, error) {
	switch v.Kind {
	case KindUInt:
		return v.AsUInt(), nil
	case KindString:
		for _, f := range meta.EnumFields {
			if f.Name == v.AsString() {
				return f.Value, nil
			}
		}
		return 0, &WriterError{Path: path, Kind: kindInvalidEnumValue, Got: v.AsString()}
	default:
		return 0, wrongKind(path, "UInt or String", v.Kind)
	}
}

func bitmaskRawValue(meta *reflection.TypeMetadata, v Value, path string) (uint64, error) {
	switch v.Kind {
	case KindUInt:
		return v.AsUInt(), nil
	case KindArray:
		named := make(map[string]uint64, len(meta.EnumFields))
		for _, f := range meta.EnumFields {
			named[f.Name] = f.Value
		}
		var raw uint64
		for _, item := range v.AsArray() {
			switch item.Kind {
			case KindString:
				bit, ok := named[item.AsString()]
				if !ok {
					return 0, &WriterError{Path: path, Kind: kindInvalidEnumValue, Got: item.AsString()}
				}
				raw |= bit
			case KindUInt:
				raw |= uint64(1) << uint(item.AsUInt())
			default:
				return 0, wrongKind(path, "String or UInt bit", item.Kind)
			}
		}
		return raw, nil
	default:
		return 0, wrongKind(path, "UInt or Array", v.Kind)
	}
}

func encodeBlobArray(reg *reflection.TypeRegistry, meta *reflection.TypeMetadata, v Value, enc *encoder, offset int, path string, opts ConversionOptions) error {
	if v.Kind != KindArray {
		return wrongKind(path, "Array", v.Kind)
	}
	items := v.AsArray()
	if len(items) == 0 {
		enc.writeAt(offset, make([]byte, blobHeaderCellSize))
		return nil
	}
	if meta.InnerType == nil {
		return &WriterError{Path: path, Kind: kindInvalidType}
	}
	elemMeta, err := reg.ByIndex(*meta.InnerType)
	if err != nil {
		return &WriterError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
	}
	pos := enc.appendAligned(int(elemMeta.Alignment))
	enc.growTo(pos + len(items)*int(elemMeta.Size))

	length := uint32(len(items))
	writeBlobHeader(enc, offset, uint32(pos-offset), length, length)

	for i, item := range items {
		elemOffset := pos + i*int(elemMeta.Size)
		if err := encodeAt(reg, *meta.InnerType, item, enc, elemOffset, fmt.Sprintf("%s[%d]", path, i), opts); err != nil {
			return err
		}
	}
	return nil
}

func encodeBlobString(v Value, enc *encoder, offset int, path string) error {
	if v.Kind != KindString {
		return wrongKind(path, "String", v.Kind)
	}
	s := v.AsString()
	if len(s) == 0 {
		enc.writeAt(offset, make([]byte, blobHeaderCellSize))
		return nil
	}
	pos := enc.appendAligned(1)
	enc.writeAt(pos, []byte(s))
	writeBlobHeader(enc, offset, uint32(pos-offset), uint32(len(s)), 0)
	return nil
}

func encodeBlobOptional(reg *reflection.TypeRegistry, meta *reflection.TypeMetadata, v Value, enc *encoder, offset int, path string, opts ConversionOptions) error {
	if v.Kind == KindNone {
		enc.writeAt(offset, make([]byte, blobHeaderCellSize))
		return nil
	}
	if meta.InnerType == nil {
		return &WriterError{Path: path, Kind: kindInvalidType}
	}
	innerMeta, err := reg.ByIndex(*meta.InnerType)
	if err != nil {
		return &WriterError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
	}
	pos := enc.appendAligned(int(innerMeta.Alignment))
	enc.growTo(pos + int(innerMeta.Size))
	writeBlobHeader(enc, offset, uint32(pos-offset), 1, 0)
	return encodeAt(reg, *meta.InnerType, v, enc, pos, path, opts)
}

func encodeBlobVariant(reg *reflection.TypeRegistry, meta *reflection.TypeMetadata, v Value, enc *encoder, offset int, path string, opts ConversionOptions) error {
	if v.Kind == KindNone {
		enc.writeAt(offset, make([]byte, blobHeaderCellSize))
		return nil
	}
	if v.Kind != KindVariant {
		return wrongKind(path, "Variant", v.Kind)
	}
	variant := v.AsVariant()
	if meta.InnerType != nil {
		ok, err := reg.IsSubtype(*meta.InnerType, variant.Type)
		if err != nil {
			return &WriterError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
		}
		if !ok {
			return &WriterError{Path: path, Kind: kindVariantNotSubtype}
		}
	}
	concreteMeta, err := reg.ByIndex(variant.Type)
	if err != nil {
		return &WriterError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
	}
	pos := enc.appendAligned(int(concreteMeta.Alignment))
	enc.growTo(pos + int(concreteMeta.Size))
	writeBlobHeader(enc, offset, uint32(pos-offset), uint32(variant.Type), 0)
	return encodeAt(reg, variant.Type, variant.Value, enc, pos, path, opts)
}

func writeBlobHeader(enc *encoder, offset int, selfRelOffset, a, b uint32) {
	cell := make([]byte, blobHeaderCellSize)
	putLeU32(cell[0:4], selfRelOffset)
	putLeU32(cell[4:8], a)
	putLeU32(cell[8:12], b)
	enc.writeAt(offset, cell)
}
