package codec

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/reflection"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON renders v as natural JSON. Struct fields are written directly
// to the stream in insertion order rather than through a Go map, since
// encoding/json (and jsoniter) sort map keys and would otherwise lose the
// field order Struct preserves.
func MarshalJSON(reg *reflection.TypeRegistry, v Value, opts ConversionOptions) ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)
	writeValue(reg, stream, v, opts)
	if stream.Error != nil {
		return nil, stream.Error
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

// MarshalDescriptorRoot wraps a decoded descriptor struct with the three
// reserved keys an external client sees at the document root: "$type" (the
// qualified type name), "$guid" (the descriptor's canonical GUID string),
// and "$part" (its part index). The descriptor's own fields are flattened
// alongside them.
func MarshalDescriptorRoot(reg *reflection.TypeRegistry, t reflection.TypeIndex, id guid.Guid, part uint32, v Value, opts ConversionOptions) ([]byte, error) {
	if v.Kind != KindStruct {
		return nil, &WriterError{Kind: kindInvalidType, Err: fmt.Errorf("descriptor root value is not a Struct")}
	}
	meta, err := reg.ByIndex(t)
	if err != nil {
		return nil, &WriterError{Kind: kindInvalidTypeIdx, Err: err}
	}

	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField("$type")
	stream.WriteString(meta.QualifiedName())
	stream.WriteMore()
	stream.WriteObjectField("$guid")
	stream.WriteString(id.String())
	stream.WriteMore()
	stream.WriteObjectField("$part")
	stream.WriteUint32(part)

	s := v.AsStruct()
	for _, k := range s.Keys() {
		stream.WriteMore()
		stream.WriteObjectField(k)
		fv, _ := s.Get(k)
		writeValue(reg, stream, fv, opts)
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func writeValue(reg *reflection.TypeRegistry, stream *jsoniter.Stream, v Value, opts ConversionOptions) {
	switch v.Kind {
	case KindNone:
		stream.WriteNil()
	case KindBool:
		stream.WriteBool(v.AsBool())
	case KindUInt:
		stream.WriteUint64(v.AsUInt())
	case KindSInt:
		stream.WriteInt64(v.AsSInt())
	case KindFloat:
		stream.WriteFloat64(v.AsFloat())
	case KindString:
		stream.WriteString(v.AsString())
	case KindGuid:
		writeGuid(stream, v.AsGuid(), opts)
	case KindStruct:
		writeStruct(reg, stream, v.AsStruct(), opts)
	case KindArray:
		writeArray(reg, stream, v.AsArray(), opts)
	case KindVariant:
		writeVariant(reg, stream, v.AsVariant(), opts)
	}
}

func writeGuid(stream *jsoniter.Stream, g guid.Guid, opts ConversionOptions) {
	if opts.GuidAsString {
		stream.WriteString(g.String())
		return
	}
	stream.WriteObjectStart()
	stream.WriteObjectField("$guid")
	stream.WriteString(g.String())
	stream.WriteObjectEnd()
}

func writeStruct(reg *reflection.TypeRegistry, stream *jsoniter.Stream, s *Struct, opts ConversionOptions) {
	stream.WriteObjectStart()
	for i, k := range s.Keys() {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(k)
		fv, _ := s.Get(k)
		writeValue(reg, stream, fv, opts)
	}
	stream.WriteObjectEnd()
}

func writeArray(reg *reflection.TypeRegistry, stream *jsoniter.Stream, items []Value, opts ConversionOptions) {
	stream.WriteArrayStart()
	for i, item := range items {
		if i > 0 {
			stream.WriteMore()
		}
		writeValue(reg, stream, item, opts)
	}
	stream.WriteArrayEnd()
}

func writeVariant(reg *reflection.TypeRegistry, stream *jsoniter.Stream, variant *Variant, opts ConversionOptions) {
	stream.WriteObjectStart()
	stream.WriteObjectField("$type")
	if opts.Variant.HumanReadable {
		if meta, err := reg.ByIndex(variant.Type); err == nil {
			stream.WriteString(meta.QualifiedName())
		} else {
			stream.WriteUint64(uint64(variant.Type))
		}
	} else {
		stream.WriteUint64(uint64(variant.Type))
	}
	stream.WriteMore()
	stream.WriteObjectField("$value")
	writeValue(reg, stream, variant.Value, opts)
	stream.WriteObjectEnd()
}

// UnmarshalJSON parses data as the JSON materialization of type t, driven by
// reg's field layout rather than data's own key order.
func UnmarshalJSON(reg *reflection.TypeRegistry, t reflection.TypeIndex, data []byte, opts ConversionOptions) (Value, error) {
	any := jsonAPI.Get(data)
	if any.LastError() != nil {
		return Value{}, &ReaderError{Kind: kindUtf8, Err: any.LastError()}
	}
	return parseValue(reg, t, any, "", opts)
}

// UnmarshalDescriptorRoot reverses MarshalDescriptorRoot: it reads the
// reserved "$guid"/"$part" keys and decodes the remaining fields against t's
// layout. "$type" is informational only; the caller already knows t.
func UnmarshalDescriptorRoot(reg *reflection.TypeRegistry, t reflection.TypeIndex, data []byte, opts ConversionOptions) (Value, guid.Guid, uint32, error) {
	any := jsonAPI.Get(data)
	if any.LastError() != nil {
		return Value{}, guid.Guid{}, 0, &ReaderError{Kind: kindUtf8, Err: any.LastError()}
	}

	var id guid.Guid
	if guidAny := any.Get("$guid"); guidAny.ValueType() == jsoniter.StringValue {
		g, err := guid.Parse(guidAny.ToString())
		if err != nil {
			return Value{}, guid.Guid{}, 0, &ReaderError{Kind: kindMalformedGuid, Err: err}
		}
		id = g
	}
	part := uint32(any.Get("$part").ToUint64())

	v, err := parseValue(reg, t, any, "", opts)
	if err != nil {
		return Value{}, guid.Guid{}, 0, err
	}
	return v, id, part, nil
}

func parseValue(reg *reflection.TypeRegistry, t reflection.TypeIndex, any jsoniter.Any, path string, opts ConversionOptions) (Value, error) {
	meta, err := reg.ByIndex(t)
	if err != nil {
		return Value{}, &ReaderError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
	}

	switch meta.PrimitiveType {
	case reflection.PrimitiveTypedef:
		if meta.InnerType == nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType}
		}
		return parseValue(reg, *meta.InnerType, any, path, opts)

	case reflection.PrimitiveNone:
		return None(), nil

	case reflection.PrimitiveBool:
		return Bool(any.ToBool()), nil

	case reflection.PrimitiveUInt8, reflection.PrimitiveUInt16, reflection.PrimitiveUInt32, reflection.PrimitiveUInt64:
		return UInt(any.ToUint64()), nil

	case reflection.PrimitiveSInt8, reflection.PrimitiveSInt16, reflection.PrimitiveSInt32, reflection.PrimitiveSInt64:
		return SInt(any.ToInt64()), nil

	case reflection.PrimitiveFloat32, reflection.PrimitiveFloat64:
		return Float(any.ToFloat64()), nil

	case reflection.PrimitiveEnum:
		if any.ValueType() == jsoniter.StringValue {
			name := any.ToString()
			for _, f := range meta.EnumFields {
				if f.Name == name {
					return UInt(f.Value), nil
				}
			}
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidEnumValue, Err: fmt.Errorf("unknown enum member %q", name)}
		}
		return UInt(any.ToUint64()), nil

	case reflection.PrimitiveBitmask8, reflection.PrimitiveBitmask16, reflection.PrimitiveBitmask32, reflection.PrimitiveBitmask64:
		if any.ValueType() == jsoniter.ArrayValue {
			byName := make(map[string]uint64, len(meta.EnumFields))
			for _, f := range meta.EnumFields {
				byName[f.Name] = f.Value
			}
			var raw uint64
			size := any.Size()
			for i := 0; i < size; i++ {
				el := any.Get(i)
				if el.ValueType() == jsoniter.StringValue {
					bit, ok := byName[el.ToString()]
					if !ok {
						return Value{}, &ReaderError{Path: path, Kind: kindInvalidEnumValue, Err: fmt.Errorf("unknown bitmask member %q", el.ToString())}
					}
					raw |= bit
				} else {
					raw |= uint64(1) << el.ToUint64()
				}
			}
			return UInt(raw), nil
		}
		return UInt(any.ToUint64()), nil

	case reflection.PrimitiveStruct:
		fields, err := reg.IterFields(t)
		if err != nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType, Err: err}
		}
		s := NewStruct()
		for _, f := range fields {
			fieldAny := any.Get(f.Name)
			if fieldAny.ValueType() == jsoniter.InvalidValue {
				return Value{}, &ReaderError{Path: path + "." + f.Name, Kind: kindMissingField}
			}
			fv, err := parseValue(reg, f.Type, fieldAny, path+"."+f.Name, opts)
			if err != nil {
				return Value{}, err
			}
			s.Set(f.Name, fv)
		}
		return StructValue(s), nil

	case reflection.PrimitiveStaticArray, reflection.PrimitiveBlobArray:
		if meta.InnerType == nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType}
		}
		size := any.Size()
		items := make([]Value, 0, size)
		for i := 0; i < size; i++ {
			iv, err := parseValue(reg, *meta.InnerType, any.Get(i), fmt.Sprintf("%s[%d]", path, i), opts)
			if err != nil {
				return Value{}, err
			}
			items = append(items, iv)
		}
		return Array(items), nil

	case reflection.PrimitiveBlobString:
		return String(any.ToString()), nil

	case reflection.PrimitiveBlobOptional:
		if any.ValueType() == jsoniter.NilValue || any.ValueType() == jsoniter.InvalidValue {
			return None(), nil
		}
		if meta.InnerType == nil {
			return Value{}, &ReaderError{Path: path, Kind: kindInvalidType}
		}
		return parseValue(reg, *meta.InnerType, any, path, opts)

	case reflection.PrimitiveBlobVariant:
		if any.ValueType() == jsoniter.NilValue || any.ValueType() == jsoniter.InvalidValue {
			return None(), nil
		}
		concrete, err := resolveVariantType(reg, any.Get("$type"), path)
		if err != nil {
			return Value{}, err
		}
		if meta.InnerType != nil {
			ok, err := reg.IsSubtype(*meta.InnerType, concrete)
			if err != nil {
				return Value{}, &ReaderError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
			}
			if !ok {
				return Value{}, &ReaderError{Path: path, Kind: kindInvalidType, Err: fmt.Errorf("variant concrete type is not a subtype of the declared base")}
			}
		}
		inner, err := parseValue(reg, concrete, any.Get("$value"), path, opts)
		if err != nil {
			return Value{}, err
		}
		return VariantValue(concrete, inner), nil

	case reflection.PrimitiveObjectReference, reflection.PrimitiveGuid:
		var s string
		if any.ValueType() == jsoniter.ObjectValue {
			s = any.Get("$guid").ToString()
		} else {
			s = any.ToString()
		}
		g, err := guid.Parse(s)
		if err != nil {
			return Value{}, &ReaderError{Path: path, Kind: kindMalformedGuid, Err: err}
		}
		return GuidValue(g), nil

	default:
		return Value{}, &ReaderError{Path: path, Kind: kindInvalidType, Err: fmt.Errorf("unsupported primitive type %d", meta.PrimitiveType)}
	}
}

func resolveVariantType(reg *reflection.TypeRegistry, typeAny jsoniter.Any, path string) (reflection.TypeIndex, error) {
	switch typeAny.ValueType() {
	case jsoniter.StringValue:
		name := typeAny.ToString()
		for i := 0; i < reg.Len(); i++ {
			meta, err := reg.ByIndex(reflection.TypeIndex(i))
			if err != nil {
				return 0, &ReaderError{Path: path, Kind: kindInvalidTypeIdx, Err: err}
			}
			if meta.QualifiedName() == name {
				return meta.Index, nil
			}
		}
		return 0, &ReaderError{Path: path, Kind: kindInvalidTypeName, Err: fmt.Errorf("unknown qualified type name %q", name)}
	case jsoniter.NumberValue:
		return reflection.TypeIndex(typeAny.ToInt()), nil
	default:
		return 0, &ReaderError{Path: path, Kind: kindInvalidType, Err: fmt.Errorf("variant is missing \"$type\"")}
	}
}
