package reflection

import "github.com/kfcio/kfc/pescan"

// scanner is the subset of *pescan.Scanner Extract needs: reading strings,
// namespace chains, field/attribute/enum arrays, and resolving a type
// pointer back to its raw record. Kept as an interface so tests can supply
// a synthetic fixture without a real PE image.
type scanner interface {
	ReadCStringAtVA(va uint64) (string, error)
	ReadNamespaceChain(va uint64) ([]string, error)
	ReadStructFields(va uint64, count uint32) ([]pescan.RawStructFieldInfo, error)
	ReadStructFieldAttributes(va uint64, count uint32) ([]pescan.RawStructFieldAttribute, error)
	ReadEnumFields(va uint64, count uint32) ([]pescan.RawEnumFieldInfo, error)
	VAToFileOffset(va uint64) (uint32, error)
	ReadTypeRecordAt(offset uint32) (pescan.RawTypeInfo, error)
}

// Extract decodes pescan's reflection root table into registry-ready
// TypeMetadata and builds the registry.
func Extract(s *pescan.Scanner) (*TypeRegistry, error) {
	tableOffset, count, err := s.LocateReflectionRoot()
	if err != nil {
		return nil, err
	}
	raw, err := s.ReadTypeTable(tableOffset, count)
	if err != nil {
		return nil, err
	}
	return ExtractFromRaw(s, raw)
}

// ExtractFromRaw builds a TypeRegistry from an already-decoded raw type
// table, resolving every *Ptr field via s. Split out from Extract so tests
// can supply a synthetic table without a real sentinel chase.
func ExtractFromRaw(s scanner, raw []pescan.RawTypeInfo) (*TypeRegistry, error) {
	metas := make([]TypeMetadata, len(raw))
	fieldTypePtrs := make([][]uint64, len(raw))
	hashToIndex := make(map[uint32]TypeIndex, len(raw))

	for i, rt := range raw {
		m, typePtrs, err := decodeTypeMetadata(s, rt)
		if err != nil {
			return nil, err
		}
		metas[i] = m
		fieldTypePtrs[i] = typePtrs
		hashToIndex[m.QualifiedHash] = TypeIndex(i)
	}

	// InnerType and struct-field type pointers can only be resolved to an
	// index once every record's QualifiedHash is known, hence the separate
	// pass below.
	for i, rt := range raw {
		if rt.InnerTypePtr != 0 {
			idx, err := resolvePtrToIndex(s, rt.InnerTypePtr, hashToIndex)
			if err != nil {
				return nil, err
			}
			metas[i].InnerType = idx
		}
		for fi, typePtr := range fieldTypePtrs[i] {
			if typePtr == 0 {
				continue
			}
			idx, err := resolvePtrToIndex(s, typePtr, hashToIndex)
			if err != nil {
				return nil, err
			}
			if idx != nil {
				metas[i].StructFields[fi].Type = *idx
			}
		}
	}

	return Build(metas)
}

// decodeTypeMetadata decodes one raw type record into a TypeMetadata, plus
// the raw TypePtr of each struct field in declaration order (resolved to a
// TypeIndex separately, once every record's qualified hash is known).
func decodeTypeMetadata(s scanner, rt pescan.RawTypeInfo) (TypeMetadata, []uint64, error) {
	name, err := s.ReadCStringAtVA(rt.NamePtr)
	if err != nil {
		return TypeMetadata{}, nil, err
	}
	impactName, err := s.ReadCStringAtVA(rt.ImpactNamePtr)
	if err != nil {
		return TypeMetadata{}, nil, err
	}
	ns, err := s.ReadNamespaceChain(rt.NamespacePtr)
	if err != nil {
		return TypeMetadata{}, nil, err
	}

	rawFields, err := s.ReadStructFields(rt.StructFieldsPtr, rt.StructFieldCount)
	if err != nil {
		return TypeMetadata{}, nil, err
	}
	structFields := make([]StructField, 0, len(rawFields))
	typePtrs := make([]uint64, 0, len(rawFields))
	for _, f := range rawFields {
		fname, err := s.ReadCStringAtVA(f.NamePtr)
		if err != nil {
			return TypeMetadata{}, nil, err
		}
		rawAttrs, err := s.ReadStructFieldAttributes(f.AttributesPtr, f.AttributeCount)
		if err != nil {
			return TypeMetadata{}, nil, err
		}
		attrs := make([]StructFieldAttribute, 0, len(rawAttrs))
		for _, a := range rawAttrs {
			aname, err := s.ReadCStringAtVA(a.NamePtr)
			if err != nil {
				return TypeMetadata{}, nil, err
			}
			ans, err := s.ReadNamespaceChain(a.NamespacePtr)
			if err != nil {
				return TypeMetadata{}, nil, err
			}
			aval, err := s.ReadCStringAtVA(a.ValuePtr)
			if err != nil {
				return TypeMetadata{}, nil, err
			}
			attrs = append(attrs, StructFieldAttribute{Name: aname, Namespace: ans, Value: aval})
		}
		structFields = append(structFields, StructField{
			Name:       fname,
			DataOffset: f.DataOffset,
			Attributes: attrs,
		})
		typePtrs = append(typePtrs, f.TypePtr)
	}

	rawEnums, err := s.ReadEnumFields(rt.EnumFieldsPtr, rt.EnumFieldCount)
	if err != nil {
		return TypeMetadata{}, nil, err
	}
	enumFields := make([]EnumField, 0, len(rawEnums))
	for _, e := range rawEnums {
		ename, err := s.ReadCStringAtVA(e.NamePtr)
		if err != nil {
			return TypeMetadata{}, nil, err
		}
		enumFields = append(enumFields, EnumField{Name: ename, Value: e.Value})
	}

	return TypeMetadata{
		Name:             name,
		Namespace:        ns,
		ImpactName:       impactName,
		Size:             rt.Size,
		Alignment:        rt.Alignment,
		ElementAlignment: rt.ElementAlignment,
		FieldCount:       rt.FieldCount,
		PrimitiveType:    PrimitiveType(rt.PrimitiveType),
		Flags:            Flags(rt.Flags),
		QualifiedHash:    rt.QualifiedHash,
		ImpactHash:       rt.ImpactHash,
		StructFields:     structFields,
		EnumFields:       enumFields,
	}, typePtrs, nil
}

func resolvePtrToIndex(s scanner, ptr uint64, hashToIndex map[uint32]TypeIndex) (*TypeIndex, error) {
	fo, err := s.VAToFileOffset(ptr)
	if err != nil {
		return nil, err
	}
	rec, err := s.ReadTypeRecordAt(fo)
	if err != nil {
		return nil, err
	}
	idx, ok := hashToIndex[rec.QualifiedHash]
	if !ok {
		return nil, nil
	}
	return &idx, nil
}
