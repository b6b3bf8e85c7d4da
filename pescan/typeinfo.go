package pescan

import "encoding/binary"

// RawTypeInfo is the raw, pointer-laden type record as it lives in the host
// executable's image: every *Ptr field is a virtual address, resolved by
// the caller (the reflection package) via Scanner.ReadCStringAtVA /
// Scanner.ReadTypeRecordAt / Scanner.ReadNamespaceChain, not by pescan
// itself. pescan only knows how to locate and byte-decode these records; it
// has no notion of a type graph.
type RawTypeInfo struct {
	NamePtr          uint64
	NamespacePtr     uint64
	ImpactNamePtr    uint64
	InnerTypePtr     uint64
	Size             uint32
	Alignment        uint32
	ElementAlignment uint32
	FieldCount       uint32
	PrimitiveType    uint32
	Flags            uint32
	QualifiedHash    uint32
	ImpactHash       uint32
	StructFieldsPtr  uint64
	StructFieldCount uint32
	_pad1            uint32
	EnumFieldsPtr    uint64
	EnumFieldCount   uint32
	_pad2            uint32
}

// RawTypeInfoSize is the byte size of one RawTypeInfo record in the image.
const RawTypeInfoSize = 8*8 + 4*8 // 6 pointer fields + 12 u32 fields (2 of them padding) = 96 bytes

// RawNamespaceNode is one link of the null-terminated namespace chain.
type RawNamespaceNode struct {
	NamePtr   uint64
	ParentPtr uint64
}

// RawStructFieldInfo is one entry of a type's struct_fields array.
type RawStructFieldInfo struct {
	NamePtr        uint64
	TypePtr        uint64
	DataOffset     uint64
	AttributesPtr  uint64
	AttributeCount uint32
	_pad           uint32
}

// RawStructFieldAttribute is one entry of a struct field's attributes array.
type RawStructFieldAttribute struct {
	NamePtr      uint64
	NamespacePtr uint64
	TypePtr      uint64
	ValuePtr     uint64
}

// RawEnumFieldInfo is one entry of a type's enum_fields array.
type RawEnumFieldInfo struct {
	NamePtr uint64
	Value   uint64
	// 16 bytes of trailing padding, per spec.
}

const rawNamespaceNodeSize = 16
const rawStructFieldInfoSize = 8 + 8 + 8 + 8 + 4 + 4
const rawStructFieldAttributeSize = 8 * 4
const rawEnumFieldInfoSize = 8 + 8 + 16

// ReadCStringAtVA resolves va to a file offset and reads a NUL-terminated
// ASCII/UTF-8 string from it. A zero va returns "", nil (absent pointer).
func (s *Scanner) ReadCStringAtVA(va uint64) (string, error) {
	if va == 0 {
		return "", nil
	}
	fo, err := s.VAToFileOffset(va)
	if err != nil {
		return "", err
	}
	end := fo
	for end < s.size && s.data[end] != 0 {
		end++
	}
	if end >= s.size {
		return "", ErrOutsideBoundary
	}
	return string(s.data[fo:end]), nil
}

// ReadTypeTable reads the root table of count type-record pointers starting
// at tableOffset (a file offset, as returned by LocateReflectionRoot), and
// decodes the RawTypeInfo each pointer references.
func (s *Scanner) ReadTypeTable(tableOffset uint32, count uint64) ([]RawTypeInfo, error) {
	infos := make([]RawTypeInfo, 0, count)
	for i := uint64(0); i < count; i++ {
		ptrFO := tableOffset + uint32(i*8)
		va, err := s.ReadU64At(ptrFO)
		if err != nil {
			return nil, err
		}
		fo, err := s.VAToFileOffset(va)
		if err != nil {
			return nil, err
		}
		info, err := s.ReadTypeRecordAt(fo)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ReadTypeRecordAt decodes one RawTypeInfo at the given file offset.
func (s *Scanner) ReadTypeRecordAt(offset uint32) (RawTypeInfo, error) {
	b, err := s.ReadBytesAt(offset, RawTypeInfoSize)
	if err != nil {
		return RawTypeInfo{}, err
	}
	le := binary.LittleEndian
	var t RawTypeInfo
	t.NamePtr = le.Uint64(b[0:8])
	t.NamespacePtr = le.Uint64(b[8:16])
	t.ImpactNamePtr = le.Uint64(b[16:24])
	t.InnerTypePtr = le.Uint64(b[24:32])
	t.Size = le.Uint32(b[32:36])
	t.Alignment = le.Uint32(b[36:40])
	t.ElementAlignment = le.Uint32(b[40:44])
	t.FieldCount = le.Uint32(b[44:48])
	t.PrimitiveType = le.Uint32(b[48:52])
	t.Flags = le.Uint32(b[52:56])
	t.QualifiedHash = le.Uint32(b[56:60])
	t.ImpactHash = le.Uint32(b[60:64])
	t.StructFieldsPtr = le.Uint64(b[64:72])
	t.StructFieldCount = le.Uint32(b[72:76])
	t.EnumFieldsPtr = le.Uint64(b[80:88])
	t.EnumFieldCount = le.Uint32(b[88:92])
	return t, nil
}

// ReadNamespaceChain walks the null-terminated namespace linked list
// starting at va (0 means "no namespace"), returning names outermost-first.
func (s *Scanner) ReadNamespaceChain(va uint64) ([]string, error) {
	var names []string
	for va != 0 {
		fo, err := s.VAToFileOffset(va)
		if err != nil {
			return nil, err
		}
		b, err := s.ReadBytesAt(fo, rawNamespaceNodeSize)
		if err != nil {
			return nil, err
		}
		le := binary.LittleEndian
		node := RawNamespaceNode{NamePtr: le.Uint64(b[0:8]), ParentPtr: le.Uint64(b[8:16])}
		name, err := s.ReadCStringAtVA(node.NamePtr)
		if err != nil {
			return nil, err
		}
		names = append([]string{name}, names...)
		va = node.ParentPtr
	}
	return names, nil
}

// ReadStructFields decodes a type's struct_fields array.
func (s *Scanner) ReadStructFields(va uint64, count uint32) ([]RawStructFieldInfo, error) {
	if va == 0 || count == 0 {
		return nil, nil
	}
	fo, err := s.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	le := binary.LittleEndian
	out := make([]RawStructFieldInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		b, err := s.ReadBytesAt(fo+i*rawStructFieldInfoSize, rawStructFieldInfoSize)
		if err != nil {
			return nil, err
		}
		out = append(out, RawStructFieldInfo{
			NamePtr:        le.Uint64(b[0:8]),
			TypePtr:        le.Uint64(b[8:16]),
			DataOffset:     le.Uint64(b[16:24]),
			AttributesPtr:  le.Uint64(b[24:32]),
			AttributeCount: le.Uint32(b[32:36]),
		})
	}
	return out, nil
}

// ReadStructFieldAttributes decodes a field's attributes array.
func (s *Scanner) ReadStructFieldAttributes(va uint64, count uint32) ([]RawStructFieldAttribute, error) {
	if va == 0 || count == 0 {
		return nil, nil
	}
	fo, err := s.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	le := binary.LittleEndian
	out := make([]RawStructFieldAttribute, 0, count)
	for i := uint32(0); i < count; i++ {
		b, err := s.ReadBytesAt(fo+i*rawStructFieldAttributeSize, rawStructFieldAttributeSize)
		if err != nil {
			return nil, err
		}
		out = append(out, RawStructFieldAttribute{
			NamePtr:      le.Uint64(b[0:8]),
			NamespacePtr: le.Uint64(b[8:16]),
			TypePtr:      le.Uint64(b[16:24]),
			ValuePtr:     le.Uint64(b[24:32]),
		})
	}
	return out, nil
}

// ReadEnumFields decodes a type's enum_fields array.
func (s *Scanner) ReadEnumFields(va uint64, count uint32) ([]RawEnumFieldInfo, error) {
	if va == 0 || count == 0 {
		return nil, nil
	}
	fo, err := s.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	le := binary.LittleEndian
	out := make([]RawEnumFieldInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		b, err := s.ReadBytesAt(fo+i*rawEnumFieldInfoSize, rawEnumFieldInfoSize)
		if err != nil {
			return nil, err
		}
		out = append(out, RawEnumFieldInfo{
			NamePtr: le.Uint64(b[0:8]),
			Value:   le.Uint64(b[8:16]),
		})
	}
	return out, nil
}
