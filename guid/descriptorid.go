package guid

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/kfcio/kfc/khash"
)

// DescriptorID identifies one descriptor, or one part of a multi-part
// descriptor sharing a single Guid.
type DescriptorID struct {
	Data     Guid
	TypeHash uint32
	Part     uint32
}

// NoneDescriptorID is the all-zero descriptor id.
var NoneDescriptorID = DescriptorID{}

// ParseDescriptorID parses the bare `8-4-4-4-12` guid form, with the type
// hash and part supplied out of band (the canonical text form alone does
// not carry them).
func ParseDescriptorID(s string, typeHash, part uint32) (DescriptorID, error) {
	g, err := Parse(s)
	if err != nil {
		return DescriptorID{}, err
	}
	return DescriptorID{Data: g, TypeHash: typeHash, Part: part}, nil
}

// ParseQualifiedDescriptorID parses the deprecated but still-supported
// `GUID_{type_hash:8hex}_{part:decimal}` qualified form.
func ParseQualifiedDescriptorID(s string) (DescriptorID, error) {
	if len(s) < 47 {
		return DescriptorID{}, ErrMalformed
	}
	g, err := Parse(s[:36])
	if err != nil {
		return DescriptorID{}, err
	}
	if s[36] != '_' || s[45] != '_' {
		return DescriptorID{}, ErrMalformed
	}
	typeHashBytes, err := hexBytes(s, 37, 4)
	if err != nil {
		return DescriptorID{}, err
	}
	typeHash := binary.BigEndian.Uint32(typeHashBytes)

	part, err := parseDecU32(s[46:])
	if err != nil {
		return DescriptorID{}, err
	}

	return DescriptorID{Data: g, TypeHash: typeHash, Part: part}, nil
}

// String renders the bare guid form (type hash and part are not included).
func (d DescriptorID) String() string {
	return d.Data.String()
}

// QualifiedString renders the `GUID_{type_hash:8hex}_{part:decimal}` form.
func (d DescriptorID) QualifiedString() string {
	return fmt.Sprintf("%s_%s_%s", d.Data.String(), formatHash32(d.TypeHash), strconv.FormatUint(uint64(d.Part), 10))
}

// IsNone reports whether d is the all-zero descriptor id.
func (d DescriptorID) IsNone() bool {
	return d.Data.IsNone() && d.TypeHash == 0 && d.Part == 0
}

// Hash32 returns the underlying Guid's FNV-1a hash.
func (d DescriptorID) Hash32() uint32 {
	return d.Data.Hash32()
}

// AsContentHash reinterprets the GUID portion as a ContentHash.
func (d DescriptorID) AsContentHash() ContentHash {
	return ContentHash(d.Data)
}

// WithTypeHash returns a copy of d with TypeHash replaced.
func (d DescriptorID) WithTypeHash(typeHash uint32) DescriptorID {
	d.TypeHash = typeHash
	return d
}

// WithPart returns a copy of d with Part replaced.
func (d DescriptorID) WithPart(part uint32) DescriptorID {
	d.Part = part
	return d
}

// StaticHash implements staticmap.Hashable: FNV-1a of
// (type_hash ∥ part), both little-endian, seeded by the Guid's first 4
// bytes (also little-endian).
func (d DescriptorID) StaticHash() uint32 {
	seed := binary.LittleEndian.Uint32(d.Data[0:4])

	var rest [8]byte
	binary.LittleEndian.PutUint32(rest[0:4], d.TypeHash)
	binary.LittleEndian.PutUint32(rest[4:8], d.Part)

	return khash.FNV1aSeed(rest[:], seed)
}

// DescriptorIDSize is the on-disk size of a DescriptorID record: 16 bytes
// of Guid data, a u32 type hash, a u32 part number, and 8 bytes of padding.
const DescriptorIDSize = 32

// ReadDescriptorID decodes a 32-byte on-disk DescriptorID record from r.
func ReadDescriptorID(r interface {
	Bytes(n int) ([]byte, error)
	U32() (uint32, error)
	Padding(n int) error
}) (DescriptorID, error) {
	data, err := r.Bytes(16)
	if err != nil {
		return DescriptorID{}, err
	}
	typeHash, err := r.U32()
	if err != nil {
		return DescriptorID{}, err
	}
	part, err := r.U32()
	if err != nil {
		return DescriptorID{}, err
	}
	if err := r.Padding(8); err != nil {
		return DescriptorID{}, err
	}

	var g Guid
	copy(g[:], data)
	return DescriptorID{Data: g, TypeHash: typeHash, Part: part}, nil
}

// WriteDescriptorID encodes d as its 32-byte on-disk record.
func WriteDescriptorID(w interface {
	Bytes([]byte) error
	U32(uint32) error
	Padding(n int) error
}, d DescriptorID) error {
	if err := w.Bytes(d.Data[:]); err != nil {
		return err
	}
	if err := w.U32(d.TypeHash); err != nil {
		return err
	}
	if err := w.U32(d.Part); err != nil {
		return err
	}
	return w.Padding(8)
}
