package guid

import (
	"encoding/binary"

	"github.com/kfcio/kfc/khash"
)

// ContentHash is a BlobGuid: four little-endian u32 lanes (size, h0, h1, h2)
// packed into a 16-byte slot. The size lane is part of the identity, not
// metadata — it must equal the byte length of the blob it names.
type ContentHash Guid

// NoneContentHash is the all-zero content hash, naming an empty/none blob.
var NoneContentHash = ContentHash{}

// NewContentHash builds a ContentHash from its four constituent lanes.
func NewContentHash(size, h0, h1, h2 uint32) ContentHash {
	var c ContentHash
	binary.LittleEndian.PutUint32(c[0:4], size)
	binary.LittleEndian.PutUint32(c[4:8], h0)
	binary.LittleEndian.PutUint32(c[8:12], h1)
	binary.LittleEndian.PutUint32(c[12:16], h2)
	return c
}

// HashContent computes the canonical ContentHash of data's bytes.
func HashContent(data []byte) ContentHash {
	digest := khash.ContentHash(data)
	return ContentHash(digest)
}

// Size returns the byte-length lane.
func (c ContentHash) Size() uint32 {
	return binary.LittleEndian.Uint32(c[0:4])
}

// IsNone reports whether c is the all-zero content hash.
func (c ContentHash) IsNone() bool {
	return c == ContentHash{}
}

// Hash32 returns the 32-bit FNV-1a hash of the raw 16 bytes.
func (c ContentHash) Hash32() uint32 {
	return khash.FNV1a(c[:])
}

// StaticHash implements staticmap.Hashable: the 4 bytes at offset 4 (the h0
// lane), read little-endian.
func (c ContentHash) StaticHash() uint32 {
	return binary.LittleEndian.Uint32(c[4:8])
}

// String renders the canonical mixed-endian hex form.
func (c ContentHash) String() string {
	return Guid(c).String()
}

// ParseContentHash parses the canonical hex form into a ContentHash.
func ParseContentHash(s string) (ContentHash, error) {
	g, err := Parse(s)
	if err != nil {
		return ContentHash{}, err
	}
	return ContentHash(g), nil
}

// AsDescriptorID reinterprets c as the GUID portion of a DescriptorID.
func (c ContentHash) AsDescriptorID(typeHash uint32, part uint32) DescriptorID {
	return DescriptorID{Data: Guid(c), TypeHash: typeHash, Part: part}
}

// ContentHashFromBytes decodes a raw 16-byte ContentHash from buf.
func ContentHashFromBytes(buf []byte) ContentHash {
	var c ContentHash
	copy(c[:], buf)
	return c
}
