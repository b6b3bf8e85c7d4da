// Package catalog implements the archive's container format: a single
// header file (KFCHeader and its fifteen locator tables) describing a set
// of descriptors backed by one or more ".dat" blob shards. Reader provides
// random-access lookup by DescriptorID/ContentHash; Writer patches new
// descriptors and blobs into a copy of an existing catalog without
// rewriting the data that hasn't changed.
package catalog

import "github.com/kfcio/kfc/guid"

// Magic is the four-byte KFCHeader identifier ("KFC2" read little-endian
// as a u32).
const Magic uint32 = 0x3243464B

// Location is a pc-relative-offset table locator: Offset resolves (via
// SeekReader.ReadOffset/SeekWriter.WriteOffset) to the absolute position of
// the table's first element, Count is the element count.
type Location struct {
	Offset int64
	Count  uint32
}

// DatInfo describes one ".dat" blob shard. LargestChunkSize and Count are
// the on-disk fields; Size is a writer-only bookkeeping field tracking the
// shard's current byte length while new blobs are appended to it — it is
// not part of the 16-byte on-disk record (the retrieved reference sources
// disagree on whether a size field is persisted at all, so this package
// never serializes one; Writer recomputes it from the shard file's length
// whenever it reopens a reference catalog).
type DatInfo struct {
	LargestChunkSize uint16
	Unk0             uint32
	Count            uint32
	Size             int64
}

// DescriptorTypeBundle is one entry in the descriptor-type-bundles table:
// the span of the descriptor-index array belonging to a single distinct
// descriptor type hash, so a reader can slice out "every descriptor of
// type T" without a linear scan. The table carries one entry per distinct
// type_hash in ascending order; a bundle's position in the table, not a
// stored hash, is what keys it to the type_hash it describes.
type DescriptorTypeBundle struct {
	ByteOffset uint32
	ByteSize   uint32
	Count      uint32
}

// BlobBucket and DescriptorBucket/PreloadBucket are the static hash map
// bucket tables for the blob/descriptor/preload key spaces, mirroring
// staticmap.Bucket's on-disk shape (Index, Count) but kept as distinct
// types here since they sit directly in the header's table layout rather
// than behind a staticmap.Map's generic parameter.
type BlobBucket struct {
	Index uint32
	Count uint32
}

// BlobLink locates one blob's bytes within a dat shard.
type BlobLink struct {
	Offset   uint32
	Flags    uint16
	DatIndex uint16
}

type DescriptorBucket struct {
	Index uint32
	Count uint32
}

// DescriptorLink locates one descriptor's serialized bytes within the
// catalog's descriptor data block (the region starting at dataOffset).
type DescriptorLink struct {
	Offset uint32
	Size   uint32
}

type PreloadBucket struct {
	Index uint32
	Count uint32
}

// PreloadGuid is a bare FNV-1a hash used as the preload table's key, kept
// distinct from guid.Guid since preload entries are indexed by a 32-bit
// content-addressed hash rather than a full 128-bit identifier.
type PreloadGuid struct {
	Hash uint32
}

// PreloadLink names the descriptor a preload entry resolves to.
type PreloadLink struct {
	TypeHash2       uint32
	DescriptorIndex uint32
	Unk0            uint32
}

// File is the fully parsed in-memory form of a catalog header: every table
// the header's locators describe, plus the byte offset (dataOffset) where
// descriptor payload bytes begin.
type File struct {
	GameVersion string

	DatInfos []DatInfo

	DescriptorTypeBundles []DescriptorTypeBundle
	// DescriptorIndices holds 4-byte indices into DescriptorGuids/
	// DescriptorLinks (not copies of the keys themselves); each
	// DescriptorTypeBundle names a contiguous span of this array.
	DescriptorIndices []uint32

	BlobBuckets []BlobBucket
	BlobGuids   []guid.ContentHash
	BlobLinks   []BlobLink

	DescriptorBuckets []DescriptorBucket
	DescriptorGuids   []guid.DescriptorID
	DescriptorLinks   []DescriptorLink

	PreloadBuckets []PreloadBucket
	PreloadGuids   []PreloadGuid
	PreloadLinks   []PreloadLink

	// DataOffset is the absolute file offset where descriptor payload
	// bytes begin; it is recorded as the header's own reserved size, not
	// one of the fifteen locators (see spec §4.G — the data region follows
	// immediately after the header and all of its tables).
	DataOffset int64
	// DataSize is the total byte length of the descriptor payload region.
	DataSize int64
}
