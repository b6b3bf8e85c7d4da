package catalog

import (
	"errors"
	"fmt"
	"io"

	"github.com/kfcio/kfc/binio"
	"github.com/kfcio/kfc/guid"
)

// ErrInvalidMagic is returned when the header's magic field doesn't match
// Magic.
var ErrInvalidMagic = errors.New("catalog: invalid magic")

// locationCount is the number of pc-relative table locators in a header,
// in the fixed order the format commits to: version, dat_infos, two
// reserved/unused slots, descriptor_type_bundles, descriptor_indices,
// blob_buckets, blob_guids, blob_links, descriptor_buckets,
// descriptor_guids, descriptor_links, preload_buckets, preload_guids,
// preload_links.
const locationCount = 15

// ReadFile parses a complete catalog header and every table it locates.
func ReadFile(rs io.ReadSeeker) (*File, error) {
	r := binio.NewSeekReader(rs)

	magic, err := r.U32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: got %#x", ErrInvalidMagic, magic)
	}

	size, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.U32(); err != nil { // constant 12
		return nil, err
	}
	if err := r.Padding(4); err != nil {
		return nil, err
	}

	locs := make([]Location, locationCount)
	for i := range locs {
		loc, err := readLocation(r)
		if err != nil {
			return nil, err
		}
		locs[i] = loc
	}

	const (
		locVersion = iota
		locDatInfos
		locUnused0
		locUnused1
		locDescriptorTypeBundles
		locDescriptorIndices
		locBlobBuckets
		locBlobGuids
		locBlobLinks
		locDescriptorBuckets
		locDescriptorGuids
		locDescriptorLinks
		locPreloadBuckets
		locPreloadGuids
		locPreloadLinks
	)

	f := &File{}

	if locs[locVersion].Count > 0 {
		if _, err := r.S.Seek(locs[locVersion].Offset, io.SeekStart); err != nil {
			return nil, err
		}
		v, err := r.String(int(locs[locVersion].Count))
		if err != nil {
			return nil, err
		}
		f.GameVersion = v
	}

	if err := seekTo(r, locs[locDatInfos].Offset); err != nil {
		return nil, err
	}
	f.DatInfos = make([]DatInfo, locs[locDatInfos].Count)
	for i := range f.DatInfos {
		d, err := readDatInfo(r)
		if err != nil {
			return nil, err
		}
		f.DatInfos[i] = d
	}

	if err := seekTo(r, locs[locDescriptorTypeBundles].Offset); err != nil {
		return nil, err
	}
	f.DescriptorTypeBundles = make([]DescriptorTypeBundle, locs[locDescriptorTypeBundles].Count)
	for i := range f.DescriptorTypeBundles {
		b, err := readDescriptorTypeBundle(r)
		if err != nil {
			return nil, err
		}
		f.DescriptorTypeBundles[i] = b
	}

	if err := seekTo(r, locs[locDescriptorIndices].Offset); err != nil {
		return nil, err
	}
	f.DescriptorIndices = make([]uint32, locs[locDescriptorIndices].Count)
	for i := range f.DescriptorIndices {
		idx, err := r.U32()
		if err != nil {
			return nil, err
		}
		f.DescriptorIndices[i] = idx
	}

	if err := seekTo(r, locs[locBlobBuckets].Offset); err != nil {
		return nil, err
	}
	f.BlobBuckets = make([]BlobBucket, locs[locBlobBuckets].Count)
	for i := range f.BlobBuckets {
		index, count, err := readBucketPair(r)
		if err != nil {
			return nil, err
		}
		f.BlobBuckets[i] = BlobBucket{Index: index, Count: count}
	}

	if err := seekTo(r, locs[locBlobGuids].Offset); err != nil {
		return nil, err
	}
	f.BlobGuids = make([]guid.ContentHash, locs[locBlobGuids].Count)
	for i := range f.BlobGuids {
		raw, err := r.Bytes(16)
		if err != nil {
			return nil, err
		}
		f.BlobGuids[i] = guid.ContentHashFromBytes(raw)
	}

	if err := seekTo(r, locs[locBlobLinks].Offset); err != nil {
		return nil, err
	}
	f.BlobLinks = make([]BlobLink, locs[locBlobLinks].Count)
	for i := range f.BlobLinks {
		l, err := readBlobLink(r)
		if err != nil {
			return nil, err
		}
		f.BlobLinks[i] = l
	}

	if err := seekTo(r, locs[locDescriptorBuckets].Offset); err != nil {
		return nil, err
	}
	f.DescriptorBuckets = make([]DescriptorBucket, locs[locDescriptorBuckets].Count)
	for i := range f.DescriptorBuckets {
		index, count, err := readBucketPair(r)
		if err != nil {
			return nil, err
		}
		f.DescriptorBuckets[i] = DescriptorBucket{Index: index, Count: count}
	}

	if err := seekTo(r, locs[locDescriptorGuids].Offset); err != nil {
		return nil, err
	}
	f.DescriptorGuids = make([]guid.DescriptorID, locs[locDescriptorGuids].Count)
	for i := range f.DescriptorGuids {
		id, err := guid.ReadDescriptorID(r)
		if err != nil {
			return nil, err
		}
		f.DescriptorGuids[i] = id
	}

	if err := seekTo(r, locs[locDescriptorLinks].Offset); err != nil {
		return nil, err
	}
	f.DescriptorLinks = make([]DescriptorLink, locs[locDescriptorLinks].Count)
	for i := range f.DescriptorLinks {
		l, err := readDescriptorLink(r)
		if err != nil {
			return nil, err
		}
		f.DescriptorLinks[i] = l
	}

	if err := seekTo(r, locs[locPreloadBuckets].Offset); err != nil {
		return nil, err
	}
	f.PreloadBuckets = make([]PreloadBucket, locs[locPreloadBuckets].Count)
	for i := range f.PreloadBuckets {
		index, count, err := readBucketPair(r)
		if err != nil {
			return nil, err
		}
		f.PreloadBuckets[i] = PreloadBucket{Index: index, Count: count}
	}

	if err := seekTo(r, locs[locPreloadGuids].Offset); err != nil {
		return nil, err
	}
	f.PreloadGuids = make([]PreloadGuid, locs[locPreloadGuids].Count)
	for i := range f.PreloadGuids {
		h, err := r.U32()
		if err != nil {
			return nil, err
		}
		f.PreloadGuids[i] = PreloadGuid{Hash: h}
	}

	if err := seekTo(r, locs[locPreloadLinks].Offset); err != nil {
		return nil, err
	}
	f.PreloadLinks = make([]PreloadLink, locs[locPreloadLinks].Count)
	for i := range f.PreloadLinks {
		l, err := readPreloadLink(r)
		if err != nil {
			return nil, err
		}
		f.PreloadLinks[i] = l
	}

	end, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	// size is the header's recorded total catalog size (header + all
	// tables + descriptor payload data); end is the stream position right
	// after the last table, i.e. where the descriptor payload begins.
	f.DataOffset = end
	f.DataSize = int64(size) - end
	if f.DataSize < 0 {
		f.DataSize = 0
	}

	return f, nil
}

func seekTo(r *binio.SeekReader, offset int64) error {
	_, err := r.S.Seek(offset, io.SeekStart)
	return err
}

func readLocation(r *binio.SeekReader) (Location, error) {
	offset, err := r.ReadOffset()
	if err != nil {
		return Location{}, err
	}
	count, err := r.U32()
	if err != nil {
		return Location{}, err
	}
	return Location{Offset: offset, Count: count}, nil
}

func readDatInfo(r *binio.SeekReader) (DatInfo, error) {
	largest, err := r.U16()
	if err != nil {
		return DatInfo{}, err
	}
	if err := r.Padding(2); err != nil {
		return DatInfo{}, err
	}
	unk0, err := r.U32()
	if err != nil {
		return DatInfo{}, err
	}
	count, err := r.U32()
	if err != nil {
		return DatInfo{}, err
	}
	if err := r.Padding(4); err != nil {
		return DatInfo{}, err
	}
	return DatInfo{LargestChunkSize: largest, Unk0: unk0, Count: count}, nil
}

func readDescriptorTypeBundle(r *binio.SeekReader) (DescriptorTypeBundle, error) {
	byteOffset, err := r.U32()
	if err != nil {
		return DescriptorTypeBundle{}, err
	}
	byteSize, err := r.U32()
	if err != nil {
		return DescriptorTypeBundle{}, err
	}
	count, err := r.U32()
	if err != nil {
		return DescriptorTypeBundle{}, err
	}
	return DescriptorTypeBundle{ByteOffset: byteOffset, ByteSize: byteSize, Count: count}, nil
}

// readBucketPair reads the shared {index, count} shape used by the blob/
// descriptor/preload bucket tables.
func readBucketPair(r *binio.SeekReader) (uint32, uint32, error) {
	index, err := r.U32()
	if err != nil {
		return 0, 0, err
	}
	count, err := r.U32()
	if err != nil {
		return 0, 0, err
	}
	return index, count, nil
}

func readBlobLink(r *binio.SeekReader) (BlobLink, error) {
	offset, err := r.U32()
	if err != nil {
		return BlobLink{}, err
	}
	flags, err := r.U16()
	if err != nil {
		return BlobLink{}, err
	}
	datIndex, err := r.U16()
	if err != nil {
		return BlobLink{}, err
	}
	if err := r.Padding(8); err != nil {
		return BlobLink{}, err
	}
	return BlobLink{Offset: offset, Flags: flags, DatIndex: datIndex}, nil
}

func readDescriptorLink(r *binio.SeekReader) (DescriptorLink, error) {
	offset, err := r.U32()
	if err != nil {
		return DescriptorLink{}, err
	}
	size, err := r.U32()
	if err != nil {
		return DescriptorLink{}, err
	}
	return DescriptorLink{Offset: offset, Size: size}, nil
}

func readPreloadLink(r *binio.SeekReader) (PreloadLink, error) {
	typeHash2, err := r.U32()
	if err != nil {
		return PreloadLink{}, err
	}
	descriptorIndex, err := r.U32()
	if err != nil {
		return PreloadLink{}, err
	}
	unk0, err := r.U32()
	if err != nil {
		return PreloadLink{}, err
	}
	return PreloadLink{TypeHash2: typeHash2, DescriptorIndex: descriptorIndex, Unk0: unk0}, nil
}
