package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/staticmap"
)

// headerGrowthIncrement is the fixed amount the header/tables reservation
// grows by when a patch no longer fits in the space the reference catalog
// originally reserved.
const headerGrowthIncrement = 64 * 1024

// descriptorAlignment and blobAlignment are the padding boundaries new
// descriptor bytes and new blob bytes are aligned to before the next
// entry's offset is recorded.
const (
	descriptorAlignment = 16
	blobAlignment       = 4096
)

// Writer patches new descriptors and blobs into a copy of an existing
// catalog: it never rewrites data that hasn't changed, growing the header's
// reserved space only when new entries no longer fit in it.
type Writer struct {
	path      string
	file      *os.File
	reference *File

	descriptors *staticmap.Builder[guid.DescriptorID, DescriptorLink]
	blobs       *staticmap.Builder[guid.ContentHash, BlobLink]

	headerSpace              int64
	defaultDataSize          int64
	defaultDataSizeUnaligned int64

	descriptorBuf bytes.Buffer

	datInfos  []DatInfo
	datWriter *os.File
	datPos    int64
}

// NewWriter opens path (an existing catalog file, typically a fresh copy of
// reference's own file) for in-place patching, seeding its static-map
// builders from reference's already-parsed tables.
func NewWriter(path string, reference *File) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	descriptors := staticmap.NewBuilder[guid.DescriptorID, DescriptorLink]()
	for i, key := range reference.DescriptorGuids {
		descriptors.Insert(key, reference.DescriptorLinks[i])
	}
	blobs := staticmap.NewBuilder[guid.ContentHash, BlobLink]()
	for i, key := range reference.BlobGuids {
		blobs.Insert(key, reference.BlobLinks[i])
	}

	datInfos := make([]DatInfo, len(reference.DatInfos))
	copy(datInfos, reference.DatInfos)

	defaultUnaligned := reference.DataSize
	defaultAligned := alignUp(defaultUnaligned, descriptorAlignment)

	return &Writer{
		path:                     path,
		file:                     f,
		reference:                reference,
		descriptors:              descriptors,
		blobs:                    blobs,
		headerSpace:              reference.DataOffset,
		defaultDataSize:          defaultAligned,
		defaultDataSizeUnaligned: defaultUnaligned,
		datInfos:                 datInfos,
	}, nil
}

func alignUp(n int64, alignment int64) int64 {
	rem := n % alignment
	if rem == 0 {
		return n
	}
	return n + (alignment - rem)
}

// WriteDescriptorBytes appends data as the serialized payload for id,
// recording its offset relative to the (still-unknown) final data region
// start. Later, unmodified descriptors keep their original offsets; this
// descriptor's bytes are only ever appended after the reference's existing
// descriptor data, never interleaved with it.
func (w *Writer) WriteDescriptorBytes(id guid.DescriptorID, data []byte) error {
	offset := w.defaultDataSize + int64(w.descriptorBuf.Len())
	w.descriptors.Insert(id, DescriptorLink{Offset: uint32(offset), Size: uint32(len(data))})

	if _, err := w.descriptorBuf.Write(data); err != nil {
		return err
	}
	pad := alignUp(int64(w.descriptorBuf.Len()), descriptorAlignment) - int64(w.descriptorBuf.Len())
	if pad > 0 {
		w.descriptorBuf.Write(make([]byte, pad))
	}
	return nil
}

// WriteBlob content-addresses data, appends it to dat shard 0 (the only
// shard this writer ever creates — matching the reference format's current
// lack of multi-shard splitting), and returns its ContentHash.
func (w *Writer) WriteBlob(data []byte) (guid.ContentHash, error) {
	hash := guid.HashContent(data)

	if err := w.ensureDatWriter(); err != nil {
		return guid.ContentHash{}, err
	}

	offset := w.datPos
	n, err := w.datWriter.WriteAt(data, offset)
	if err != nil {
		return guid.ContentHash{}, err
	}
	w.datPos += int64(n)

	pad := alignUp(w.datPos, blobAlignment) - w.datPos
	if pad > 0 {
		if _, err := w.datWriter.WriteAt(make([]byte, pad), w.datPos); err != nil {
			return guid.ContentHash{}, err
		}
		w.datPos += pad
	}

	if len(w.datInfos) == 0 {
		w.datInfos = append(w.datInfos, DatInfo{})
	}
	w.datInfos[0].Count++
	w.datInfos[0].Size = w.datPos

	w.blobs.Insert(hash, BlobLink{Offset: uint32(offset), Flags: 0, DatIndex: 0})
	return hash, nil
}

func (w *Writer) ensureDatWriter() error {
	if w.datWriter != nil {
		return nil
	}
	path := DatShardPath(w.path, 0)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return err
	}
	w.datWriter = f
	w.datPos = size
	return nil
}

// Finalize rebuilds both static maps and the descriptor-type-bundles table,
// re-serializes the header to see whether it still fits in the space the
// reference catalog reserved, grows that reservation by a fixed 64 KiB
// increment and relocates the existing descriptor data block forward if
// not, then writes the new header and appends the new descriptor bytes.
func (w *Writer) Finalize() error {
	if w.datWriter != nil {
		if err := w.datWriter.Close(); err != nil {
			return err
		}
		w.datWriter = nil
	}

	finalDescriptors := w.descriptors.Build()
	finalBlobs := w.blobs.Build()

	indices, bundles := buildDescriptorTypeBundles(finalDescriptors)

	candidate := &File{
		GameVersion:           w.reference.GameVersion,
		DatInfos:              w.datInfos,
		DescriptorTypeBundles: bundles,
		DescriptorIndices:     indices,
		BlobBuckets:           staticBucketsOfBlob(finalBlobs.Buckets()),
		BlobGuids:             finalBlobs.Keys(),
		BlobLinks:             finalBlobs.Values(),
		DescriptorBuckets:     staticBucketsOfDescriptor(finalDescriptors.Buckets()),
		DescriptorGuids:       finalDescriptors.Keys(),
		DescriptorLinks:       finalDescriptors.Values(),
		PreloadBuckets:        w.reference.PreloadBuckets,
		PreloadGuids:          w.reference.PreloadGuids,
		PreloadLinks:          w.reference.PreloadLinks,
	}

	newDescriptorBytes := w.descriptorBuf.Bytes()
	totalDataSize := w.defaultDataSize + int64(len(newDescriptorBytes))

	var measure memWriteSeeker
	measuredEnd, err := WriteFile(&measure, candidate, totalDataSize)
	if err != nil {
		return err
	}

	newDataOffset := w.headerSpace
	grew := measuredEnd > w.headerSpace
	if grew {
		newDataOffset = w.headerSpace + headerGrowthIncrement
		if err := copyWithinFile(w.file, w.headerSpace, w.defaultDataSizeUnaligned, newDataOffset); err != nil {
			return err
		}
	}

	actualEnd, err := WriteFile(w.file, candidate, totalDataSize)
	if err != nil {
		return err
	}

	gap := newDataOffset - actualEnd
	if gap > 0 {
		if err := zeroRange(w.file, actualEnd, gap); err != nil {
			return err
		}
	}

	alignGap := w.defaultDataSize - w.defaultDataSizeUnaligned
	if alignGap > 0 {
		if err := zeroRange(w.file, newDataOffset+w.defaultDataSizeUnaligned, alignGap); err != nil {
			return err
		}
	}

	if len(newDescriptorBytes) > 0 {
		if _, err := w.file.WriteAt(newDescriptorBytes, newDataOffset+w.defaultDataSize); err != nil {
			return err
		}
	}

	return w.file.Close()
}

func zeroRange(f *os.File, offset, length int64) error {
	const chunk = 8192
	buf := make([]byte, chunk)
	for remaining := length; remaining > 0; {
		n := int64(chunk)
		if remaining < n {
			n = remaining
		}
		if _, err := f.WriteAt(buf[:n], offset); err != nil {
			return err
		}
		offset += n
		remaining -= n
	}
	return nil
}

// copyWithinFile relocates a length-byte region of f from src to dst,
// chunked at 8192 bytes. When dst sits ahead of src the regions can
// overlap, so the copy processes the last chunk first — writing a later
// chunk can never clobber source bytes a not-yet-processed earlier chunk
// still needs. When dst is behind or equal to src, forward order is safe.
func copyWithinFile(f *os.File, src, length, dst int64) error {
	if src == dst {
		return nil
	}
	const chunkSize = 8192
	buf := make([]byte, chunkSize)

	if src < dst {
		for remaining := length; remaining > 0; {
			n := int64(chunkSize)
			if remaining < n {
				n = remaining
			}
			srcOff := src + remaining - n
			dstOff := dst + remaining - n
			if _, err := f.ReadAt(buf[:n], srcOff); err != nil {
				return err
			}
			if _, err := f.WriteAt(buf[:n], dstOff); err != nil {
				return err
			}
			remaining -= n
		}
		return nil
	}

	for remaining := length; remaining > 0; {
		n := int64(chunkSize)
		if remaining < n {
			n = remaining
		}
		srcOff := src + length - remaining
		dstOff := dst + length - remaining
		if _, err := f.ReadAt(buf[:n], srcOff); err != nil {
			return err
		}
		if _, err := f.WriteAt(buf[:n], dstOff); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

// buildDescriptorTypeBundles groups the positions of final's keys (in
// build/bucket order, the same order DescriptorGuids/DescriptorLinks are
// serialized in) by TypeHash into a flat u32 index array (DescriptorIndices)
// and returns the {byte_offset, byte_size, count} bundle describing each
// group's span within it. Groups are ordered by TypeHash, ascending, for a
// deterministic, diffable layout; a bundle's position in the returned slice
// is what associates it with its type_hash, since the on-disk record itself
// carries no hash field.
func buildDescriptorTypeBundles(final *staticmap.Map[guid.DescriptorID, DescriptorLink]) ([]uint32, []DescriptorTypeBundle) {
	keys := final.Keys()
	byType := make(map[uint32][]uint32)
	var typeHashes []uint32
	for i, key := range keys {
		if _, ok := byType[key.TypeHash]; !ok {
			typeHashes = append(typeHashes, key.TypeHash)
		}
		byType[key.TypeHash] = append(byType[key.TypeHash], uint32(i))
	}
	sort.Slice(typeHashes, func(i, j int) bool { return typeHashes[i] < typeHashes[j] })

	var indices []uint32
	bundles := make([]DescriptorTypeBundle, 0, len(typeHashes))
	for _, th := range typeHashes {
		group := byType[th]
		byteOffset := uint32(len(indices)) * 4
		bundles = append(bundles, DescriptorTypeBundle{ByteOffset: byteOffset, ByteSize: uint32(len(group)) * 4, Count: uint32(len(group))})
		indices = append(indices, group...)
	}
	return indices, bundles
}

func staticBucketsOfBlob(bs []staticmap.Bucket) []BlobBucket {
	out := make([]BlobBucket, len(bs))
	for i, b := range bs {
		out[i] = BlobBucket{Index: b.Index, Count: b.Count}
	}
	return out
}

func staticBucketsOfDescriptor(bs []staticmap.Bucket) []DescriptorBucket {
	out := make([]DescriptorBucket, len(bs))
	for i, b := range bs {
		out[i] = DescriptorBucket{Index: b.Index, Count: b.Count}
	}
	return out
}

// memWriteSeeker is an in-memory io.WriteSeeker used to measure a
// candidate header's serialized length without touching the real file.
type memWriteSeeker struct {
	buf []byte
	pos int64
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("catalog: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("catalog: negative seek position %d", target)
	}
	m.pos = target
	return target, nil
}
