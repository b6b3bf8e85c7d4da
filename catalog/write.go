package catalog

import (
	"io"

	"github.com/kfcio/kfc/binio"
	"github.com/kfcio/kfc/guid"
)

// WriteFile serializes f as a complete catalog header followed by every
// table it describes, in the fixed order the format commits to: version,
// dat_infos, (two unused slots), descriptor_type_bundles, descriptor
// indices, blob buckets/guids/links, descriptor buckets/guids/links,
// preload buckets/guids/links. 8-byte alignment padding follows the
// version string, the descriptor indices and the blob, descriptor and
// preload key tables; everything else packs tight. dataSize is the byte length of the
// descriptor payload region that follows immediately after the last table
// (not written by WriteFile itself — callers append it starting at the
// returned dataOffset); it is only needed to fill in the header's total
// catalog size field. The returned dataOffset is the stream position after
// the last table, where descriptor payload bytes begin.
func WriteFile(ws io.WriteSeeker, f *File, dataSize int64) (dataOffset int64, err error) {
	w := binio.NewSeekWriter(ws)

	// A placeholder header reserves its own space; every locator is
	// backpatched once the true table offsets are known.
	if err := writeHeaderPlaceholder(w); err != nil {
		return 0, err
	}

	versionOffsetPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	if err := w.String(f.GameVersion, len(f.GameVersion)); err != nil {
		return 0, err
	}
	if _, err := w.Align(8); err != nil {
		return 0, err
	}

	datInfosPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, d := range f.DatInfos {
		if err := writeDatInfo(w, d); err != nil {
			return 0, err
		}
	}

	typeBundlesPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, b := range f.DescriptorTypeBundles {
		if err := writeDescriptorTypeBundle(w, b); err != nil {
			return 0, err
		}
	}

	indicesPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, idx := range f.DescriptorIndices {
		if err := w.U32(idx); err != nil {
			return 0, err
		}
	}
	if _, err := w.Align(8); err != nil {
		return 0, err
	}

	blobBucketsPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, b := range f.BlobBuckets {
		if err := writeBucketPair(w, b.Index, b.Count); err != nil {
			return 0, err
		}
	}

	blobGuidsPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, g := range f.BlobGuids {
		if err := w.Bytes(g[:]); err != nil {
			return 0, err
		}
	}
	if _, err := w.Align(8); err != nil {
		return 0, err
	}

	blobLinksPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, l := range f.BlobLinks {
		if err := writeBlobLink(w, l); err != nil {
			return 0, err
		}
	}

	descriptorBucketsPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, b := range f.DescriptorBuckets {
		if err := writeBucketPair(w, b.Index, b.Count); err != nil {
			return 0, err
		}
	}

	descriptorGuidsPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, id := range f.DescriptorGuids {
		if err := guid.WriteDescriptorID(w, id); err != nil {
			return 0, err
		}
	}
	if _, err := w.Align(8); err != nil {
		return 0, err
	}

	descriptorLinksPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, l := range f.DescriptorLinks {
		if err := writeDescriptorLink(w, l); err != nil {
			return 0, err
		}
	}

	preloadBucketsPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, b := range f.PreloadBuckets {
		if err := writeBucketPair(w, b.Index, b.Count); err != nil {
			return 0, err
		}
	}

	preloadGuidsPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, g := range f.PreloadGuids {
		if err := w.U32(g.Hash); err != nil {
			return 0, err
		}
	}
	if _, err := w.Align(8); err != nil {
		return 0, err
	}

	preloadLinksPos, err := tablePos(w)
	if err != nil {
		return 0, err
	}
	for _, l := range f.PreloadLinks {
		if err := writePreloadLink(w, l); err != nil {
			return 0, err
		}
	}

	end, err := w.Pos()
	if err != nil {
		return 0, err
	}

	locations := []locationValue{
		{versionOffsetPos, uint32(len(f.GameVersion))},
		{datInfosPos, uint32(len(f.DatInfos))},
		{end, 0}, // unused0
		{end, 0}, // unused1
		{typeBundlesPos, uint32(len(f.DescriptorTypeBundles))},
		{indicesPos, uint32(len(f.DescriptorIndices))},
		{blobBucketsPos, uint32(len(f.BlobBuckets))},
		{blobGuidsPos, uint32(len(f.BlobGuids))},
		{blobLinksPos, uint32(len(f.BlobLinks))},
		{descriptorBucketsPos, uint32(len(f.DescriptorBuckets))},
		{descriptorGuidsPos, uint32(len(f.DescriptorGuids))},
		{descriptorLinksPos, uint32(len(f.DescriptorLinks))},
		{preloadBucketsPos, uint32(len(f.PreloadBuckets))},
		{preloadGuidsPos, uint32(len(f.PreloadGuids))},
		{preloadLinksPos, uint32(len(f.PreloadLinks))},
	}

	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if err := writeHeader(w, uint32(end+dataSize), locations); err != nil {
		return 0, err
	}
	if _, err := ws.Seek(end, io.SeekStart); err != nil {
		return 0, err
	}

	return end, nil
}

type locationValue struct {
	offset int64
	count  uint32
}

func tablePos(w *binio.SeekWriter) (int64, error) {
	return w.Pos()
}

// headerFixedSize is the fixed portion of the header preceding its
// locator table: magic, size, the constant 12, and 4 bytes of padding.
const headerFixedSize = 4 + 4 + 4 + 4

// headerLocatorsSize is the byte size of the 15 {offset,count} locator
// pairs that follow the fixed header prefix.
const headerLocatorsSize = locationCount * 8

// HeaderSize is the total byte size of a serialized header (magic through
// the last locator), used by Writer to decide whether a rebuilt header
// still fits in previously reserved space.
const HeaderSize = headerFixedSize + headerLocatorsSize

func writeHeaderPlaceholder(w *binio.SeekWriter) error {
	return w.Padding(HeaderSize)
}

func writeHeader(w *binio.SeekWriter, size uint32, locations []locationValue) error {
	if err := w.U32(Magic); err != nil {
		return err
	}
	if err := w.U32(size); err != nil {
		return err
	}
	if err := w.U32(12); err != nil {
		return err
	}
	if err := w.Padding(4); err != nil {
		return err
	}
	for _, loc := range locations {
		if err := w.WriteOffset(loc.offset); err != nil {
			return err
		}
		if err := w.U32(loc.count); err != nil {
			return err
		}
	}
	return nil
}

func writeDatInfo(w *binio.SeekWriter, d DatInfo) error {
	if err := w.U16(d.LargestChunkSize); err != nil {
		return err
	}
	if err := w.Padding(2); err != nil {
		return err
	}
	if err := w.U32(d.Unk0); err != nil {
		return err
	}
	if err := w.U32(d.Count); err != nil {
		return err
	}
	return w.Padding(4)
}

func writeDescriptorTypeBundle(w *binio.SeekWriter, b DescriptorTypeBundle) error {
	if err := w.U32(b.ByteOffset); err != nil {
		return err
	}
	if err := w.U32(b.ByteSize); err != nil {
		return err
	}
	return w.U32(b.Count)
}

func writeBucketPair(w *binio.SeekWriter, index, count uint32) error {
	if err := w.U32(index); err != nil {
		return err
	}
	return w.U32(count)
}

func writeBlobLink(w *binio.SeekWriter, l BlobLink) error {
	if err := w.U32(l.Offset); err != nil {
		return err
	}
	if err := w.U16(l.Flags); err != nil {
		return err
	}
	if err := w.U16(l.DatIndex); err != nil {
		return err
	}
	return w.Padding(8)
}

func writeDescriptorLink(w *binio.SeekWriter, l DescriptorLink) error {
	if err := w.U32(l.Offset); err != nil {
		return err
	}
	return w.U32(l.Size)
}

func writePreloadLink(w *binio.SeekWriter, l PreloadLink) error {
	if err := w.U32(l.TypeHash2); err != nil {
		return err
	}
	if err := w.U32(l.DescriptorIndex); err != nil {
		return err
	}
	return w.U32(l.Unk0)
}
