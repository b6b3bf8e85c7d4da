package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/staticmap"
)

// Reader provides random-access lookup into an opened catalog: descriptors
// by DescriptorId, blobs by ContentHash. Dat shard handles are opened
// lazily and memoized per dat index.
type Reader struct {
	path string
	file *os.File

	descriptors *staticmap.Map[guid.DescriptorID, DescriptorLink]
	blobs       *staticmap.Map[guid.ContentHash, BlobLink]

	parsed *File // retained for DescriptorTypeBundles / GameVersion access

	dataOffset int64
	datFiles   map[uint16]*os.File
}

// Open parses the catalog header at path and prepares it for lookups. Dat
// shards referenced by blob links are opened on first use, not here.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	parsed, err := ReadFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	descMap, err := staticmap.FromParts(parsed.DescriptorGuids, parsed.DescriptorLinks, bucketsOf(parsed.DescriptorBuckets))
	if err != nil {
		f.Close()
		return nil, err
	}
	blobMap, err := staticmap.FromParts(parsed.BlobGuids, parsed.BlobLinks, bucketsOfBlob(parsed.BlobBuckets))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{
		path:        path,
		file:        f,
		descriptors: descMap,
		blobs:       blobMap,
		parsed:      parsed,
		dataOffset:  parsed.DataOffset,
		datFiles:    make(map[uint16]*os.File),
	}, nil
}

func bucketsOf(bs []DescriptorBucket) []staticmap.Bucket {
	out := make([]staticmap.Bucket, len(bs))
	for i, b := range bs {
		out[i] = staticmap.Bucket{Index: b.Index, Count: b.Count}
	}
	return out
}

func bucketsOfBlob(bs []BlobBucket) []staticmap.Bucket {
	out := make([]staticmap.Bucket, len(bs))
	for i, b := range bs {
		out[i] = staticmap.Bucket{Index: b.Index, Count: b.Count}
	}
	return out
}

// File returns the parsed header this Reader was opened from.
func (r *Reader) File() *File { return r.parsed }

// Close releases the catalog file handle and every memoized dat shard
// handle.
func (r *Reader) Close() error {
	var firstErr error
	for _, df := range r.datFiles {
		if err := df.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReadDescriptor looks up id via the descriptor static map and returns its
// serialized bytes.
func (r *Reader) ReadDescriptor(id guid.DescriptorID) ([]byte, error) {
	link, ok := r.descriptors.Get(id)
	if !ok {
		return nil, fmt.Errorf("catalog: descriptor %s not found", id)
	}
	buf := make([]byte, link.Size)
	if _, err := r.file.ReadAt(buf, r.dataOffset+int64(link.Offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBlob looks up hash via the blob static map, opens (or reuses) the
// referenced dat shard, and returns the blob's bytes.
func (r *Reader) ReadBlob(hash guid.ContentHash) ([]byte, error) {
	link, ok := r.blobs.Get(hash)
	if !ok {
		return nil, fmt.Errorf("catalog: blob %s not found", hash)
	}
	shard, err := r.datFile(link.DatIndex)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, hash.Size())
	if _, err := shard.ReadAt(buf, int64(link.Offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// datFile lazily opens and memoizes the dat shard handle for index.
func (r *Reader) datFile(index uint16) (*os.File, error) {
	if f, ok := r.datFiles[index]; ok {
		return f, nil
	}
	f, err := os.Open(DatShardPath(r.path, index))
	if err != nil {
		return nil, err
	}
	r.datFiles[index] = f
	return f, nil
}

// DatShardPath derives the on-disk path of dat shard index from a catalog
// path: the stem (catalog path with a trailing `.kfc` removed; any other
// extension is kept) followed by `_{NNN}.dat`, N zero-padded to 3 digits.
func DatShardPath(catalogPath string, index uint16) string {
	stem := strings.TrimSuffix(catalogPath, ".kfc")
	return fmt.Sprintf("%s_%03d.dat", stem, index)
}

var _ io.Closer = (*Reader)(nil)
