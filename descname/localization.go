// Package descname maps a decoded descriptor Value to a human-readable
// display name: the engine's own localization table when a field
// references one, a conventional name field, or failing both, the
// descriptor's canonical qualified GUID string.
package descname

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"

	"github.com/kfcio/kfc/binio"
)

// locaEntry mirrors one record of the engine's localization resource: a
// 32-bit id, a pc-relative-offset/length-delimited UTF-16LE string, and
// three fields the format reserves but this package has no use for.
type locaEntry struct {
	key    uint32
	offset int64
	length uint32
	unk1   uint32
	unk2   uint32
	unk3   uint32
}

// Table is a loaded localization table, keyed by the 32-bit id the engine
// uses to reference a string from elsewhere in a descriptor (not a Guid —
// the on-disk LocaEntry carries a plain u32 key, not a 128-bit identifier).
type Table struct {
	strings map[uint32]string
}

// Lookup returns the localized string for id, if the table carries one.
func (t *Table) Lookup(id uint32) (string, bool) {
	if t == nil {
		return "", false
	}
	s, ok := t.strings[id]
	return s, ok
}

// ReadTable parses the engine's localization resource: a {unk0, count}
// header followed by count fixed-size entries, each pointing at a
// UTF-16LE string payload elsewhere in the stream.
func ReadTable(rs io.ReadSeeker) (*Table, error) {
	r := binio.NewSeekReader(rs)

	if _, err := r.U32(); err != nil { // unk0
		return nil, err
	}
	count, err := r.U32()
	if err != nil {
		return nil, err
	}

	entries := make([]locaEntry, count)
	for i := range entries {
		e, err := readLocaEntry(r)
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}

	out := &Table{strings: make(map[uint32]string, count)}
	for _, e := range entries {
		s, err := readLocaString(rs, e.offset, e.length)
		if err != nil {
			return nil, err
		}
		out.strings[e.key] = s
	}
	return out, nil
}

func readLocaEntry(r *binio.SeekReader) (locaEntry, error) {
	var e locaEntry
	var err error
	if e.key, err = r.U32(); err != nil {
		return e, err
	}
	if e.offset, err = r.ReadOffset(); err != nil {
		return e, err
	}
	if e.length, err = r.U32(); err != nil {
		return e, err
	}
	if e.unk1, err = r.U32(); err != nil {
		return e, err
	}
	if e.unk2, err = r.U32(); err != nil {
		return e, err
	}
	if e.unk3, err = r.U32(); err != nil {
		return e, err
	}
	return e, nil
}

// readLocaString seeks to offset, reads length bytes, and decodes them as
// UTF-16LE, then restores the caller's stream position.
func readLocaString(rs io.ReadSeeker, offset int64, length uint32) (string, error) {
	saved, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}
	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return "", err
	}
	if _, err := rs.Seek(saved, io.SeekStart); err != nil {
		return "", err
	}
	return decodeUTF16(buf)
}

// decodeUTF16 decodes a NUL-terminated (or unterminated) UTF-16LE byte
// slice, the same pattern saferwall-pe's helper.DecodeUTF16String uses for
// PE version-resource strings.
func decodeUTF16(b []byte) (string, error) {
	n := bytes.Index(b, []byte{0, 0})
	if n == 0 {
		return "", nil
	}
	if n < 0 {
		n = len(b) - 1
	}
	if n+1 > len(b) {
		n = len(b) - 1
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	s, err := decoder.Bytes(b[0 : n+1])
	if err != nil {
		return "", err
	}
	return string(s), nil
}
