// Package guid implements the archive's three identifier types: the raw
// 128-bit Guid text/binary codec, ContentHash (the blob content identity),
// and DescriptorId (the GUID+type-hash+part descriptor key). All three share
// the same mixed-endian canonical text format; ContentHash and DescriptorId
// implement staticmap.Hashable via their static hash rules.
package guid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/kfcio/kfc/khash"
)

// ErrMalformed is returned when a canonical GUID string fails to parse.
var ErrMalformed = errors.New("guid: malformed guid string")

// Guid is an opaque 128-bit identifier with a fixed canonical text format.
type Guid [16]byte

// None is the all-zero Guid.
var None = Guid{}

// IsNone reports whether g is the all-zero identifier.
func (g Guid) IsNone() bool {
	return g == None
}

// Hash32 returns the 32-bit FNV-1a hash of the Guid's raw bytes.
func (g Guid) Hash32() uint32 {
	return khash.FNV1a(g[:])
}

// String renders the canonical `8-4-4-4-12` mixed-endian hex form.
//
// Groups 1-3 are stored little-endian in bytes 0-7; groups 4-5 are stored
// big-endian in bytes 8-15.
func (g Guid) String() string {
	a := binary.LittleEndian.Uint32(g[0:4])
	b := binary.LittleEndian.Uint16(g[4:6])
	c := binary.LittleEndian.Uint16(g[6:8])
	d := binary.BigEndian.Uint16(g[8:10])
	e := binary.BigEndian.Uint32(g[10:14])
	f := binary.BigEndian.Uint16(g[14:16])

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%08x%04x", a, b, c, d, e, f)
}

// Parse parses the canonical `8-4-4-4-12` hex string (case-insensitive).
func Parse(s string) (Guid, error) {
	if len(s) != 36 {
		return Guid{}, ErrMalformed
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return Guid{}, ErrMalformed
	}

	a, err := hexBytes(s, 0, 4)
	if err != nil {
		return Guid{}, err
	}
	b, err := hexBytes(s, 9, 2)
	if err != nil {
		return Guid{}, err
	}
	c, err := hexBytes(s, 14, 2)
	if err != nil {
		return Guid{}, err
	}
	d, err := hexBytes(s, 19, 2)
	if err != nil {
		return Guid{}, err
	}
	e, err := hexBytes(s, 24, 6)
	if err != nil {
		return Guid{}, err
	}

	var g Guid
	g[0], g[1], g[2], g[3] = a[3], a[2], a[1], a[0]
	g[4], g[5] = b[1], b[0]
	g[6], g[7] = c[1], c[0]
	g[8], g[9] = d[0], d[1]
	copy(g[10:16], e)
	return g, nil
}

// hexBytes decodes n bytes (2n hex chars) starting at s[start:], failing
// if s is too short or any of those chars is not a hex digit. Characters
// after the decoded range are not examined.
func hexBytes(s string, start, n int) ([]byte, error) {
	if start+n*2 > len(s) {
		return nil, ErrMalformed
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		hi, ok1 := hexDigit(s[start+i*2])
		lo, ok2 := hexDigit(s[start+i*2+1])
		if !ok1 || !ok2 {
			return nil, ErrMalformed
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

func formatHash32(h uint32) string {
	return fmt.Sprintf("%08x", h)
}

func parseDecU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ErrMalformed
	}
	return uint32(v), nil
}
