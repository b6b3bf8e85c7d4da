// Package binio provides little-endian byte reading and writing helpers used
// throughout the archive codec: fixed-width integers, fixed-length strings,
// zero-padding verification, and alignment.
package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrNonZeroPadding is returned when a padding region expected to be all
// zero bytes contains a non-zero byte.
var ErrNonZeroPadding = errors.New("binio: padding byte is not zero")

// Reader wraps an io.Reader with little-endian fixed-width helpers.
type Reader struct {
	R io.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{R: r}
}

func (r *Reader) fill(buf []byte) error {
	_, err := io.ReadFull(r.R, buf)
	return err
}

// U8 reads an unsigned 8-bit integer.
func (r *Reader) U8() (uint8, error) {
	var buf [1]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// U16 reads a little-endian unsigned 16-bit integer.
func (r *Reader) U16() (uint16, error) {
	var buf [2]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// U32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) U32() (uint32, error) {
	var buf [4]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// U64 reads a little-endian unsigned 64-bit integer.
func (r *Reader) U64() (uint64, error) {
	var buf [8]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// I8 reads a signed 8-bit integer.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// I16 reads a little-endian signed 16-bit integer.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// I32 reads a little-endian signed 32-bit integer.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// I64 reads a little-endian signed 64-bit integer.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads a little-endian IEEE-754 single precision float.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// F64 reads a little-endian IEEE-754 double precision float.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.fill(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// String reads n bytes and returns them as a string without interpreting
// any encoding or trailing NUL.
func (r *Reader) String(n int) (string, error) {
	buf, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Padding reads n bytes and verifies that every byte is zero.
func (r *Reader) Padding(n int) error {
	if n == 0 {
		return nil
	}
	buf, err := r.Bytes(n)
	if err != nil {
		return err
	}
	for _, b := range buf {
		if b != 0 {
			return ErrNonZeroPadding
		}
	}
	return nil
}

// SeekReader is a Reader over a source that also supports Seek, needed for
// alignment and pc-relative offset resolution.
type SeekReader struct {
	*Reader
	S io.Seeker
}

// NewSeekReader wraps rs.
func NewSeekReader(rs io.ReadSeeker) *SeekReader {
	return &SeekReader{Reader: NewReader(rs), S: rs}
}

// Pos returns the current stream position.
func (r *SeekReader) Pos() (int64, error) {
	return r.S.Seek(0, io.SeekCurrent)
}

// Align reads (and verifies as zero) however many padding bytes are needed
// to bring the stream position to the next multiple of alignment.
func (r *SeekReader) Align(alignment int) error {
	pos, err := r.Pos()
	if err != nil {
		return err
	}
	pad := int(negMod(pos, int64(alignment)))
	return r.Padding(pad)
}

// ReadOffset reads a pc-relative u32 offset field: the field's own stream
// position is added to the value read, yielding an absolute offset. A
// stored value of 0 still returns pos+0; this helper does not apply the
// "0 means null" convention.
func (r *SeekReader) ReadOffset() (int64, error) {
	pos, err := r.Pos()
	if err != nil {
		return 0, err
	}
	off, err := r.U32()
	if err != nil {
		return 0, err
	}
	return pos + int64(off), nil
}

func negMod(pos, alignment int64) int64 {
	if alignment == 0 {
		return 0
	}
	return ((-pos % alignment) + alignment) % alignment
}

// ReadU32At reads a u32 at an absolute offset from a ReaderAt, used by
// random-access catalog parsing that does not want to hold a single shared
// seek position.
func ReadU32At(r io.ReaderAt, offset int64) (uint32, error) {
	var buf [4]byte
	n, err := r.ReadAt(buf[:], offset)
	if err != nil {
		return 0, err
	}
	if n != 4 {
		return 0, fmt.Errorf("binio: short read at offset %d", offset)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
