package binio

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer wraps an io.Writer with little-endian fixed-width helpers.
type Writer struct {
	W io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

// U8 writes an unsigned 8-bit integer.
func (w *Writer) U8(v uint8) error {
	_, err := w.W.Write([]byte{v})
	return err
}

// U16 writes a little-endian unsigned 16-bit integer.
func (w *Writer) U16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.W.Write(buf[:])
	return err
}

// U32 writes a little-endian unsigned 32-bit integer.
func (w *Writer) U32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.W.Write(buf[:])
	return err
}

// U64 writes a little-endian unsigned 64-bit integer.
func (w *Writer) U64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.W.Write(buf[:])
	return err
}

// I8 writes a signed 8-bit integer.
func (w *Writer) I8(v int8) error { return w.U8(uint8(v)) }

// I16 writes a little-endian signed 16-bit integer.
func (w *Writer) I16(v int16) error { return w.U16(uint16(v)) }

// I32 writes a little-endian signed 32-bit integer.
func (w *Writer) I32(v int32) error { return w.U32(uint32(v)) }

// I64 writes a little-endian signed 64-bit integer.
func (w *Writer) I64(v int64) error { return w.U64(uint64(v)) }

// F32 writes a little-endian IEEE-754 single precision float.
func (w *Writer) F32(v float32) error { return w.U32(math.Float32bits(v)) }

// F64 writes a little-endian IEEE-754 double precision float.
func (w *Writer) F64(v float64) error { return w.U64(math.Float64bits(v)) }

// Bytes writes raw bytes.
func (w *Writer) Bytes(b []byte) error {
	_, err := w.W.Write(b)
	return err
}

// String writes at most n bytes taken from s, either truncating or, if s is
// shorter than n, writing s as-is with no padding (callers are expected to pass an s whose
// byte length is already n; this mirrors WriteExt::write_string's slice
// truncation behavior for the rare case it isn't).
func (w *Writer) String(s string, n int) error {
	b := []byte(s)
	if len(b) > n {
		b = b[:n]
	}
	return w.Bytes(b)
}

// Padding writes n zero bytes.
func (w *Writer) Padding(n int) error {
	if n <= 0 {
		return nil
	}
	_, err := w.W.Write(make([]byte, n))
	return err
}

// SeekWriter is a Writer over a sink that also supports Seek, needed for
// alignment and pc-relative offset emission.
type SeekWriter struct {
	*Writer
	S io.Seeker
}

// NewSeekWriter wraps ws.
func NewSeekWriter(ws io.WriteSeeker) *SeekWriter {
	return &SeekWriter{Writer: NewWriter(ws), S: ws}
}

// Pos returns the current stream position.
func (w *SeekWriter) Pos() (int64, error) {
	return w.S.Seek(0, io.SeekCurrent)
}

// Align writes however many zero bytes are needed to bring the stream
// position to the next multiple of alignment, returning the pad length.
func (w *SeekWriter) Align(alignment int) (int, error) {
	pos, err := w.Pos()
	if err != nil {
		return 0, err
	}
	pad := int(negMod(pos, int64(alignment)))
	return pad, w.Padding(pad)
}

// WriteOffset writes a pc-relative u32 offset field for an absolute target
// position: 0 if target is 0 (the "no payload" sentinel), otherwise
// target-pos.
func (w *SeekWriter) WriteOffset(target int64) error {
	if target == 0 {
		return w.U32(0)
	}
	pos, err := w.Pos()
	if err != nil {
		return err
	}
	return w.U32(uint32(target - pos))
}
