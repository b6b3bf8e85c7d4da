package binio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterIntegerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.U8(0xAB))
	require.NoError(t, w.I16(-1))
	require.NoError(t, w.U32(0xDEADBEEF))
	require.NoError(t, w.I64(-2))

	r := NewReader(bytes.NewReader(buf.Bytes()))

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	i16, err := r.I16()
	require.NoError(t, err)
	assert.Equal(t, int16(-1), i16)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i64, err := r.I64()
	require.NoError(t, err)
	assert.Equal(t, int64(-2), i64)
}

func TestWriterStringTruncates(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.String("hello world", 5))
	assert.Equal(t, "hello", buf.String())
}

func TestWriterPadding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Padding(4))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())
}

type seekBuffer struct {
	data []byte
	pos  int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	copy(s.data[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}

func TestSeekWriterAlign(t *testing.T) {
	sb := &seekBuffer{}
	w := NewSeekWriter(sb)

	require.NoError(t, w.Bytes([]byte{1, 2, 3}))
	pad, err := w.Align(8)
	require.NoError(t, err)
	assert.Equal(t, 5, pad)

	pos, err := w.Pos()
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)
}

func TestSeekWriterWriteOffset(t *testing.T) {
	sb := &seekBuffer{}
	w := NewSeekWriter(sb)

	require.NoError(t, w.Bytes([]byte{0, 0}))
	require.NoError(t, w.WriteOffset(2 + 0x10))

	r := NewReader(bytes.NewReader(sb.data[2:]))
	off, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x10), off)
}

func TestSeekWriterWriteOffsetZero(t *testing.T) {
	sb := &seekBuffer{}
	w := NewSeekWriter(sb)
	require.NoError(t, w.WriteOffset(0))
	assert.Equal(t, []byte{0, 0, 0, 0}, sb.data)
}
