package binio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderIntegers(t *testing.T) {
	buf := bytes.NewReader([]byte{
		0x01,
		0x02, 0x00,
		0x03, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	})
	r := NewReader(buf)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), u16)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), u32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), u64)
}

func TestReaderFloatRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.F32(3.5))
	require.NoError(t, w.F64(-2.25))

	r := NewReader(&buf)
	f32, err := r.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)

	f64, err := r.F64()
	require.NoError(t, err)
	assert.Equal(t, float64(-2.25), f64)
}

func TestReaderStringAndPadding(t *testing.T) {
	buf := bytes.NewReader([]byte("hi\x00\x00\x00"))
	r := NewReader(buf)

	s, err := r.String(2)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	require.NoError(t, r.Padding(3))
}

func TestReaderPaddingRejectsNonZero(t *testing.T) {
	buf := bytes.NewReader([]byte{0x00, 0x01, 0x00})
	r := NewReader(buf)
	err := r.Padding(3)
	assert.ErrorIs(t, err, ErrNonZeroPadding)
}

func TestSeekReaderAlign(t *testing.T) {
	data := make([]byte, 20)
	r := NewSeekReader(bytes.NewReader(data))

	_, err := r.Bytes(3)
	require.NoError(t, err)

	require.NoError(t, r.Align(8))
	pos, err := r.Pos()
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)

	require.NoError(t, r.Align(8))
	pos, err = r.Pos()
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)
}

func TestSeekReaderReadOffset(t *testing.T) {
	data := []byte{0x00, 0x00, 0x10, 0x00, 0x00, 0x00}
	r := NewSeekReader(bytes.NewReader(data))

	_, err := r.Bytes(2)
	require.NoError(t, err)

	off, err := r.ReadOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(2+0x10), off)
}

func TestReadU32At(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0x01, 0x00, 0x00, 0x00}
	v, err := ReadU32At(bytes.NewReader(data), 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
}
