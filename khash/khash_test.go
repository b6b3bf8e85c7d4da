package khash

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFNV1aKnownVectors(t *testing.T) {
	assert.Equal(t, uint32(0x4f9f2cab), FNV1a([]byte("hello")))
	assert.Equal(t, uint32(0x37a3e893), FNV1a([]byte("world")))
}

func TestFNV1aSeedKnownVectors(t *testing.T) {
	assert.Equal(t, uint32(0x66ce6340), FNV1aSeed([]byte("hello"), 0x12345678))
	assert.Equal(t, uint32(0x570c34cc), FNV1aSeed([]byte("world"), 0x12345678))
}

func TestFNV1aGuidStability(t *testing.T) {
	// "00112233-4455-6677-8899-aabbccddeeff" as a plain ASCII byte string,
	// hashed with FNV-1a, yields a non-zero hash. The comparison of
	// Guid.Hash32 against FNV-1a of the binary form is in the guid package's
	// TestHash32MatchesFNV.
	got := FNV1a([]byte("00112233-4455-6677-8899-aabbccddeeff"))
	assert.NotZero(t, got)
}

func TestContentHashSizeLane(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 63, 64, 65, 200} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		digest := ContentHash(data)
		size := binary.LittleEndian.Uint32(digest[0:4])
		assert.Equal(t, uint32(n), size, "length %d", n)
	}
}

func TestContentHashDeterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	a := ContentHash(data)
	b := ContentHash(data)
	assert.Equal(t, a, b)
}

func TestContentHashDiffersOnContent(t *testing.T) {
	a := ContentHash([]byte("alpha value"))
	b := ContentHash([]byte("beta! value"))
	assert.NotEqual(t, a, b)
}

func TestBlobHash128EmptyIsStable(t *testing.T) {
	a := BlobHash128(nil, 0)
	b := BlobHash128([]byte{}, 0)
	assert.Equal(t, a, b)
}

func TestBlobHash128SeedAffectsDigest(t *testing.T) {
	data := []byte("fixed payload")
	a := BlobHash128(data, 0)
	b := BlobHash128(data, 1)
	assert.NotEqual(t, a, b)
}
