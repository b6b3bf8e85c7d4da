package guid

import (
	"testing"

	"github.com/kfcio/kfc/khash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGuidBytes = Guid{
	0x33, 0x22, 0x11, 0x00,
	0x55, 0x44,
	0x77, 0x66,
	0x88, 0x99,
	0xAA, 0xBB, 0xCC, 0xDD,
	0xEE, 0xFF,
}

const testGuidStrLower = "00112233-4455-6677-8899-aabbccddeeff"
const testGuidStrUpper = "00112233-4455-6677-8899-AABBCCDDEEFF"

func TestParseLower(t *testing.T) {
	g, err := Parse(testGuidStrLower)
	require.NoError(t, err)
	assert.Equal(t, testGuidBytes, g)
}

func TestParseUpper(t *testing.T) {
	g, err := Parse(testGuidStrUpper)
	require.NoError(t, err)
	assert.Equal(t, testGuidBytes, g)
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"invalid-guid",
		"12345678-1234-1234-1234-1234567890a",
		"00112233-4455-6677-8899-aabbccddeeffg",
		"00112233445566778899aabbccddeeff",
	}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Error(t, err, c)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, testGuidStrLower, testGuidBytes.String())
}

func TestRoundTrip(t *testing.T) {
	g, err := Parse(testGuidStrLower)
	require.NoError(t, err)
	assert.Equal(t, testGuidStrLower, g.String())
}

func TestHash32MatchesFNV(t *testing.T) {
	g, err := Parse(testGuidStrLower)
	require.NoError(t, err)
	assert.Equal(t, khash.FNV1a(g[:]), g.Hash32())
}

func TestIsNone(t *testing.T) {
	assert.True(t, None.IsNone())
	g, _ := Parse(testGuidStrLower)
	assert.False(t, g.IsNone())
}
