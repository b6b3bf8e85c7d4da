package guid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashSizeLane(t *testing.T) {
	c := NewContentHash(42, 1, 2, 3)
	assert.Equal(t, uint32(42), c.Size())
}

func TestHashContentSizeEqualsLength(t *testing.T) {
	data := []byte("some blob content, arbitrary length padding out a bit")
	c := HashContent(data)
	assert.Equal(t, uint32(len(data)), c.Size())
}

func TestContentHashRoundTrip(t *testing.T) {
	data := []byte("round trip me")
	c := HashContent(data)
	s := c.String()

	parsed, err := ParseContentHash(s)
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestContentHashNone(t *testing.T) {
	assert.True(t, NoneContentHash.IsNone())
	c := HashContent([]byte("x"))
	assert.False(t, c.IsNone())
}

func TestContentHashStaticHashIsH0Lane(t *testing.T) {
	c := NewContentHash(7, 0xAABBCCDD, 0, 0)
	assert.Equal(t, uint32(0xAABBCCDD), c.StaticHash())
}
