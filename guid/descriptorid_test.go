package guid

import (
	"bytes"
	"testing"

	"github.com/kfcio/kfc/binio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedStringRoundTrip(t *testing.T) {
	const qualified = "40e6ba42-a397-5790-a5c9-a4151fffe1c5_647628d6_420"

	d, err := ParseQualifiedDescriptorID(qualified)
	require.NoError(t, err)
	assert.Equal(t, qualified, d.QualifiedString())
}

func TestBareStringRoundTrip(t *testing.T) {
	const bare = "40e6ba42-a397-5790-a5c9-a4151fffe1c5"

	d, err := ParseDescriptorID(bare, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, bare, d.String())
}

func TestDescriptorIDStaticHashSeededByData(t *testing.T) {
	a, err := ParseDescriptorID("40e6ba42-a397-5790-a5c9-a4151fffe1c5", 1, 2)
	require.NoError(t, err)
	b, err := ParseDescriptorID("00112233-4455-6677-8899-aabbccddeeff", 1, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.StaticHash(), b.StaticHash())
}

func TestDescriptorIDReadWriteRoundTrip(t *testing.T) {
	d, err := ParseQualifiedDescriptorID("40e6ba42-a397-5790-a5c9-a4151fffe1c5_647628d6_420")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	require.NoError(t, WriteDescriptorID(w, d))
	assert.Equal(t, DescriptorIDSize, buf.Len())

	r := binio.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadDescriptorID(r)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDescriptorIDIsNone(t *testing.T) {
	assert.True(t, NoneDescriptorID.IsNone())
}
