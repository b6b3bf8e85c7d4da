package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfcio/kfc/guid"
)

func TestParseDescriptorArgQualifiedForm(t *testing.T) {
	id := guid.DescriptorID{
		Data:     guid.Guid{0x33, 0x22, 0x11, 0x00, 0x55, 0x44, 0x77, 0x66, 0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		TypeHash: 0xDEADBEEF,
		Part:     7,
	}

	got, err := parseDescriptorArg(id.QualifiedString())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseDescriptorArgBareFormUsesFlags(t *testing.T) {
	catTypeHash = 0xAABBCCDD
	catPart = 3
	defer func() { catTypeHash, catPart = 0, 0 }()

	bare := "00112233-4455-6677-8899-aabbccddeeff"
	got, err := parseDescriptorArg(bare)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAABBCCDD), got.TypeHash)
	assert.Equal(t, uint32(3), got.Part)
	assert.Equal(t, bare, got.Data.String())
}

func TestParseDescriptorArgsRejectsMalformedGuid(t *testing.T) {
	_, err := parseDescriptorArgs([]string{"not-a-guid"})
	assert.Error(t, err)
}

func TestParseDescriptorArgsPreservesOrder(t *testing.T) {
	a := "00112233-4455-6677-8899-aabbccddeeff"
	b := "ffeeddcc-bbaa-9988-7766-554433221100"
	catTypeHash, catPart = 0, 0

	ids, err := parseDescriptorArgs([]string{a, b})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, a, ids[0].Data.String())
	assert.Equal(t, b, ids[1].Data.String())
}
