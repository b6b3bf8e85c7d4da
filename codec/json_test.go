package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsoniter "github.com/json-iterator/go"
)

func TestMarshalJSONPreservesFieldOrder(t *testing.T) {
	reg := newSampleRegistry()
	v := sampleValue()

	data, err := MarshalJSON(reg, v, Compact)
	require.NoError(t, err)

	var order []string
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		order = append(order, field)
		it.Skip()
		return true
	})
	assert.Equal(t, []string{"count", "ratio", "enabled", "color", "flags", "label", "items", "maybe", "id", "payload"}, order)
}

func TestMarshalUnmarshalJSONRoundTrip(t *testing.T) {
	reg := newSampleRegistry()
	v := sampleValue()

	data, err := MarshalJSON(reg, v, Compact)
	require.NoError(t, err)

	back, err := UnmarshalJSON(reg, tSample, data, Compact)
	require.NoError(t, err)

	reencoded, err := Encode(reg, tSample, back, Compact)
	require.NoError(t, err)
	original, err := Encode(reg, tSample, v, Compact)
	require.NoError(t, err)

	assert.Equal(t, original, reencoded)
}

func TestMarshalGuidCompactVsHumanReadable(t *testing.T) {
	reg := newSampleRegistry()
	v := sampleValue()

	compact, err := MarshalJSON(reg, v, Compact)
	require.NoError(t, err)
	assert.Contains(t, string(compact), `"$guid"`)

	human, err := MarshalJSON(reg, v, HumanReadable)
	require.NoError(t, err)
	assert.NotContains(t, string(human), `"$guid"`)
	assert.Contains(t, string(human), sampleGuid().String())
}

func TestMarshalVariantHumanReadableUsesQualifiedName(t *testing.T) {
	reg := newSampleRegistry()
	v := sampleValue()

	data, err := MarshalJSON(reg, v, HumanReadable)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Sub"`)
}

func TestUnmarshalMissingFieldFails(t *testing.T) {
	reg := newSampleRegistry()
	_, err := UnmarshalJSON(reg, tSample, []byte(`{"count": 1}`), Compact)
	require.Error(t, err)

	var rerr *ReaderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, kindMissingField, rerr.Kind)
}

func TestMarshalDescriptorRootAndBack(t *testing.T) {
	reg := newSampleRegistry()
	v := sampleValue()
	id := sampleGuid()

	data, err := MarshalDescriptorRoot(reg, tSample, id, 3, v, Compact)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$type":"Sample"`)
	assert.Contains(t, string(data), `"$part":3`)

	back, gotID, gotPart, err := UnmarshalDescriptorRoot(reg, tSample, data, Compact)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, uint32(3), gotPart)

	reencoded, err := Encode(reg, tSample, back, Compact)
	require.NoError(t, err)
	original, err := Encode(reg, tSample, v, Compact)
	require.NoError(t, err)
	assert.Equal(t, original, reencoded)
}

func TestUnmarshalDescriptorRootMalformedGuid(t *testing.T) {
	reg := newSampleRegistry()
	_, _, _, err := UnmarshalDescriptorRoot(reg, tSample, []byte(`{"$guid": "not-a-guid", "$part": 0}`), Compact)
	require.Error(t, err)

	var rerr *ReaderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, kindMalformedGuid, rerr.Kind)
}
