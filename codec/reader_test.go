package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfcio/kfc/reflection"
)

func TestDecodeScalarsCompact(t *testing.T) {
	reg := newSampleRegistry()
	data, err := Encode(reg, tSample, sampleValue(), Compact)
	require.NoError(t, err)

	v, err := Decode(reg, tSample, data, Compact)
	require.NoError(t, err)

	s := v.AsStruct()
	count, _ := s.Get("count")
	assert.Equal(t, uint64(7), count.AsUInt())

	ratio, _ := s.Get("ratio")
	assert.Equal(t, float64(float32(1.5)), ratio.AsFloat())

	enabled, _ := s.Get("enabled")
	assert.True(t, enabled.AsBool())

	color, _ := s.Get("color")
	assert.Equal(t, KindUInt, color.Kind)
	assert.Equal(t, uint64(1), color.AsUInt())
}

func TestDecodeEnumHumanReadable(t *testing.T) {
	reg := newSampleRegistry()
	data, err := Encode(reg, tSample, sampleValue(), Compact)
	require.NoError(t, err)

	v, err := Decode(reg, tSample, data, HumanReadable)
	require.NoError(t, err)

	color, _ := v.AsStruct().Get("color")
	assert.Equal(t, KindString, color.Kind)
	assert.Equal(t, "Green", color.AsString())
}

func TestDecodeBitmaskHumanReadable(t *testing.T) {
	reg := newSampleRegistry()
	data, err := Encode(reg, tSample, sampleValue(), Compact)
	require.NoError(t, err)

	v, err := Decode(reg, tSample, data, HumanReadable)
	require.NoError(t, err)

	flags, _ := v.AsStruct().Get("flags")
	require.Equal(t, KindArray, flags.Kind)
	var names []string
	for _, item := range flags.AsArray() {
		names = append(names, item.AsString())
	}
	assert.Equal(t, []string{"A", "C"}, names)
}

func TestDecodeBlobStringEmpty(t *testing.T) {
	reg := newSampleRegistry()
	s := baseSampleStruct()
	s.Set("label", String(""))

	data, err := Encode(reg, tSample, StructValue(s), Compact)
	require.NoError(t, err)

	v, err := Decode(reg, tSample, data, Compact)
	require.NoError(t, err)

	label, _ := v.AsStruct().Get("label")
	assert.Equal(t, "", label.AsString())
}

func TestDecodeBlobVariantResolvesConcreteType(t *testing.T) {
	reg := newSampleRegistry()
	data, err := Encode(reg, tSample, sampleValue(), Compact)
	require.NoError(t, err)

	v, err := Decode(reg, tSample, data, Compact)
	require.NoError(t, err)

	payload, _ := v.AsStruct().Get("payload")
	require.Equal(t, KindVariant, payload.Kind)
	variant := payload.AsVariant()
	assert.Equal(t, tVariantSub, variant.Type)

	sub := variant.Value.AsStruct()
	tag, _ := sub.Get("tag")
	assert.Equal(t, uint64(1), tag.AsUInt())
	extra, _ := sub.Get("extra")
	assert.Equal(t, uint64(99), extra.AsUInt())
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	reg := newSampleRegistry()
	_, err := Decode(reg, tSample, make([]byte, 4), Compact)
	require.Error(t, err)

	var rerr *ReaderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, kindUnexpectedEOF, rerr.Kind)
}

func TestDecodeInvalidTypeIndex(t *testing.T) {
	reg := newSampleRegistry()
	_, err := Decode(reg, reflection.TypeIndex(9999), make([]byte, 16), Compact)
	require.Error(t, err)
}
