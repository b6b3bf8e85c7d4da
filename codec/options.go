package codec

// EnumRepr controls how Decode materializes an enum value.
type EnumRepr int

const (
	// EnumAsInteger decodes an enum as its raw underlying UInt.
	EnumAsInteger EnumRepr = iota
	// EnumAsName decodes an enum as its member name (String), falling back
	// to the raw integer if no matching member exists.
	EnumAsName
)

// BitmaskRepr controls how Decode materializes a bitmask value.
type BitmaskRepr int

const (
	// BitmaskAsInteger decodes a bitmask as its raw underlying UInt.
	BitmaskAsInteger BitmaskRepr = iota
	// BitmaskAsNames decodes a bitmask as an ordered Array of set-bit
	// names (low-to-high), with unnamed bits appearing as their bit index.
	BitmaskAsNames
)

// VariantOptions controls how Decode/Encode materialize a BlobVariant.
type VariantOptions struct {
	// HumanReadable makes the JSON bridge write the variant's "$type" as the
	// qualified type name instead of the numeric type index; both modes
	// write the {"$type": ..., "$value": ...} object.
	HumanReadable bool
}

// ConversionOptions bundles every knob governing Decode/Encode output
// shape, mirroring kfc-resource's ConversionOptions/COMPACT/HUMAN_READABLE
// constants.
type ConversionOptions struct {
	EnumRepr      EnumRepr
	BitmaskRepr   BitmaskRepr
	Variant       VariantOptions
	GuidAsString  bool
}

// Compact is the machine-oriented default: integers stay integers, guids
// stay structured, variants stay index-keyed.
var Compact = ConversionOptions{
	EnumRepr:     EnumAsInteger,
	BitmaskRepr:  BitmaskAsInteger,
	Variant:      VariantOptions{HumanReadable: false},
	GuidAsString: false,
}

// HumanReadable favors names over numbers wherever the registry can supply
// one.
var HumanReadable = ConversionOptions{
	EnumRepr:     EnumAsName,
	BitmaskRepr:  BitmaskAsNames,
	Variant:      VariantOptions{HumanReadable: true},
	GuidAsString: true,
}
