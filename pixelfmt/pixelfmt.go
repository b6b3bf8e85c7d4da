// Package pixelfmt describes the pixel formats referenced by
// RenderMaterialImage.format and UiTextureResource.format: a closed enum
// plus the block-size/dimension arithmetic needed to compute a mip
// level's byte size from its pixel dimensions.
package pixelfmt

import "fmt"

// PixelFormat enumerates the texture encodings the content pipeline's
// image resources declare.
type PixelFormat uint32

const (
	Unknown PixelFormat = iota
	R8Unorm
	R8G8Unorm
	R8G8B8A8Unorm
	R8G8B8A8UnormSrgb
	R16G16B16A16Float
	R32G32B32A32Float
	Bc1Unorm
	Bc1UnormSrgb
	Bc3Unorm
	Bc3UnormSrgb
	Bc4Unorm
	Bc5Unorm
	Bc6hUf16
	Bc7Unorm
	Bc7UnormSrgb
)

func (f PixelFormat) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("PixelFormat(%d)", uint32(f))
}

var formatNames = map[PixelFormat]string{
	Unknown:           "Unknown",
	R8Unorm:           "R8Unorm",
	R8G8Unorm:         "R8G8Unorm",
	R8G8B8A8Unorm:     "R8G8B8A8Unorm",
	R8G8B8A8UnormSrgb: "R8G8B8A8UnormSrgb",
	R16G16B16A16Float: "R16G16B16A16Float",
	R32G32B32A32Float: "R32G32B32A32Float",
	Bc1Unorm:          "Bc1Unorm",
	Bc1UnormSrgb:      "Bc1UnormSrgb",
	Bc3Unorm:          "Bc3Unorm",
	Bc3UnormSrgb:      "Bc3UnormSrgb",
	Bc4Unorm:          "Bc4Unorm",
	Bc5Unorm:          "Bc5Unorm",
	Bc6hUf16:          "Bc6hUf16",
	Bc7Unorm:          "Bc7Unorm",
	Bc7UnormSrgb:      "Bc7UnormSrgb",
}

// blockInfo is the per-format block shape: block edge length in pixels
// (1 for uncompressed formats) and bytes per block.
type blockInfo struct {
	dim   int
	bytes int
}

var blockTable = map[PixelFormat]blockInfo{
	Unknown:           {dim: 1, bytes: 0},
	R8Unorm:           {dim: 1, bytes: 1},
	R8G8Unorm:         {dim: 1, bytes: 2},
	R8G8B8A8Unorm:     {dim: 1, bytes: 4},
	R8G8B8A8UnormSrgb: {dim: 1, bytes: 4},
	R16G16B16A16Float: {dim: 1, bytes: 8},
	R32G32B32A32Float: {dim: 1, bytes: 16},
	Bc1Unorm:          {dim: 4, bytes: 8},
	Bc1UnormSrgb:      {dim: 4, bytes: 8},
	Bc3Unorm:          {dim: 4, bytes: 16},
	Bc3UnormSrgb:      {dim: 4, bytes: 16},
	Bc4Unorm:          {dim: 4, bytes: 8},
	Bc5Unorm:          {dim: 4, bytes: 16},
	Bc6hUf16:          {dim: 4, bytes: 16},
	Bc7Unorm:          {dim: 4, bytes: 16},
	Bc7UnormSrgb:      {dim: 4, bytes: 16},
}

// BlockDim returns the edge length, in pixels, of one compressed block —
// 1 for uncompressed formats, 4 for every BCn format this enum carries.
func BlockDim(f PixelFormat) int {
	if info, ok := blockTable[f]; ok {
		return info.dim
	}
	return 1
}

// BytesPerBlock returns the encoded byte size of one block (or one texel,
// for uncompressed formats).
func BytesPerBlock(f PixelFormat) int {
	if info, ok := blockTable[f]; ok {
		return info.bytes
	}
	return 0
}

// MipByteSize computes the encoded byte size of a single mip level with
// the given pixel dimensions, rounding up to whole blocks in each axis.
func MipByteSize(f PixelFormat, width, height uint32) int64 {
	dim := int64(BlockDim(f))
	blocksWide := (int64(width) + dim - 1) / dim
	blocksHigh := (int64(height) + dim - 1) / dim
	return blocksWide * blocksHigh * int64(BytesPerBlock(f))
}
