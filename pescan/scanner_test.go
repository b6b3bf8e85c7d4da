package pescan

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImageBase = uint64(0x140000000)

// buildMinimalPE64 assembles a synthetic 64-bit PE image with two sections,
// `.rdata` and `.data`, wired up so that LocateReflectionRoot's three-hop
// pointer chase (rdata sentinel -> rdata pointer -> data pointer -> rdata
// root slot) succeeds and yields a known table offset and count.
func buildMinimalPE64(t *testing.T) ([]byte, uint32, uint64) {
	t.Helper()

	const (
		elfanew           = 128
		fileHeaderOffset  = elfanew + 4
		optHeaderOffset   = fileHeaderOffset + 20
		optHeaderSize     = 112
		sectionTableOff   = optHeaderOffset + optHeaderSize
		rdataPtrRawData   = 400
		rdataSizeRawData  = 256
		rdataVA           = 0x2000
		dataPtrRawData    = rdataPtrRawData + rdataSizeRawData
		dataSizeRawData   = 256
		dataVA            = 0x3000
		totalSize         = dataPtrRawData + dataSizeRawData
	)

	buf := make([]byte, totalSize)

	// DOS header.
	binary.LittleEndian.PutUint16(buf[0:2], ImageDOSSignature)
	binary.LittleEndian.PutUint32(buf[0x3C:0x40], elfanew)

	// NT signature + file header.
	binary.LittleEndian.PutUint32(buf[elfanew:elfanew+4], ImageNTSignature)
	binary.LittleEndian.PutUint16(buf[fileHeaderOffset:fileHeaderOffset+2], ImageFileMachineAMD64)
	binary.LittleEndian.PutUint16(buf[fileHeaderOffset+2:fileHeaderOffset+4], 2) // NumberOfSections
	binary.LittleEndian.PutUint16(buf[fileHeaderOffset+16:fileHeaderOffset+18], optHeaderSize)

	// Optional header.
	binary.LittleEndian.PutUint16(buf[optHeaderOffset:optHeaderOffset+2], ImageNTOptionalHdr64Magic)
	binary.LittleEndian.PutUint64(buf[optHeaderOffset+24:optHeaderOffset+32], testImageBase)
	binary.LittleEndian.PutUint32(buf[optHeaderOffset+32:optHeaderOffset+36], 0x1000)
	binary.LittleEndian.PutUint32(buf[optHeaderOffset+36:optHeaderOffset+40], 0x200)

	// Section table: .rdata then .data.
	rdataHdr := buf[sectionTableOff : sectionTableOff+40]
	copy(rdataHdr[0:8], ".rdata\x00\x00")
	binary.LittleEndian.PutUint32(rdataHdr[8:12], rdataSizeRawData)  // VirtualSize
	binary.LittleEndian.PutUint32(rdataHdr[12:16], rdataVA)          // VirtualAddress
	binary.LittleEndian.PutUint32(rdataHdr[16:20], rdataSizeRawData) // SizeOfRawData
	binary.LittleEndian.PutUint32(rdataHdr[20:24], rdataPtrRawData)  // PointerToRawData

	dataHdr := buf[sectionTableOff+40 : sectionTableOff+80]
	copy(dataHdr[0:8], ".data\x00\x00\x00")
	binary.LittleEndian.PutUint32(dataHdr[8:12], dataSizeRawData)
	binary.LittleEndian.PutUint32(dataHdr[12:16], dataVA)
	binary.LittleEndian.PutUint32(dataHdr[16:20], dataSizeRawData)
	binary.LittleEndian.PutUint32(dataHdr[20:24], dataPtrRawData)

	faToVA := func(fo uint32, sectionFO, sectionVA uint32) uint64 {
		return testImageBase + uint64(sectionVA+(fo-sectionFO))
	}

	// Sentinel string inside .rdata.
	const sentinelRel = 16
	sentinelFO := uint32(rdataPtrRawData + sentinelRel)
	copy(buf[sentinelFO:sentinelFO+12], reflectionSentinel)
	sentinelStrFO := sentinelFO + 1
	sentinelVA := faToVA(sentinelStrFO, rdataPtrRawData, rdataVA)

	// Hop 1: a pointer in .rdata pointing at the sentinel string.
	const hop1Rel = 40
	hop1FO := uint32(rdataPtrRawData + hop1Rel)
	binary.LittleEndian.PutUint64(buf[hop1FO:hop1FO+8], sentinelVA)
	hop1VA := faToVA(hop1FO, rdataPtrRawData, rdataVA)

	// Hop 2: a pointer in .data pointing at hop1's slot.
	const hop2Rel = 32
	hop2FO := uint32(dataPtrRawData + hop2Rel)
	binary.LittleEndian.PutUint64(buf[hop2FO:hop2FO+8], hop1VA)
	hop2VA := faToVA(hop2FO, dataPtrRawData, dataVA)

	// Root slot: a {table_ptr, count} pair in .rdata, found by searching for
	// a pointer to hop2's slot (whose value is, by construction, hop2VA
	// itself — see pescan.LocateReflectionRoot's doc comment).
	const rootSlotRel = 64
	rootSlotFO := uint32(rdataPtrRawData + rootSlotRel)
	const wantCount = uint64(3)
	binary.LittleEndian.PutUint64(buf[rootSlotFO:rootSlotFO+8], hop2VA)
	binary.LittleEndian.PutUint64(buf[rootSlotFO+8:rootSlotFO+16], wantCount)

	return buf, hop2FO, wantCount
}

func TestLocateReflectionRoot(t *testing.T) {
	data, wantTableFO, wantCount := buildMinimalPE64(t)

	s, err := OpenBytes(data, nil)
	require.NoError(t, err)

	tableOffset, count, err := s.LocateReflectionRoot()
	require.NoError(t, err)
	assert.Equal(t, wantTableFO, tableOffset)
	assert.Equal(t, wantCount, count)
}

func TestParseHeadersRejectsTooSmall(t *testing.T) {
	_, err := OpenBytes(make([]byte, 8), nil)
	assert.ErrorIs(t, err, ErrInvalidPESize)
}

func TestParseHeadersRejectsBadDOSMagic(t *testing.T) {
	data, _, _ := buildMinimalPE64(t)
	data[0] = 0x00
	data[1] = 0x00
	_, err := OpenBytes(data, nil)
	assert.ErrorIs(t, err, ErrDOSMagicNotFound)
}

func TestFileOffsetToVARoundTrip(t *testing.T) {
	data, _, _ := buildMinimalPE64(t)
	s, err := OpenBytes(data, nil)
	require.NoError(t, err)

	sec, ok := s.SectionByName(".rdata")
	require.True(t, ok)

	fo := sec.PointerToRawData + 10
	va, err := s.FileOffsetToVA(fo)
	require.NoError(t, err)

	gotFO, err := s.VAToFileOffset(va)
	require.NoError(t, err)
	assert.Equal(t, fo, gotFO)
}
