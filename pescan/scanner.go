// Package pescan parses just enough of a PE32+ executable to locate an
// embedded reflection root table: DOS/NT headers, the section table, and a
// sentinel-byte-pattern pointer chase through `.rdata`/`.data`. It is not a
// general-purpose PE dumper — it reads only what the reflection package
// needs to find where type metadata starts.
package pescan

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/kfcio/kfc/internal/klog"
)

// Errors returned while locating the DOS/NT headers or the reflection root.
var (
	ErrInvalidPESize          = errors.New("pescan: file smaller than a DOS header")
	ErrDOSMagicNotFound       = errors.New("pescan: DOS header magic not found")
	ErrInvalidElfanewValue    = errors.New("pescan: e_lfanew value out of bounds")
	ErrInvalidNtHeaderOffset  = errors.New("pescan: NT header signature not found")
	ErrUnsupportedMachineType = errors.New("pescan: unsupported machine type")
	ErrNot64Bit               = errors.New("pescan: not a PE32+ (64-bit) image")
	ErrOutsideBoundary        = errors.New("pescan: read outside file boundary")
	ErrMissingSection         = errors.New("pescan: required section not found")
	ErrSentinelNotFound       = errors.New("pescan: reflection sentinel pattern not found")
	ErrPointerChaseFailed     = errors.New("pescan: pointer chase to reflection root failed")
	ErrVAOutsideAnySection    = errors.New("pescan: virtual address does not map to any section")
)

// reflectionSentinel is the null-prefixed ASCII marker ("\0BlobString\0")
// the reflection root chase searches for inside `.rdata`.
var reflectionSentinel = []byte{0x00, 0x42, 0x6C, 0x6F, 0x62, 0x53, 0x74, 0x72, 0x69, 0x6E, 0x67, 0x00}

// Options configures a Scanner.
type Options struct {
	Logger *klog.Helper
}

// Scanner holds a memory-mapped (or in-memory) PE image and the headers
// parsed from it.
type Scanner struct {
	DOSHeader ImageDOSHeader
	NTHeader  ImageNtHeader
	Sections  []ImageSectionHeader

	data               []byte
	mapped             mmap.MMap
	f                  *os.File
	size               uint32
	sectionTableOffset uint32
	logger             *klog.Helper
}

// Open memory-maps the executable at path and parses its headers.
func Open(path string, opts *Options) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	s := newScanner(data, opts)
	s.f = f
	s.mapped = data

	if err := s.parse(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenBytes parses headers out of an in-memory executable image, useful in
// tests that don't want to touch the filesystem.
func OpenBytes(data []byte, opts *Options) (*Scanner, error) {
	s := newScanner(data, opts)
	if err := s.parse(); err != nil {
		return nil, err
	}
	return s, nil
}

func newScanner(data []byte, opts *Options) *Scanner {
	s := &Scanner{data: data, size: uint32(len(data))}
	if opts != nil && opts.Logger != nil {
		s.logger = opts.Logger
	} else {
		s.logger = klog.NewNop()
	}
	return s
}

func (s *Scanner) parse() error {
	if len(s.data) < 64 {
		return ErrInvalidPESize
	}
	if err := s.ParseDOSHeader(); err != nil {
		return err
	}
	if err := s.ParseNTHeader(); err != nil {
		return err
	}
	return s.ParseSectionHeader()
}

// Close releases the memory mapping (a no-op for OpenBytes-constructed
// scanners).
func (s *Scanner) Close() error {
	if s.mapped != nil {
		_ = s.mapped.Unmap()
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

func (s *Scanner) structUnpack(iface interface{}, offset, size uint32) error {
	total := offset + size
	if total < offset || offset >= s.size || total > s.size {
		return ErrOutsideBoundary
	}
	return binary.Read(bytes.NewReader(s.data[offset:total]), binary.LittleEndian, iface)
}

// ReadBytesAt returns a slice of the raw image bytes at [offset, offset+n).
func (s *Scanner) ReadBytesAt(offset, n uint32) ([]byte, error) {
	total := offset + n
	if total < offset || offset >= s.size || total > s.size {
		return nil, ErrOutsideBoundary
	}
	return s.data[offset:total], nil
}

// ReadU8At reads a single byte.
func (s *Scanner) ReadU8At(offset uint32) (uint8, error) {
	b, err := s.ReadBytesAt(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16At reads a little-endian uint16.
func (s *Scanner) ReadU16At(offset uint32) (uint16, error) {
	b, err := s.ReadBytesAt(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32At reads a little-endian uint32.
func (s *Scanner) ReadU32At(offset uint32) (uint32, error) {
	b, err := s.ReadBytesAt(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64At reads a little-endian uint64.
func (s *Scanner) ReadU64At(offset uint32) (uint64, error) {
	b, err := s.ReadBytesAt(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadStringAt reads n raw bytes at offset and returns them as a string.
func (s *Scanner) ReadStringAt(offset uint32, n uint32) (string, error) {
	b, err := s.ReadBytesAt(offset, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FileOffsetToVA converts a file offset to the absolute virtual address
// (ImageBase + RVA) of whichever section's raw-data range contains it.
func (s *Scanner) FileOffsetToVA(offset uint32) (uint64, error) {
	for _, sec := range s.Sections {
		if offset >= sec.PointerToRawData && offset < sec.PointerToRawData+sec.SizeOfRawData {
			rva := sec.VirtualAddress + (offset - sec.PointerToRawData)
			return s.NTHeader.OptionalHeader.ImageBase + uint64(rva), nil
		}
	}
	return 0, ErrVAOutsideAnySection
}

// VAToFileOffset converts an absolute virtual address back to a file offset
// via whichever section's virtual-address range contains it.
func (s *Scanner) VAToFileOffset(va uint64) (uint32, error) {
	if va < s.NTHeader.OptionalHeader.ImageBase {
		return 0, ErrVAOutsideAnySection
	}
	rva := uint32(va - s.NTHeader.OptionalHeader.ImageBase)

	for _, sec := range s.Sections {
		if rva >= sec.VirtualAddress && rva < sec.VirtualAddress+sec.VirtualSize {
			return sec.PointerToRawData + (rva - sec.VirtualAddress), nil
		}
	}
	return 0, ErrVAOutsideAnySection
}

// ResolvePointer reads an 8-byte pointer (stored as an absolute VA) at
// offset and returns the file offset it points to.
func (s *Scanner) ResolvePointer(offset uint32) (uint32, error) {
	va, err := s.ReadU64At(offset)
	if err != nil {
		return 0, err
	}
	return s.VAToFileOffset(va)
}

// findBytes searches data for pattern starting at searchStart, returning the
// byte offset relative to the start of data.
func findBytes(data []byte, searchStart int, pattern []byte) (int, bool) {
	if searchStart < 0 {
		searchStart = 0
	}
	if searchStart >= len(data) {
		return 0, false
	}
	idx := bytes.Index(data[searchStart:], pattern)
	if idx < 0 {
		return 0, false
	}
	return searchStart + idx, true
}

// findPointerToVA scans sectionData (the raw bytes of one section, living at
// file offset sectionFO) for an 8-byte-aligned little-endian u64 equal to
// target, returning the absolute file offset of the matching pointer slot.
func findPointerToVA(sectionData []byte, sectionFO uint32, target uint64) (uint32, bool) {
	for i := 0; i+8 <= len(sectionData); i += 8 {
		if binary.LittleEndian.Uint64(sectionData[i:i+8]) == target {
			return sectionFO + uint32(i), true
		}
	}
	return 0, false
}

// LocateReflectionRoot runs the three-hop pointer chase described by the
// reflection scanner: find the sentinel string in `.rdata`, then follow
// rdata->data->rdata pointer hops to the slot holding the root table
// pointer, returning the root table's file offset and its entry count.
func (s *Scanner) LocateReflectionRoot() (tableOffset uint32, count uint64, err error) {
	rdata, ok := s.SectionByName(".rdata")
	if !ok {
		return 0, 0, ErrMissingSection
	}
	data, ok := s.SectionByName(".data")
	if !ok {
		return 0, 0, ErrMissingSection
	}

	rdataBytes, err := s.RawData(rdata)
	if err != nil {
		return 0, 0, err
	}
	dataBytes, err := s.RawData(data)
	if err != nil {
		return 0, 0, err
	}

	sentinelRel, ok := findBytes(rdataBytes, 0, reflectionSentinel)
	if !ok {
		return 0, 0, ErrSentinelNotFound
	}
	// Skip the leading NUL byte of the sentinel pattern: the string literal
	// itself starts one byte in.
	sentinelFO := rdata.PointerToRawData + uint32(sentinelRel) + 1
	sentinelVA, err := s.FileOffsetToVA(sentinelFO)
	if err != nil {
		return 0, 0, err
	}

	hop1FO, ok := findPointerToVA(rdataBytes, rdata.PointerToRawData, sentinelVA)
	if !ok {
		return 0, 0, ErrPointerChaseFailed
	}
	hop1VA, err := s.FileOffsetToVA(hop1FO)
	if err != nil {
		return 0, 0, err
	}

	hop2FO, ok := findPointerToVA(dataBytes, data.PointerToRawData, hop1VA)
	if !ok {
		return 0, 0, ErrPointerChaseFailed
	}
	hop2VA, err := s.FileOffsetToVA(hop2FO)
	if err != nil {
		return 0, 0, err
	}

	rootSlotFO, ok := findPointerToVA(rdataBytes, rdata.PointerToRawData, hop2VA)
	if !ok {
		return 0, 0, ErrPointerChaseFailed
	}

	tablePtrVA, err := s.ReadU64At(rootSlotFO)
	if err != nil {
		return 0, 0, err
	}
	tableFO, err := s.VAToFileOffset(tablePtrVA)
	if err != nil {
		return 0, 0, err
	}
	tableCount, err := s.ReadU64At(rootSlotFO + 8)
	if err != nil {
		return 0, 0, err
	}

	return tableFO, tableCount, nil
}
