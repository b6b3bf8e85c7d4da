package pescan

import (
	"encoding/binary"
	"strings"
)

// ImageSectionHeader is one row of the section table.
type ImageSectionHeader struct {
	Name                 [8]byte `json:"name"`
	VirtualSize          uint32  `json:"virtual_size"`
	VirtualAddress       uint32  `json:"virtual_address"`
	SizeOfRawData        uint32  `json:"size_of_raw_data"`
	PointerToRawData     uint32  `json:"pointer_to_raw_data"`
	PointerToRelocations uint32  `json:"pointer_to_relocations"`
	PointerToLineNumbers uint32  `json:"pointer_to_line_numbers"`
	NumberOfRelocations  uint16  `json:"number_of_relocations"`
	NumberOfLineNumbers  uint16  `json:"number_of_line_numbers"`
	Characteristics      uint32  `json:"characteristics"`
}

// NameString returns the section's 8-byte name with trailing NULs trimmed.
func (h ImageSectionHeader) NameString() string {
	return strings.TrimRight(string(h.Name[:]), "\x00")
}

// ParseSectionHeader reads the section table immediately following the
// optional header.
func (s *Scanner) ParseSectionHeader() error {
	header := ImageSectionHeader{}
	headerSize := uint32(binary.Size(header))
	offset := s.sectionTableOffset

	for i := uint16(0); i < s.NTHeader.FileHeader.NumberOfSections; i++ {
		if err := s.structUnpack(&header, offset, headerSize); err != nil {
			return err
		}
		s.Sections = append(s.Sections, header)
		offset += headerSize
	}

	return nil
}

// SectionByName returns the first section whose trimmed name matches name.
func (s *Scanner) SectionByName(name string) (ImageSectionHeader, bool) {
	for _, sec := range s.Sections {
		if sec.NameString() == name {
			return sec, true
		}
	}
	return ImageSectionHeader{}, false
}

// RawData returns the section's on-disk bytes.
func (s *Scanner) RawData(sec ImageSectionHeader) ([]byte, error) {
	return s.ReadBytesAt(sec.PointerToRawData, sec.SizeOfRawData)
}
