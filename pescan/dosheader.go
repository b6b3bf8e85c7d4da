package pescan

import "encoding/binary"

// ImageDOSSignature is the `MZ` magic at the start of every PE/DOS image.
const ImageDOSSignature = 0x5A4D

// ImageDOSHeader is the DOS stub header every PE file begins with. Every
// field is decoded; the scanner consults only two of them: the magic, for
// validation, and AddressOfNewEXEHeader (e_lfanew), the offset to the NT
// header.
type ImageDOSHeader struct {
	Magic                 uint16   `json:"magic"`
	BytesOnLastPageOfFile uint16   `json:"bytes_on_last_page_of_file"`
	PagesInFile           uint16   `json:"pages_in_file"`
	Relocations           uint16   `json:"relocations"`
	SizeOfHeader          uint16   `json:"size_of_header"`
	MinExtraParagraphs    uint16   `json:"min_extra_paragraphs_needed"`
	MaxExtraParagraphs    uint16   `json:"max_extra_paragraphs_needed"`
	InitialSS             uint16   `json:"initial_ss"`
	InitialSP             uint16   `json:"initial_sp"`
	Checksum              uint16   `json:"checksum"`
	InitialIP             uint16   `json:"initial_ip"`
	InitialCS             uint16   `json:"initial_cs"`
	AddrOfRelocationTable uint16   `json:"address_of_relocation_table"`
	OverlayNumber         uint16   `json:"overlay_number"`
	ReservedWords1        [4]uint16 `json:"reserved_words_1"`
	OEMIdentifier         uint16   `json:"oem_identifier"`
	OEMInformation        uint16   `json:"oem_information"`
	ReservedWords2        [10]uint16 `json:"reserved_words_2"`
	AddressOfNewEXEHeader uint32   `json:"address_of_new_exe_header"`
}

// ParseDOSHeader parses and validates the DOS stub header.
func (s *Scanner) ParseDOSHeader() error {
	size := uint32(binary.Size(s.DOSHeader))
	if err := s.structUnpack(&s.DOSHeader, 0, size); err != nil {
		return err
	}

	if s.DOSHeader.Magic != ImageDOSSignature {
		return ErrDOSMagicNotFound
	}

	if s.DOSHeader.AddressOfNewEXEHeader < 4 || s.DOSHeader.AddressOfNewEXEHeader > s.size {
		return ErrInvalidElfanewValue
	}

	return nil
}
