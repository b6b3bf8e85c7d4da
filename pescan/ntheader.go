package pescan

import "encoding/binary"

// ImageNTSignature is the `PE\0\0` signature at the start of the NT headers.
const ImageNTSignature = 0x00004550

// ImageFileMachineAMD64 is the only machine type the scanner accepts: the
// reflection root chase below assumes a 64-bit image (8-byte pointers).
const ImageFileMachineAMD64 = 0x8664

// ImageNTOptionalHdr64Magic identifies the PE32+ optional header.
const ImageNTOptionalHdr64Magic = 0x20b

// ImageFileHeader is the COFF file header embedded in the NT headers.
type ImageFileHeader struct {
	Machine              uint16 `json:"machine"`
	NumberOfSections     uint16 `json:"number_of_sections"`
	TimeDateStamp        uint32 `json:"time_date_stamp"`
	PointerToSymbolTable uint32 `json:"pointer_to_symbol_table"`
	NumberOfSymbols      uint32 `json:"number_of_symbols"`
	SizeOfOptionalHeader uint16 `json:"size_of_optional_header"`
	Characteristics      uint16 `json:"characteristics"`
}

// ImageOptionalHeader64 holds the leading fields of the PE32+ optional
// header. ParseNTHeader fills only four of them: the magic (to confirm
// PE32+), the image base used to translate between file offsets and the
// virtual addresses stored in the reflection tables, and the section and
// file alignments; the other fields stay zero.
type ImageOptionalHeader64 struct {
	Magic                   uint16  `json:"magic"`
	MajorLinkerVersion      uint8   `json:"major_linker_version"`
	MinorLinkerVersion      uint8   `json:"minor_linker_version"`
	SizeOfCode              uint32  `json:"size_of_code"`
	SizeOfInitializedData   uint32  `json:"size_of_initialized_data"`
	SizeOfUninitializedData uint32  `json:"size_of_uninitialized_data"`
	AddressOfEntryPoint     uint32  `json:"address_of_entrypoint"`
	BaseOfCode              uint32  `json:"base_of_code"`
	ImageBase               uint64  `json:"image_base"`
	SectionAlignment        uint32  `json:"section_alignment"`
	FileAlignment           uint32  `json:"file_alignment"`
}

// ImageNtHeader is the PE header proper: signature, COFF file header, and
// (for this scanner) just enough of the optional header to recover the
// image base.
type ImageNtHeader struct {
	Signature      uint32
	FileHeader     ImageFileHeader
	OptionalHeader ImageOptionalHeader64
}

// ParseNTHeader parses the NT headers following the DOS stub, requiring a
// 64-bit (PE32+) image — the reflection root chase assumes 8-byte pointers.
func (s *Scanner) ParseNTHeader() error {
	offset := s.DOSHeader.AddressOfNewEXEHeader

	sig, err := s.ReadU32At(offset)
	if err != nil {
		return err
	}
	if sig != ImageNTSignature {
		return ErrInvalidNtHeaderOffset
	}
	s.NTHeader.Signature = sig

	fileHeaderOffset := offset + 4
	fileHeaderSize := uint32(binary.Size(s.NTHeader.FileHeader))
	if err := s.structUnpack(&s.NTHeader.FileHeader, fileHeaderOffset, fileHeaderSize); err != nil {
		return err
	}

	if s.NTHeader.FileHeader.Machine != ImageFileMachineAMD64 {
		return ErrUnsupportedMachineType
	}

	optHeaderOffset := fileHeaderOffset + fileHeaderSize
	optHeaderMagic, err := s.ReadU16At(optHeaderOffset)
	if err != nil {
		return err
	}
	if optHeaderMagic != ImageNTOptionalHdr64Magic {
		return ErrNot64Bit
	}

	imageBase, err := s.ReadU64At(optHeaderOffset + 24)
	if err != nil {
		return err
	}
	s.NTHeader.OptionalHeader.Magic = optHeaderMagic
	s.NTHeader.OptionalHeader.ImageBase = imageBase

	sectionAlignment, err := s.ReadU32At(optHeaderOffset + 32)
	if err != nil {
		return err
	}
	fileAlignment, err := s.ReadU32At(optHeaderOffset + 36)
	if err != nil {
		return err
	}
	s.NTHeader.OptionalHeader.SectionAlignment = sectionAlignment
	s.NTHeader.OptionalHeader.FileAlignment = fileAlignment

	s.sectionTableOffset = optHeaderOffset + uint32(s.NTHeader.FileHeader.SizeOfOptionalHeader)
	return nil
}
