package khash

import "encoding/binary"

var (
	initialState1 = [16]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}
	initialState2 = [16]byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f}
	initialState3 = [16]byte{0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f}
	initialState4 = [16]byte{0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f}
)

// BlobHash128 computes the raw 128-bit digest of data, mixing in seed at
// finalization. It does not overwrite the leading 4 bytes with the data
// length; callers wanting the canonical BlobGuid identity (size lane
// overwritten) should use ContentHash instead.
func BlobHash128(data []byte, seed uint64) [16]byte {
	state1 := initialState1
	state2 := initialState2
	state3 := initialState3
	state4 := initialState4

	n := len(data)
	offset := 0

	for offset+64 <= n {
		block(&state1, data, offset)
		block(&state2, data, offset+16)
		block(&state3, data, offset+32)
		block(&state4, data, offset+48)
		offset += 64
	}

	if offset+16 <= n {
		block(&state1, data, offset)
		offset += 16
	}
	if offset+16 <= n {
		block(&state2, data, offset)
		offset += 16
	}
	if offset+16 <= n {
		block(&state3, data, offset)
		offset += 16
	}
	if offset < n {
		var tmp [16]byte
		copy(tmp[:], data[offset:n])
		equivInvCipherRound(&state4, &tmp)
	}

	var seedState [16]byte
	binary.LittleEndian.PutUint64(seedState[0:8], seed-uint64(n))
	binary.LittleEndian.PutUint64(seedState[8:16], seed+uint64(n)+1)

	equivInvCipherRound(&state4, &seedState)
	equivInvCipherRound(&state3, &seedState)
	equivInvCipherRound(&state2, &seedState)
	equivInvCipherRound(&state1, &seedState)
	equivInvCipherRound(&state3, &state4)
	equivInvCipherRound(&state1, &state2)
	equivInvCipherRound(&state3, &seedState)
	equivInvCipherRound(&state1, &state3)
	equivInvCipherRound(&state1, &seedState)

	return state1
}

func block(state *[16]byte, data []byte, offset int) {
	var key [16]byte
	copy(key[:], data[offset:offset+16])
	equivInvCipherRound(state, &key)
}

// ContentHash computes the canonical BlobGuid identity of data: the 128-bit
// blob hash with seed 0, with the first 4 bytes overwritten by the byte
// length of data so that size is part of the identity rather than metadata.
func ContentHash(data []byte) [16]byte {
	digest := BlobHash128(data, 0)
	binary.LittleEndian.PutUint32(digest[0:4], uint32(len(data)))
	return digest
}
