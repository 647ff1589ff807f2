package car

import (
	"encoding/binary"
	"io"

	"github.com/multiformats/go-varint"
)

// MaxVarintLen is the maximum number of bytes a u64 LEB128-style varint can
// occupy; ten 7-bit groups (70 bits) cover the full 64-bit range, where nine
// would fall one bit short. A stream that hasn't terminated after this many bytes is malformed.
const MaxVarintLen = binary.MaxVarintLen64

// EncodeVarint encodes n as an unsigned LEB128-style varint: 7 payload bits
// per byte, with the high bit set on every byte but the last.
func EncodeVarint(n uint64) []byte {
	buf := make([]byte, MaxVarintLen)
	written := varint.PutUvarint(buf, n)
	return buf[:written]
}

// ReadVarint reads a varint from r, one byte at a time, stopping at the
// first byte with its high bit clear. It returns ErrMalformedVarint if more
// than MaxVarintLen bytes are consumed without terminating, or if the
// stream ends before a terminating byte is read.
func ReadVarint(r io.ByteReader) (uint64, error) {
	n, err := varint.ReadUvarint(r)
	if err != nil {
		if err == io.EOF {
			return 0, NewError(ErrKindMalformedVarint, io.ErrUnexpectedEOF)
		}
		return 0, NewError(ErrKindMalformedVarint, err)
	}
	return n, nil
}

// VarintSize returns the number of bytes EncodeVarint(n) would produce.
func VarintSize(n uint64) int {
	return varint.UvarintSize(n)
}
