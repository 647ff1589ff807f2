// Package v2 implements the indexed CARv2 container: a fixed 40-byte header
// following an 11-byte pragma, wrapping a flat CARv1 payload and an
// optional trailing index of block offsets.
package v2

import (
	"encoding/binary"
	"io"

	car "github.com/grovefs/carstore"
)

const (
	// PragmaSize is the length in bytes of the fixed CARv2 pragma.
	PragmaSize = 11
	// HeaderSize is the fixed on-disk size of a CARv2 header.
	HeaderSize = 40
	// CharacteristicsSize is the size in bytes of the Characteristics
	// bitfield within the header.
	CharacteristicsSize = 16
	// PrefixSize is the combined size of the pragma and header — the
	// offset at which the CARv1 payload begins absent any padding.
	PrefixSize = PragmaSize + HeaderSize
)

// Pragma is the fixed 11-byte signature every CARv2 file opens with: a
// valid, minimal CARv1 header declaring version 2 and no roots. A reader
// that does not understand CARv2 but does understand CARv1 will at least
// recognize this as a version it cannot handle, rather than garbage.
var Pragma = []byte{
	0x0a, 0xa1, 0x67, 0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0x02,
}

// fullyIndexedBit is the Characteristics.Hi bit set once an index has been
// fully generated for the container's payload.
const fullyIndexedBit = 7

// Characteristics is a 128-bit reserved bitfield; this module sets only the
// fully-indexed bit, leaving the remainder zero.
type Characteristics struct {
	Hi uint64
	Lo uint64
}

// IsFullyIndexed reports whether the fully-indexed bit is set.
func (c Characteristics) IsFullyIndexed() bool {
	return c.Hi&(1<<fullyIndexedBit) != 0
}

// SetFullyIndexed sets or clears the fully-indexed bit.
func (c *Characteristics) SetFullyIndexed(b bool) {
	if b {
		c.Hi |= 1 << fullyIndexedBit
	} else {
		c.Hi &^= 1 << fullyIndexedBit
	}
}

func (c Characteristics) writeTo(w io.Writer) (int64, error) {
	var buf [CharacteristicsSize]byte
	binary.LittleEndian.PutUint64(buf[:8], c.Hi)
	binary.LittleEndian.PutUint64(buf[8:], c.Lo)
	n, err := w.Write(buf[:])
	return int64(n), err
}

func (c *Characteristics) readFrom(r io.Reader) (int64, error) {
	var buf [CharacteristicsSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return int64(n), err
	}
	c.Hi = binary.LittleEndian.Uint64(buf[:8])
	c.Lo = binary.LittleEndian.Uint64(buf[8:])
	return int64(n), nil
}

// Header is the CARv2 fixed header: where the CARv1 payload and its index
// live within the file, and reserved characteristics bits.
type Header struct {
	Characteristics Characteristics
	DataOffset      uint64
	DataSize        uint64
	IndexOffset     uint64
}

// NewHeader builds the header for a freshly created container whose CARv1
// payload will begin right after the pragma and header, with no index yet.
func NewHeader(dataSize uint64) Header {
	return Header{
		DataOffset:  PrefixSize,
		DataSize:    dataSize,
		IndexOffset: 0,
	}
}

// DataEnd returns the offset one past the end of the CARv1 payload.
func (h Header) DataEnd() uint64 {
	return h.DataOffset + h.DataSize
}

// WriteTo writes the 40-byte fixed-width header to w.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var written int64
	n, err := h.Characteristics.writeTo(w)
	written += n
	if err != nil {
		return written, car.NewError(car.ErrKindIO, err)
	}

	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.DataOffset)
	binary.LittleEndian.PutUint64(buf[8:16], h.DataSize)
	binary.LittleEndian.PutUint64(buf[16:24], h.IndexOffset)
	wn, err := w.Write(buf[:])
	written += int64(wn)
	if err != nil {
		return written, car.NewError(car.ErrKindIO, err)
	}
	return written, nil
}

// ReadHeader reads the fixed 40-byte header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if _, err := h.Characteristics.readFrom(r); err != nil {
		return Header{}, car.NewError(car.ErrKindMalformedV2Header, err)
	}

	var buf [24]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, car.NewError(car.ErrKindMalformedV2Header, err)
	}
	h.DataOffset = binary.LittleEndian.Uint64(buf[0:8])
	h.DataSize = binary.LittleEndian.Uint64(buf[8:16])
	h.IndexOffset = binary.LittleEndian.Uint64(buf[16:24])
	return h, nil
}

// VerifyPragma reads PragmaSize bytes from r and confirms they match Pragma.
func VerifyPragma(r io.Reader) error {
	buf := make([]byte, PragmaSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return car.NewError(car.ErrKindBadPragma, err)
	}
	for i, b := range Pragma {
		if buf[i] != b {
			return car.NewError(car.ErrKindBadPragma, nil)
		}
	}
	return nil
}
