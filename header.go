package car

import (
	"io"

	"github.com/ipfs/go-cid"
	cbor "github.com/ipfs/go-ipld-cbor"
)

func init() {
	cbor.RegisterCborType(Header{})
}

// Header is the v1 header: a format version and an ordered list of root
// identifiers. It is serialized as varint(len(cbor)) ‖ cbor, where cbor
// encodes the map {"version": int, "roots": [link, ...]}. A v2 container
// carries one of these, with Version fixed at 2, immediately after its own
// fixed-size header.
type Header struct {
	Roots   []cid.Cid
	Version uint64
}

// Equal reports whether h and other carry the same version and the same
// root CIDs in the same order. Order matters here, unlike some looser
// "matches" comparisons used for interop testing elsewhere in the
// ecosystem: two headers that list the same roots in different orders are
// not considered equal, since root order is preserved across a rewrite.
func (h Header) Equal(other Header) bool {
	if h.Version != other.Version || len(h.Roots) != len(other.Roots) {
		return false
	}
	for i := range h.Roots {
		if !h.Roots[i].Equals(other.Roots[i]) {
			return false
		}
	}
	return true
}

// ReadHeader reads a length-prefixed CBOR header from r. It reads the
// length prefix directly off r rather than through a buffering wrapper,
// since the body that follows is read off the same r afterward — buffering
// here would pull body bytes into a buffer this function then discards.
func ReadHeader(r io.Reader) (Header, error) {
	length, err := ReadVarint(asByteReader(r))
	if err != nil {
		return Header{}, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, NewError(ErrKindMalformedV1Header, err)
	}

	var h Header
	if err := cbor.DecodeInto(buf, &h); err != nil {
		return Header{}, NewError(ErrKindMalformedV1Header, err)
	}
	if h.Version != 1 && h.Version != 2 {
		return Header{}, NewError(ErrKindMalformedV1Header, nil)
	}
	return h, nil
}

// WriteHeader CBOR-encodes h and writes it length-prefixed to w, returning
// the number of bytes written.
func WriteHeader(h Header, w io.Writer) (int64, error) {
	hb, err := cbor.DumpObject(h)
	if err != nil {
		return 0, NewError(ErrKindSerialization, err)
	}
	lenBuf := EncodeVarint(uint64(len(hb)))
	n, err := w.Write(lenBuf)
	if err != nil {
		return int64(n), NewError(ErrKindIO, err)
	}
	written := int64(n)
	n, err = w.Write(hb)
	written += int64(n)
	if err != nil {
		return written, NewError(ErrKindIO, err)
	}
	return written, nil
}

// HeaderSize returns the number of bytes WriteHeader(h, ...) would write,
// without performing any I/O.
func HeaderSize(h Header) (uint64, error) {
	hb, err := cbor.DumpObject(h)
	if err != nil {
		return 0, NewError(ErrKindSerialization, err)
	}
	return uint64(VarintSize(uint64(len(hb)))) + uint64(len(hb)), nil
}
