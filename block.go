package car

import (
	"bufio"
	"io"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
)

var logger = logging.Logger("car")

// Codec identifies the IPLD codec tag carried inside a block's CID. Only
// the two codecs the storage core itself produces are named here; any
// other multicodec.Code decodes fine off disk, it's just opaque to this
// layer.
type Codec = multicodec.Code

const (
	// CodecRaw tags a block whose content is an uninterpreted byte string.
	CodecRaw = multicodec.Raw
	// CodecDagCBOR tags a block whose content is a DAG-CBOR encoded node
	// (used for the forest/root-pointer structures the filesystem adapter
	// persists).
	CodecDagCBOR = multicodec.DagCbor
)

// Block is a hash-identified payload: a CID paired with the bytes it was
// derived from. Once constructed, a Block is immutable; ID is guaranteed to
// equal Derive(Content, codec) of the codec it was built with.
type Block struct {
	ID      cid.Cid
	Content []byte
}

// NewBlock derives an identifier for content under codec and returns the
// resulting Block. Two calls with identical content and codec produce
// Blocks with equal IDs — this equality is the source of deduplication at
// every layer above it.
func NewBlock(content []byte, codec Codec) (Block, error) {
	id, err := Derive(content, codec)
	if err != nil {
		return Block{}, NewError(ErrKindCrypto, err)
	}
	return Block{ID: id, Content: content}, nil
}

// Derive computes the content identifier for bytes under codec: a CIDv1
// wrapping a SHA2-256 multihash of bytes, tagged with codec. It is
// deterministic: the same (bytes, codec) pair always yields the same CID,
// and distinct codecs over identical bytes yield distinct CIDs.
func Derive(content []byte, codec Codec) (cid.Cid, error) {
	mh, err := multihash.Sum(content, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(uint64(codec), mh), nil
}

// WriteTo emits the canonical block frame:
// varint(len(id bytes)+len(content)) ‖ id bytes ‖ content.
// It returns the number of bytes written.
func (b Block) WriteTo(w io.Writer) (int64, error) {
	idBytes := b.ID.Bytes()
	total := len(idBytes) + len(b.Content)

	lenBuf := EncodeVarint(uint64(total))
	n, err := w.Write(lenBuf)
	if err != nil {
		return int64(n), NewError(ErrKindIO, err)
	}
	written := int64(n)

	n, err = w.Write(idBytes)
	written += int64(n)
	if err != nil {
		return written, NewError(ErrKindIO, err)
	}

	n, err = w.Write(b.Content)
	written += int64(n)
	if err != nil {
		return written, NewError(ErrKindIO, err)
	}
	return written, nil
}

// byteReader adapts an io.Reader lacking ReadByte into one that has it, so a
// bare reader can be handed to a varint decoder that requires io.ByteReader.
type byteReader struct {
	io.Reader
}

func (r byteReader) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r.Reader, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func asByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return byteReader{r}
}

// ReadBlockFrame reads one length-prefixed section from r and returns the
// raw CID bytes and content, without verifying the hash. It is the shared
// low-level step used both by ReadBlock (which verifies) and by index
// generation (which, per §4.2, may skip verification for speed).
func ReadBlockFrame(r io.Reader) (cid.Cid, []byte, error) {
	length, err := ReadVarint(asByteReader(r))
	if err != nil {
		return cid.Undef, nil, err
	}
	if length == 0 {
		return cid.Undef, nil, NewError(ErrKindMalformedV1Header, io.ErrUnexpectedEOF)
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(r, frame); err != nil {
		return cid.Undef, nil, NewError(ErrKindIO, err)
	}

	n, c, err := cid.CidFromBytes(frame)
	if err != nil {
		return cid.Undef, nil, NewError(ErrKindMalformedV1Header, err)
	}
	return c, frame[n:], nil
}

// ReadBlock reads one block frame from r and verifies that its content
// hashes to the claimed CID, returning ErrIdentifierMismatch if it
// doesn't. Every user-facing get_block path must call this rather than
// ReadBlockFrame directly.
func ReadBlock(r io.Reader) (Block, error) {
	c, content, err := ReadBlockFrame(r)
	if err != nil {
		return Block{}, err
	}
	if err := VerifyBlock(c, content); err != nil {
		return Block{}, err
	}
	return Block{ID: c, Content: content}, nil
}

// VerifyBlock recomputes the hash of content under c's codec and confirms
// it matches c, returning ErrIdentifierMismatch on mismatch.
func VerifyBlock(c cid.Cid, content []byte) error {
	prefix := c.Prefix()
	mh, err := multihash.Sum(content, prefix.MhType, prefix.MhLength)
	if err != nil {
		return NewError(ErrKindCrypto, err)
	}
	got := cid.NewCidV1(prefix.Codec, mh)
	if !got.Equals(c) {
		logger.Errorf("block content integrity mismatch: claimed=%s computed=%s", c, got)
		return NewError(ErrKindIdentifierMismatch, nil).WithCID(c)
	}
	return nil
}

// bufferedByteReader wraps r in a *bufio.Reader only if it doesn't already
// implement io.ByteReader, avoiding a redundant allocation on already
// buffered streams.
func bufferedByteReader(r io.Reader) io.Reader {
	if _, ok := r.(io.ByteReader); ok {
		return r
	}
	return bufio.NewReader(r)
}
