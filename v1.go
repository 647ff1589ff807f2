package car

import (
	"errors"
	"io"

	"github.com/ipfs/go-cid"
)

// V1Container is an in-memory view of a flat CARv1 payload: a header
// followed by a sequence of length-prefixed blocks, read or written in one
// pass with no index. Offsets records the byte offset of each block's frame
// within the stream it was read from, keyed by CID, letting a caller build
// a CARv2 index over a V1 payload without rescanning it.
type V1Container struct {
	Header  Header
	Offsets map[string]int64
}

// ReadV1 reads a complete CARv1 stream from r: the header, then blocks
// until EOF, verifying each block's content against its claimed CID. baseOffset
// is added to every recorded offset, letting a caller read a v1 payload
// embedded inside a larger v2 file at a nonzero starting position.
func ReadV1(r io.Reader, baseOffset int64) (V1Container, []Block, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return V1Container{}, nil, err
	}

	br := bufferedByteReader(r)
	offsets := make(map[string]int64)
	var blocks []Block
	offset := baseOffset

	for {
		frameStart := offset
		length, err := ReadVarint(asByteReader(br))
		if err != nil {
			var se *StoreError
			if errors.As(err, &se) && errors.Is(se.Cause, io.ErrUnexpectedEOF) {
				break
			}
			return V1Container{}, nil, err
		}

		frame := make([]byte, length)
		if _, err := io.ReadFull(br, frame); err != nil {
			return V1Container{}, nil, NewError(ErrKindIO, err)
		}

		n, c, err := cid.CidFromBytes(frame)
		if err != nil {
			return V1Container{}, nil, NewError(ErrKindMalformedV1Header, err)
		}
		content := frame[n:]
		if err := VerifyBlock(c, content); err != nil {
			return V1Container{}, nil, err
		}

		offsets[c.KeyString()] = frameStart
		blocks = append(blocks, Block{ID: c, Content: content})
		offset = frameStart + int64(VarintSize(length)) + int64(length)
	}

	return V1Container{Header: h, Offsets: offsets}, blocks, nil
}

// WriteV1 writes a header followed by blocks, in order, to w. Blocks that
// share a CID with one already written are skipped: CARv1 content
// addressing guarantees the skipped bytes would have been identical. The
// returned map gives each distinct block's frame offset within w plus
// baseOffset, and the second return value is the total number of bytes
// written.
func WriteV1(w io.Writer, baseOffset int64, h Header, blocks []Block) (map[string]int64, int64, error) {
	written, err := WriteHeader(h, w)
	if err != nil {
		return nil, 0, err
	}

	offsets := make(map[string]int64, len(blocks))
	for _, b := range blocks {
		key := b.ID.KeyString()
		if _, seen := offsets[key]; seen {
			continue
		}
		offsets[key] = baseOffset + written
		n, err := b.WriteTo(w)
		if err != nil {
			return nil, written, err
		}
		written += n
	}
	return offsets, written, nil
}
