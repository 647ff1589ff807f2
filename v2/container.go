package v2

import (
	"bytes"
	"io"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multihash"

	car "github.com/grovefs/carstore"
	"github.com/grovefs/carstore/v2/index"
)

var logger = logging.Logger("car/v2")

// placeholderRoot seeds a freshly created container's v1 header with a
// single root slot before any real root has been set. A v1 header's CBOR
// encoding grows with its root count, and Finalize only ever rewrites the
// header in the space reserved for it at creation, so a container must
// carry exactly one root slot for its entire lifetime — never zero — or
// the first SetRoot call would grow the header past its reserved space and
// clobber the start of the payload. It wraps an all-0xff SHA2-256 digest: a
// value no real block ever hashes to, and distinct from the all-zero
// sentinel the blockstore package uses for its own "no root yet" marker.
var placeholderRoot = cid.NewCidV1(cid.Raw, must(multihash.Encode(bytes.Repeat([]byte{0xff}, 32), multihash.SHA2_256)))

func must(mh multihash.Multihash, err error) multihash.Multihash {
	if err != nil {
		panic(err)
	}
	return mh
}

// Container is an in-memory view over a CARv2 file: its fixed header, the
// v1 header nested inside the payload, and a sorted index of block
// offsets. It does not hold an open file handle; every method that touches
// bytes takes an io.ReaderAt or io.WriterAt explicitly, so the lifetime of
// the underlying file is the caller's to manage.
type Container struct {
	Header   Header
	V1Header car.Header
	Index    *index.Index
}

// Read parses a complete CARv2 file from ra: the pragma, the fixed header,
// the nested v1 header, and — if present — the trailing index. If no index
// is present at the recorded offset, one is generated by scanning the data
// payload, so a Container is always ready for GetBlock regardless of how it
// was produced.
func Read(ra io.ReaderAt) (*Container, error) {
	pragmaSec := io.NewSectionReader(ra, 0, PragmaSize)
	if err := VerifyPragma(pragmaSec); err != nil {
		return nil, err
	}

	headerSec := io.NewSectionReader(ra, PragmaSize, HeaderSize)
	h, err := ReadHeader(headerSec)
	if err != nil {
		return nil, err
	}

	v1Sec := io.NewSectionReader(ra, int64(h.DataOffset), int64(h.DataSize))
	v1h, err := car.ReadHeader(v1Sec)
	if err != nil {
		return nil, err
	}
	if v1h.Version != 2 {
		return nil, car.NewError(car.ErrKindMalformedV1Header, nil)
	}

	var idx *index.Index
	if h.IndexOffset != 0 {
		idxSec := io.NewSectionReader(ra, int64(h.IndexOffset), 1<<62)
		idx, err = index.ReadFrom(idxSec)
		if err != nil {
			return nil, err
		}
	}
	if idx == nil || idx.Len() == 0 {
		idx, err = generateIndex(ra, h)
		if err != nil {
			return nil, err
		}
	}

	return &Container{Header: h, V1Header: v1h, Index: idx}, nil
}

// generateIndex scans the v1 payload in ra, recording each block's offset,
// without verifying block contents — mirroring the speed/trust tradeoff the
// container format allows at index-generation time.
func generateIndex(ra io.ReaderAt, h Header) (*index.Index, error) {
	v1Sec := io.NewSectionReader(ra, int64(h.DataOffset), int64(h.DataSize))
	v1h, err := car.ReadHeader(v1Sec)
	if err != nil {
		return nil, err
	}
	size, err := car.HeaderSize(v1h)
	if err != nil {
		return nil, err
	}

	var records []index.Record
	offset := int64(size)
	for {
		frameSec := io.NewSectionReader(ra, int64(h.DataOffset)+offset, int64(h.DataSize)-offset)
		c, content, err := car.ReadBlockFrame(frameSec)
		if err != nil {
			if se, ok := err.(*car.StoreError); ok && se.Cause == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}
		records = append(records, index.Record{CID: c, Offset: uint64(int64(h.DataOffset) + offset)})
		length := uint64(len(c.Bytes()) + len(content))
		offset += int64(car.VarintSize(length)) + int64(length)
		if offset >= int64(h.DataSize) {
			break
		}
	}

	idx := index.New()
	idx.Load(records)
	return idx, nil
}

// New builds a fresh, empty container: a v1 header carrying one
// placeholder root, no blocks, and no index yet. Per spec, a v2 container's
// nested v1 header always carries version=2.
func New() *Container {
	return &Container{
		Header:   NewHeader(0),
		V1Header: car.Header{Version: 2, Roots: []cid.Cid{placeholderRoot}},
		Index:    index.New(),
	}
}

// WriteTo serializes the full container — pragma, header, v1 payload, and
// index — to w, which must support seeking back to the start once the
// payload's length is known so the header can carry the right DataSize and
// IndexOffset. blocks are written in order, skipping any whose CID
// duplicates one already written.
func (c *Container) WriteTo(w io.WriteSeeker, blocks []car.Block) (int64, error) {
	if _, err := w.Seek(PrefixSize, io.SeekStart); err != nil {
		return 0, car.NewError(car.ErrKindIO, err)
	}

	offsets, payloadLen, err := car.WriteV1(w, PrefixSize, c.V1Header, blocks)
	if err != nil {
		return 0, err
	}

	c.Header = NewHeader(uint64(payloadLen))
	c.Header.IndexOffset = c.Header.DataOffset + c.Header.DataSize
	c.Header.Characteristics.SetFullyIndexed(true)

	c.Index = index.New()
	var records []index.Record
	byCID := make(map[string]cid.Cid, len(offsets))
	for _, b := range blocks {
		byCID[b.ID.KeyString()] = b.ID
	}
	for key, off := range offsets {
		records = append(records, index.Record{CID: byCID[key], Offset: uint64(off)})
	}
	c.Index.Load(records)

	idxLen, err := c.Index.WriteTo(w)
	if err != nil {
		return 0, err
	}

	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return 0, car.NewError(car.ErrKindIO, err)
	}
	if _, err := w.Write(Pragma); err != nil {
		return 0, car.NewError(car.ErrKindIO, err)
	}
	if _, err := c.Header.WriteTo(w); err != nil {
		return 0, err
	}

	return PrefixSize + payloadLen + idxLen, nil
}

// WriteHeaderTo rewrites the pragma and fixed header at the start of wa,
// reflecting c.Header's current values. PutBlock and Finalize call it
// after mutating the header, to persist it without rewriting the whole
// file.
func (c *Container) WriteHeaderTo(wa io.WriterAt) error {
	if _, err := wa.WriteAt(Pragma, 0); err != nil {
		return car.NewError(car.ErrKindIO, err)
	}
	buf := &sectionBuffer{}
	if _, err := c.Header.WriteTo(buf); err != nil {
		return err
	}
	if _, err := wa.WriteAt(buf.b, PragmaSize); err != nil {
		return car.NewError(car.ErrKindIO, err)
	}
	return nil
}

// ReadWriterAt is the random-access capability Container's mutating
// methods need: PutBlock and UpdateBlock write new or replacement bytes,
// and UpdateBlock also reads the block it's about to overwrite to check
// its length.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// GetBlock looks up c's block in the index and reads it from ra, verifying
// its content against the CID. It returns ErrMissingBlock if the index has
// no entry for c.
func (container *Container) GetBlock(ra io.ReaderAt, c cid.Cid) (car.Block, error) {
	offset, ok := container.Index.Get(c)
	if !ok {
		return car.Block{}, car.NewError(car.ErrKindMissingBlock, nil).WithCID(c)
	}
	sec := io.NewSectionReader(ra, int64(offset), int64(container.Header.DataEnd())-int64(offset))
	b, err := car.ReadBlock(sec)
	if err != nil {
		return car.Block{}, err
	}
	return b, nil
}

// PutBlock appends block to the end of the data payload in rw and records
// its offset in the index, unless the index already holds an entry for
// this CID — content addressing guarantees an existing entry already
// points at identical bytes, so the write is skipped. It updates and
// persists the header in place but does not rewrite the index payload,
// and neither does Finalize; Read finds the new block by rescanning the
// payload, which it does when the on-disk index is empty.
func (c *Container) PutBlock(rw ReadWriterAt, block car.Block) error {
	if _, ok := c.Index.Get(block.ID); ok {
		logger.Debugf("put block %s: already present, skipping", block.ID)
		return nil
	}
	logger.Debugf("put block %s at offset %d", block.ID, c.Header.DataEnd())

	offset := c.Header.DataEnd()
	sec := &writerAtOffset{wa: rw, base: int64(offset)}
	n, err := block.WriteTo(sec)
	if err != nil {
		return err
	}

	c.Index.Insert(block.ID, offset)
	c.Header.DataSize += uint64(n)
	c.Header.IndexOffset = c.Header.DataOffset + c.Header.DataSize
	c.Header.Characteristics.SetFullyIndexed(false)

	return c.WriteHeaderTo(rw)
}

// UpdateBlock overwrites the bytes of an existing block in place. The new
// content must hash to the same CID and occupy exactly the same number of
// bytes as the block it replaces — UpdateBlock exists to let the
// filesystem adapter overwrite a scratch/placeholder block in steady
// state, not to grow or shrink payload.
func (c *Container) UpdateBlock(rw ReadWriterAt, block car.Block) error {
	offset, ok := c.Index.Get(block.ID)
	if !ok {
		return car.NewError(car.ErrKindMissingBlock, nil).WithCID(block.ID)
	}

	existingLenSec := io.NewSectionReader(rw, int64(offset), int64(c.Header.DataEnd())-int64(offset))
	_, existingContent, err := car.ReadBlockFrame(existingLenSec)
	if err != nil {
		return err
	}
	if len(existingContent) != len(block.Content) {
		return car.NewError(car.ErrKindLengthMismatch, nil).WithCID(block.ID)
	}

	sec := &writerAtOffset{wa: rw, base: int64(offset)}
	_, err = block.WriteTo(sec)
	return err
}

// SetRoot replaces the single root recorded in the nested v1 header. It
// does not rewrite the payload; call Finalize to persist the updated
// header to the backing file.
func (c *Container) SetRoot(root cid.Cid) {
	c.V1Header.Roots = []cid.Cid{root}
}

// GetRoot returns the container's single root, if one has been set. A
// container fresh from New carries only placeholderRoot, which this
// reports as "no root set" rather than as a real value.
func (c *Container) GetRoot() (cid.Cid, bool) {
	if len(c.V1Header.Roots) == 0 || c.V1Header.Roots[0].Equals(placeholderRoot) {
		return cid.Undef, false
	}
	return c.V1Header.Roots[0], true
}

// Finalize rewrites the v1 header in place at the start of the data
// payload and persists the fixed CARv2 header, making an updated root
// durable. It assumes the v1 header's serialized size has not grown past
// the space reserved for it at creation — true as long as every container
// carries exactly one root slot for its entire lifetime, seeded by New's
// placeholderRoot and only ever replaced, never appended to, by SetRoot.
func (c *Container) Finalize(rw io.WriterAt) error {
	sec := &writerAtOffset{wa: rw, base: int64(c.Header.DataOffset)}
	if _, err := car.WriteHeader(c.V1Header, sec); err != nil {
		return err
	}
	return c.WriteHeaderTo(rw)
}

// sectionBuffer is a minimal io.Writer collecting bytes into a slice, used
// to serialize a fixed-size header before a single WriteAt call.
type sectionBuffer struct {
	b []byte
}

func (s *sectionBuffer) Write(p []byte) (int, error) {
	s.b = append(s.b, p...)
	return len(p), nil
}

// writerAtOffset adapts an io.WriterAt plus a fixed base offset into a
// sequential io.Writer, so code written against io.Writer (Block.WriteTo,
// car.WriteHeader) can target an arbitrary position in a random-access file.
type writerAtOffset struct {
	wa   io.WriterAt
	base int64
}

func (w *writerAtOffset) Write(p []byte) (int, error) {
	n, err := w.wa.WriteAt(p, w.base)
	w.base += int64(n)
	return n, err
}
