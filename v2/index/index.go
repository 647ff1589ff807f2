// Package index implements the sorted offset index trailing a CARv2
// container's data payload: a flat table mapping each block's digest to the
// byte offset of its frame, sorted by digest so a lookup can binary-search
// rather than scan.
package index

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/ipfs/go-cid"

	car "github.com/grovefs/carstore"
)

// Record pairs a block identifier with the offset of its frame within the
// payload that was indexed.
type Record struct {
	CID    cid.Cid
	Offset uint64
}

// entry is the on-disk form of a Record: a digest (the CID's multihash) and
// an offset. Digests vary in length with their hash function, so each
// serialized entry carries a varint length prefix.
type entry struct {
	digest []byte
	offset uint64
}

// Index is a sorted table of digest/offset pairs. It is built once, via
// Load or ReadFrom, and is immutable thereafter except through Insert, which
// the writer path uses to keep a container's index current as blocks are
// appended.
type Index struct {
	entries []entry
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Get returns the offset recorded for c, and whether it was found.
func (idx *Index) Get(c cid.Cid) (uint64, bool) {
	d := c.Hash()
	i := sort.Search(len(idx.entries), func(i int) bool {
		return bytes.Compare(idx.entries[i].digest, d) >= 0
	})
	if i < len(idx.entries) && bytes.Equal(idx.entries[i].digest, d) {
		return idx.entries[i].offset, true
	}
	return 0, false
}

// Insert records the offset for c, replacing any existing entry for the
// same digest and keeping the table sorted.
func (idx *Index) Insert(c cid.Cid, offset uint64) {
	d := c.Hash()
	i := sort.Search(len(idx.entries), func(i int) bool {
		return bytes.Compare(idx.entries[i].digest, d) >= 0
	})
	if i < len(idx.entries) && bytes.Equal(idx.entries[i].digest, d) {
		idx.entries[i].offset = offset
		return
	}
	idx.entries = append(idx.entries, entry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = entry{digest: d, offset: offset}
}

// Len returns the number of entries in the index.
func (idx *Index) Len() int { return len(idx.entries) }

// Load replaces the index's contents with records, sorted by digest.
func (idx *Index) Load(records []Record) {
	entries := make([]entry, len(records))
	for i, rec := range records {
		entries[i] = entry{digest: rec.CID.Hash(), offset: rec.Offset}
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].digest, entries[j].digest) < 0
	})
	idx.entries = entries
}

// offsetFieldSize is the fixed width of one serialized entry's offset field;
// the digest and its varint length prefix vary in size.
const offsetFieldSize = 8

// WriteTo serializes the index as a sequence of
// varint(len(digest)) ‖ digest ‖ offset(8 bytes LE) records, in sorted
// order, so a reader can reconstruct the table with ReadFrom.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, e := range idx.entries {
		lenBuf := car.EncodeVarint(uint64(len(e.digest)))
		n, err := w.Write(lenBuf)
		written += int64(n)
		if err != nil {
			return written, car.NewError(car.ErrKindIO, err)
		}

		n, err = w.Write(e.digest)
		written += int64(n)
		if err != nil {
			return written, car.NewError(car.ErrKindIO, err)
		}

		var offBuf [offsetFieldSize]byte
		binary.LittleEndian.PutUint64(offBuf[:], e.offset)
		n, err = w.Write(offBuf[:])
		written += int64(n)
		if err != nil {
			return written, car.NewError(car.ErrKindIO, err)
		}
	}
	return written, nil
}

// ReadFrom reads an index previously written by WriteTo until r is
// exhausted. Entries are expected to already be in sorted order; ReadFrom
// trusts that rather than re-sorting, since it is only ever fed index
// payloads this package itself produced.
func ReadFrom(r io.Reader) (*Index, error) {
	br := asByteReader(r)
	idx := New()
	for {
		length, err := car.ReadVarint(br)
		if err != nil {
			if se, ok := err.(*car.StoreError); ok && se.Cause == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}

		digest := make([]byte, length)
		if _, err := io.ReadFull(r, digest); err != nil {
			return nil, car.NewError(car.ErrKindSerialization, err)
		}

		var offBuf [offsetFieldSize]byte
		if _, err := io.ReadFull(r, offBuf[:]); err != nil {
			return nil, car.NewError(car.ErrKindSerialization, err)
		}
		idx.entries = append(idx.entries, entry{
			digest: digest,
			offset: binary.LittleEndian.Uint64(offBuf[:]),
		})
	}
	return idx, nil
}

type byteReaderAdapter struct {
	io.Reader
}

func (r byteReaderAdapter) ReadByte() (byte, error) {
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
	return byteReaderAdapter{r}
}
