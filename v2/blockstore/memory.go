package blockstore

import (
	"io"
	"sync"

	"github.com/ipfs/go-cid"

	car "github.com/grovefs/carstore"
	v2 "github.com/grovefs/carstore/v2"
)

// Memory is a Blockstore backed by an in-memory CARv2 image, useful for
// tests and for staging writes before a single flush to a real transport.
// A mutex serializes access since, unlike SingleFile, the backing buffer is
// shared state rather than something the OS already arbitrates.
type Memory struct {
	mu        sync.RWMutex
	buf       *bytesBuffer
	container *v2.Container
}

// NewMemory returns an empty in-memory store.
func NewMemory() (*Memory, error) {
	buf := newBytesBuffer(nil)
	container := v2.New()
	if _, err := container.WriteTo(buf, nil); err != nil {
		return nil, err
	}
	return &Memory{buf: buf, container: container}, nil
}

// LoadMemory parses data as a complete CARv2 image and returns a store
// backed by a copy of it.
func LoadMemory(data []byte) (*Memory, error) {
	buf := newBytesBuffer(data)
	container, err := v2.Read(buf)
	if err != nil {
		return nil, err
	}
	return &Memory{buf: buf, container: container}, nil
}

// Bytes returns a copy of the store's current CARv2 image.
func (m *Memory) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.buf.b))
	copy(out, m.buf.b)
	return out
}

func (m *Memory) GetBlock(c cid.Cid) (car.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.container.GetBlock(m.buf, c)
}

func (m *Memory) PutBlock(block car.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.container.PutBlock(m.buf, block)
}

func (m *Memory) UpdateBlock(block car.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.container.UpdateBlock(m.buf, block)
}

func (m *Memory) GetRoot() (cid.Cid, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.container.GetRoot()
}

func (m *Memory) SetRoot(root cid.Cid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.container.SetRoot(root)
	return m.container.Finalize(m.buf)
}

// Close is a no-op: Memory holds no external resources.
func (m *Memory) Close() error { return nil }

// bytesBuffer is a growable byte slice supporting the ReaderAt, WriterAt,
// and WriteSeeker surfaces the v2 container needs, without the
// sequential-only restrictions of bytes.Buffer or the copy-on-grow cost of
// repeatedly reslicing by hand.
type bytesBuffer struct {
	b   []byte
	pos int64
}

func newBytesBuffer(initial []byte) *bytesBuffer {
	b := make([]byte, len(initial))
	copy(b, initial)
	return &bytesBuffer{b: b}
}

func (buf *bytesBuffer) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(buf.b)) {
		return 0, io.EOF
	}
	n := copy(p, buf.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (buf *bytesBuffer) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(buf.b)) {
		grown := make([]byte, end)
		copy(grown, buf.b)
		buf.b = grown
	}
	copy(buf.b[off:end], p)
	return len(p), nil
}

func (buf *bytesBuffer) Write(p []byte) (int, error) {
	n, err := buf.WriteAt(p, buf.pos)
	buf.pos += int64(n)
	return n, err
}

func (buf *bytesBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		buf.pos = offset
	case 1:
		buf.pos += offset
	case 2:
		buf.pos = int64(len(buf.b)) + offset
	}
	return buf.pos, nil
}
