package blockstore

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	car "github.com/grovefs/carstore"
)

// MultiDelta is a Blockstore spread across an ordered sequence of CARv2
// "delta" files in one directory, named 1.car, 2.car, and so on. Reads
// search deltas newest-first so a later write shadows an earlier one with
// the same CID; writes always target the newest delta, leaving earlier
// deltas untouched. This lets a forest be persisted incrementally — each
// delta captures the blocks written since the last snapshot — without
// rewriting history to append new data.
type MultiDelta struct {
	mu     sync.Mutex
	dir    string
	deltas []*SingleFile
}

// zeroRoot is the sentinel root written into the first delta of a store
// that has no prior delta to inherit a root from, distinguishing "no
// forest yet" from "this delta has no root recorded." It wraps an all-zero
// SHA2-256 digest — a value no real block ever hashes to.
var zeroRoot = cid.NewCidV1(cid.Raw, must(multihash.Encode(make([]byte, 32), multihash.SHA2_256)))

func must(mh multihash.Multihash, err error) multihash.Multihash {
	if err != nil {
		panic(err)
	}
	return mh
}

// CreateMultiDelta creates a fresh delta directory at dir, which must not
// already exist.
func CreateMultiDelta(dir string) (*MultiDelta, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, car.NewError(car.ErrKindExists, nil).WithPath(dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, car.NewError(car.ErrKindIO, err).WithPath(dir)
	}
	return &MultiDelta{dir: dir}, nil
}

// LoadMultiDelta opens an existing delta directory, reading every *.car
// file in it and ordering the deltas by filename so the most recently
// added delta sorts last.
func LoadMultiDelta(dir string) (*MultiDelta, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, car.NewError(car.ErrKindMissingDirectory, err).WithPath(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, car.NewError(car.ErrKindIO, err).WithPath(dir)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".car") {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return deltaIndex(names[i]) < deltaIndex(names[j])
	})

	deltas := make([]*SingleFile, 0, len(names))
	for _, name := range names {
		sf, err := OpenSingleFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, sf)
	}

	return &MultiDelta{dir: dir, deltas: deltas}, nil
}

func deltaIndex(name string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(name, ".car"))
	return n
}

// AddDelta creates a new, empty delta file and makes it the write target.
// Its root is initialized to the current newest delta's root, or the zero
// sentinel if this is the first delta, so GetRoot always returns a value as
// soon as one delta exists.
func (m *MultiDelta) AddDelta() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Join(m.dir, strconv.Itoa(len(m.deltas)+1)+".car")
	sf, err := OpenSingleFile(path)
	if err != nil {
		return err
	}

	var root cid.Cid
	if len(m.deltas) > 0 {
		root, _ = m.deltas[len(m.deltas)-1].GetRoot()
	} else {
		root = zeroRoot
	}
	if err := sf.SetRoot(root); err != nil {
		return err
	}

	m.deltas = append(m.deltas, sf)
	logger.Debugf("delta rollover: added %s, now %d deltas", path, len(m.deltas))
	return nil
}

func (m *MultiDelta) newest() (*SingleFile, error) {
	if len(m.deltas) == 0 {
		return nil, car.NewError(car.ErrKindMissingFile, nil).WithPath(filepath.Join(m.dir, "1.car"))
	}
	return m.deltas[len(m.deltas)-1], nil
}

// GetBlock searches deltas newest-first, returning the first match.
func (m *MultiDelta) GetBlock(c cid.Cid) (car.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.deltas) - 1; i >= 0; i-- {
		b, err := m.deltas[i].GetBlock(c)
		if err == nil {
			return b, nil
		}
	}
	return car.Block{}, car.NewError(car.ErrKindMissingBlock, nil).WithCID(c)
}

// PutBlock writes block to the newest delta.
func (m *MultiDelta) PutBlock(block car.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.newest()
	if err != nil {
		return err
	}
	return d.PutBlock(block)
}

// UpdateBlock overwrites block in whichever delta currently holds its CID,
// searching newest-first.
func (m *MultiDelta) UpdateBlock(block car.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.deltas) - 1; i >= 0; i-- {
		if _, err := m.deltas[i].GetBlock(block.ID); err == nil {
			return m.deltas[i].UpdateBlock(block)
		}
	}
	return car.NewError(car.ErrKindMissingBlock, nil).WithCID(block.ID)
}

// GetRoot returns the newest delta's root. If no delta exists yet, it
// returns false rather than an error — there is nothing wrong with the
// store, there's simply no root to report.
func (m *MultiDelta) GetRoot() (cid.Cid, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.newest()
	if err != nil {
		return cid.Undef, false
	}
	return d.GetRoot()
}

// SetRoot updates the newest delta's root. If no delta exists, SetRoot is a
// no-op: there is nowhere to persist the root until AddDelta is called at
// least once.
func (m *MultiDelta) SetRoot(root cid.Cid) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.newest()
	if err != nil {
		return nil
	}
	return d.SetRoot(root)
}

// Close is a no-op: each delta's SingleFile already opens and closes its
// backing handle per call.
func (m *MultiDelta) Close() error { return nil }

// Deltas returns the paths of the store's delta files, oldest first.
func (m *MultiDelta) Deltas() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, len(m.deltas))
	for i, d := range m.deltas {
		paths[i] = d.Path()
	}
	return paths
}

// GetDelta returns the path of the newest delta — the one an external
// uploader should ship when synchronizing this store incrementally — or
// false if no delta has been added yet.
func (m *MultiDelta) GetDelta() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.deltas) == 0 {
		return "", false
	}
	return m.deltas[len(m.deltas)-1].Path(), true
}
