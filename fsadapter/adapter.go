// Package fsadapter is the thin surface this module exposes to a private
// filesystem layer built on top of it: persisting an opaque forest blob as
// a single content-addressed block, and persisting the small root pointer
// (name hash, content CID, temporal key) a filesystem needs to resume
// traversal from a forest. It does not implement forest chunking, node
// diffing, or any of the filesystem's own tree logic — those live above
// this module's boundary.
package fsadapter

import (
	"github.com/ipfs/go-cid"

	car "github.com/grovefs/carstore"
	"github.com/grovefs/carstore/v2/blockstore"
	"github.com/grovefs/carstore/sharing"
)

// NameHashSize and TemporalKeySize match the width of the corresponding
// fields in a PrivateRef-shaped root pointer: a saturated name hash and a
// temporal (forest-revision) key, both 32-byte values in the upstream
// private filesystem design this adapter feeds.
const (
	NameHashSize    = 32
	TemporalKeySize = 32
)

// Root is the small, serializable pointer a filesystem needs to resume
// traversal of a forest: which name-hash to look up, which block holds its
// content, and the temporal key needed to decrypt that content.
type Root struct {
	NameHash    [NameHashSize]byte
	ContentCID  cid.Cid
	TemporalKey [TemporalKeySize]byte
}

// Adapter ties a Blockstore to an optional sharing Map, giving a
// filesystem layer above it a single place to persist and restore both its
// opaque forest blob and its root pointer.
type Adapter struct {
	Store   blockstore.Blockstore
	Sharing *sharing.Map
}

// New wraps store for use by a filesystem layer. sharingMap may be nil if
// the forest this adapter serves isn't shared with any recipient yet.
func New(store blockstore.Blockstore, sharingMap *sharing.Map) *Adapter {
	return &Adapter{Store: store, Sharing: sharingMap}
}

// PersistForest stores an opaque, already-serialized forest blob as a
// single DAG-CBOR block and returns its CID. The adapter treats the bytes
// as opaque: encoding the forest's internal structure is the filesystem
// layer's responsibility, not this one's.
func (a *Adapter) PersistForest(serialized []byte) (cid.Cid, error) {
	block, err := car.NewBlock(serialized, car.CodecDagCBOR)
	if err != nil {
		return cid.Undef, err
	}
	if err := a.Store.PutBlock(block); err != nil {
		return cid.Undef, err
	}
	return block.ID, nil
}

// RestoreForest returns the serialized forest blob stored under c.
func (a *Adapter) RestoreForest(c cid.Cid) ([]byte, error) {
	block, err := a.Store.GetBlock(c)
	if err != nil {
		return nil, err
	}
	return block.Content, nil
}

func init() {
	registerRootCborType()
}

// PersistRoot stores root as a DAG-CBOR block and sets it as the store's
// current root pointer. The returned CID also identifies the block, should
// a caller need to reference it directly rather than through GetRoot.
func (a *Adapter) PersistRoot(root Root) (cid.Cid, error) {
	encoded, err := encodeRoot(root)
	if err != nil {
		return cid.Undef, err
	}
	block, err := car.NewBlock(encoded, car.CodecDagCBOR)
	if err != nil {
		return cid.Undef, err
	}
	if err := a.Store.PutBlock(block); err != nil {
		return cid.Undef, err
	}
	if err := a.Store.SetRoot(block.ID); err != nil {
		return cid.Undef, err
	}
	return block.ID, nil
}

// RestoreRoot reads the store's current root pointer and decodes it as a
// Root. It returns ErrMissingBlock if the store has no root set.
func (a *Adapter) RestoreRoot() (Root, error) {
	c, ok := a.Store.GetRoot()
	if !ok {
		return Root{}, car.NewError(car.ErrKindMissingBlock, nil)
	}
	block, err := a.Store.GetBlock(c)
	if err != nil {
		return Root{}, err
	}
	return decodeRoot(block.Content)
}
