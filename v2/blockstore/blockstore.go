// Package blockstore ties a CARv2 container to a Go-native get/put/root
// API, in three flavors: a single file on disk, an in-memory buffer, and an
// ordered directory of delta files that layers writes without rewriting
// history.
package blockstore

import (
	"io"

	"github.com/ipfs/go-cid"

	car "github.com/grovefs/carstore"
)

// Blockstore is the storage interface every filesystem-adapter operation is
// built on: content-addressed block access plus a single mutable root
// pointer. Implementations must make GetBlock verify content against its
// CID (car.ReadBlock does this) and must make PutBlock idempotent for a
// CID already present.
type Blockstore interface {
	// GetBlock returns the block identified by c, or ErrMissingBlock if no
	// implementation-visible container holds it.
	GetBlock(c cid.Cid) (car.Block, error)
	// PutBlock stores block, returning nil without writing if a block
	// with the same CID is already present.
	PutBlock(block car.Block) error
	// UpdateBlock overwrites an existing block's bytes in place. The
	// replacement must be the same length as what it replaces.
	UpdateBlock(block car.Block) error
	// GetRoot returns the store's current root, if one has been set.
	GetRoot() (cid.Cid, bool)
	// SetRoot replaces the store's root pointer.
	SetRoot(root cid.Cid) error
	// Close releases any resources (open file handles) held by the store.
	Close() error
}

var _ io.Closer = Blockstore(nil)
