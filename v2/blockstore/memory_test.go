package blockstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	car "github.com/grovefs/carstore"
	"github.com/grovefs/carstore/v2/blockstore"
)

func TestMemoryPutGetRoundtrip(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)

	block, err := car.NewBlock([]byte("memory block"), car.CodecRaw)
	require.NoError(t, err)

	require.NoError(t, store.PutBlock(block))

	got, err := store.GetBlock(block.ID)
	require.NoError(t, err)
	require.Equal(t, block.Content, got.Content)
}

func TestMemoryPutBlockIdempotent(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)

	block, err := car.NewBlock([]byte("dedup"), car.CodecRaw)
	require.NoError(t, err)

	require.NoError(t, store.PutBlock(block))
	before := store.Bytes()
	require.NoError(t, store.PutBlock(block))
	after := store.Bytes()
	require.Equal(t, len(before), len(after))
}

func TestMemorySetRootGetRoot(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)

	block, err := car.NewBlock([]byte("root content"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, store.PutBlock(block))
	require.NoError(t, store.SetRoot(block.ID))

	root, ok := store.GetRoot()
	require.True(t, ok)
	require.True(t, root.Equals(block.ID))
}

func TestLoadMemoryRoundtripsBytes(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)

	block, err := car.NewBlock([]byte("persisted"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, store.PutBlock(block))
	require.NoError(t, store.SetRoot(block.ID))

	reloaded, err := blockstore.LoadMemory(store.Bytes())
	require.NoError(t, err)

	got, err := reloaded.GetBlock(block.ID)
	require.NoError(t, err)
	require.Equal(t, block.Content, got.Content)

	root, ok := reloaded.GetRoot()
	require.True(t, ok)
	require.True(t, root.Equals(block.ID))
}

func TestMemoryUpdateBlockLengthMismatch(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)

	block, err := car.NewBlock([]byte("same-length-content"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, store.PutBlock(block))

	mismatched := car.Block{ID: block.ID, Content: []byte("short")}
	err = store.UpdateBlock(mismatched)
	require.Error(t, err)
	require.ErrorIs(t, err, car.ErrLengthMismatch)
}
