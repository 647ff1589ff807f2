package fsadapter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	car "github.com/grovefs/carstore"
	"github.com/grovefs/carstore/v2/blockstore"
	"github.com/grovefs/carstore/fsadapter"
)

func TestPersistForestRestoreForestRoundtrip(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)
	adapter := fsadapter.New(store, nil)

	c, err := adapter.PersistForest([]byte("opaque forest bytes"))
	require.NoError(t, err)

	got, err := adapter.RestoreForest(c)
	require.NoError(t, err)
	require.Equal(t, []byte("opaque forest bytes"), got)
}

func TestPersistRootRestoreRootRoundtrip(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)
	adapter := fsadapter.New(store, nil)

	var root fsadapter.Root
	root.NameHash[0] = 0xAB
	root.TemporalKey[0] = 0xCD
	contentBlock, err := car.NewBlock([]byte("content"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, store.PutBlock(contentBlock))
	root.ContentCID = contentBlock.ID

	_, err = adapter.PersistRoot(root)
	require.NoError(t, err)

	got, err := adapter.RestoreRoot()
	require.NoError(t, err)
	require.Equal(t, root.NameHash, got.NameHash)
	require.Equal(t, root.TemporalKey, got.TemporalKey)
	require.True(t, root.ContentCID.Equals(got.ContentCID))
}

func TestRestoreRootWithoutRootSet(t *testing.T) {
	store, err := blockstore.NewMemory()
	require.NoError(t, err)
	adapter := fsadapter.New(store, nil)

	_, err = adapter.RestoreRoot()
	require.Error(t, err)
	require.ErrorIs(t, err, car.ErrMissingBlock)
}
