package blockstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	car "github.com/grovefs/carstore"
	"github.com/grovefs/carstore/v2/blockstore"
)

func TestMultiDeltaSetRootNoopWithoutDelta(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deltas")
	m, err := blockstore.CreateMultiDelta(dir)
	require.NoError(t, err)

	block, err := car.NewBlock([]byte("x"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, m.SetRoot(block.ID))

	_, ok := m.GetRoot()
	require.False(t, ok)
}

func TestMultiDeltaFreshDeltaGetsZeroRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deltas")
	m, err := blockstore.CreateMultiDelta(dir)
	require.NoError(t, err)

	require.NoError(t, m.AddDelta())

	root, ok := m.GetRoot()
	require.True(t, ok)
	require.True(t, root.Defined())
}

func TestMultiDeltaNewestWins(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deltas")
	m, err := blockstore.CreateMultiDelta(dir)
	require.NoError(t, err)
	require.NoError(t, m.AddDelta())

	oldBlock, err := car.NewBlock([]byte("old delta"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, m.PutBlock(oldBlock))
	require.NoError(t, m.SetRoot(oldBlock.ID))

	require.NoError(t, m.AddDelta())
	newBlock, err := car.NewBlock([]byte("new delta"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, m.PutBlock(newBlock))
	require.NoError(t, m.SetRoot(newBlock.ID))

	root, ok := m.GetRoot()
	require.True(t, ok)
	require.True(t, root.Equals(newBlock.ID))

	// old delta's root propagated forward into the new delta at AddDelta
	// time, then got overwritten by the explicit SetRoot above; both blocks
	// remain readable newest-first regardless of which delta holds them.
	got, err := m.GetBlock(oldBlock.ID)
	require.NoError(t, err)
	require.Equal(t, oldBlock.Content, got.Content)

	got, err = m.GetBlock(newBlock.ID)
	require.NoError(t, err)
	require.Equal(t, newBlock.Content, got.Content)
}

func TestMultiDeltaUpdateBlockFindsOwningDelta(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deltas")
	m, err := blockstore.CreateMultiDelta(dir)
	require.NoError(t, err)
	require.NoError(t, m.AddDelta())

	block, err := car.NewBlock([]byte("fixed-width"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, m.PutBlock(block))

	require.NoError(t, m.AddDelta())

	replacement := car.Block{ID: block.ID, Content: block.Content}
	require.NoError(t, m.UpdateBlock(replacement))
}

func TestMultiDeltaGetBlockMissingAcrossAllDeltas(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deltas")
	m, err := blockstore.CreateMultiDelta(dir)
	require.NoError(t, err)
	require.NoError(t, m.AddDelta())

	block, err := car.NewBlock([]byte("never stored"), car.CodecRaw)
	require.NoError(t, err)

	_, err = m.GetBlock(block.ID)
	require.Error(t, err)
	require.ErrorIs(t, err, car.ErrMissingBlock)
}

func TestLoadMultiDeltaOrdersByNumericSuffix(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deltas")
	m, err := blockstore.CreateMultiDelta(dir)
	require.NoError(t, err)
	for i := 0; i < 11; i++ {
		require.NoError(t, m.AddDelta())
	}

	loaded, err := blockstore.LoadMultiDelta(dir)
	require.NoError(t, err)
	deltas := loaded.Deltas()
	require.Len(t, deltas, 11)
	require.Equal(t, filepath.Join(dir, "1.car"), deltas[0])
	require.Equal(t, filepath.Join(dir, "11.car"), deltas[len(deltas)-1])
}

func TestMultiDeltaGetDelta(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deltas")
	m, err := blockstore.CreateMultiDelta(dir)
	require.NoError(t, err)

	_, ok := m.GetDelta()
	require.False(t, ok)

	require.NoError(t, m.AddDelta())
	require.NoError(t, m.AddDelta())

	path, ok := m.GetDelta()
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "2.car"), path)
}

func TestCreateMultiDeltaRejectsExistingDir(t *testing.T) {
	dir := t.TempDir()
	_, err := blockstore.CreateMultiDelta(dir)
	require.Error(t, err)
	require.ErrorIs(t, err, car.ErrExists)
}
