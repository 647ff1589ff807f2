package car_test

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	car "github.com/grovefs/carstore"
)

// TestReadV1GoldenFixture decodes a hand-built CARv1 byte stream — one
// header followed by two blocks — assembled from WriteHeader and
// Block.WriteTo directly rather than through WriteV1, so ReadV1 is checked
// against a stream WriteV1 did not produce.
func TestReadV1GoldenFixture(t *testing.T) {
	root, err := car.NewBlock([]byte("golden root"), car.CodecDagCBOR)
	require.NoError(t, err)
	leaf, err := car.NewBlock([]byte("golden leaf"), car.CodecRaw)
	require.NoError(t, err)

	h := car.Header{Roots: []cid.Cid{root.ID}, Version: 1}

	var fixture bytes.Buffer
	_, err = car.WriteHeader(h, &fixture)
	require.NoError(t, err)
	_, err = root.WriteTo(&fixture)
	require.NoError(t, err)
	_, err = leaf.WriteTo(&fixture)
	require.NoError(t, err)

	gotHeader, gotBlocks, err := car.ReadV1(bytes.NewReader(fixture.Bytes()), 0)
	require.NoError(t, err)
	require.True(t, h.Equal(gotHeader.Header))
	require.Len(t, gotBlocks, 2)
	require.True(t, gotBlocks[0].ID.Equals(root.ID))
	require.Equal(t, root.Content, gotBlocks[0].Content)
	require.True(t, gotBlocks[1].ID.Equals(leaf.ID))
	require.Equal(t, leaf.Content, gotBlocks[1].Content)
}
