package car_test

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	car "github.com/grovefs/carstore"
)

func TestWriteV1ReadV1Roundtrip(t *testing.T) {
	blockA, err := car.NewBlock([]byte("alpha"), car.CodecRaw)
	require.NoError(t, err)
	blockB, err := car.NewBlock([]byte("beta"), car.CodecRaw)
	require.NoError(t, err)

	h := car.Header{Roots: []cid.Cid{blockA.ID}, Version: 1}

	var buf bytes.Buffer
	offsets, written, err := car.WriteV1(&buf, 0, h, []car.Block{blockA, blockB})
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), written)
	require.Contains(t, offsets, blockA.ID.KeyString())
	require.Contains(t, offsets, blockB.ID.KeyString())

	gotContainer, gotBlocks, err := car.ReadV1(&buf, 0)
	require.NoError(t, err)
	require.True(t, h.Equal(gotContainer.Header))
	require.Len(t, gotBlocks, 2)
	require.Equal(t, offsets, gotContainer.Offsets)
}

func TestWriteV1DedupsRepeatedBlock(t *testing.T) {
	block, err := car.NewBlock([]byte("same content"), car.CodecRaw)
	require.NoError(t, err)
	h := car.Header{Roots: []cid.Cid{block.ID}, Version: 1}

	var buf bytes.Buffer
	offsets, _, err := car.WriteV1(&buf, 0, h, []car.Block{block, block, block})
	require.NoError(t, err)
	require.Len(t, offsets, 1)

	_, gotBlocks, err := car.ReadV1(&buf, 0)
	require.NoError(t, err)
	require.Len(t, gotBlocks, 1)
}

func TestReadV1BaseOffset(t *testing.T) {
	block, err := car.NewBlock([]byte("offset me"), car.CodecRaw)
	require.NoError(t, err)
	h := car.Header{Roots: []cid.Cid{block.ID}, Version: 1}

	var buf bytes.Buffer
	offsets, _, err := car.WriteV1(&buf, 100, h, []car.Block{block})
	require.NoError(t, err)
	require.Greater(t, offsets[block.ID.KeyString()], int64(100))

	container, _, err := car.ReadV1(bytes.NewReader(buf.Bytes()), 100)
	require.NoError(t, err)
	require.Equal(t, offsets, container.Offsets)
}

func TestReadV1RejectsTamperedBlock(t *testing.T) {
	block, err := car.NewBlock([]byte("trustworthy"), car.CodecRaw)
	require.NoError(t, err)
	h := car.Header{Roots: []cid.Cid{block.ID}, Version: 1}

	var buf bytes.Buffer
	_, _, err = car.WriteV1(&buf, 0, h, []car.Block{block})
	require.NoError(t, err)

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	_, _, err = car.ReadV1(bytes.NewReader(data), 0)
	require.Error(t, err)
}
