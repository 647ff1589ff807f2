package car_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	car "github.com/grovefs/carstore"
)

func TestDeriveDeterministic(t *testing.T) {
	a, err := car.Derive([]byte("hello"), car.CodecRaw)
	require.NoError(t, err)
	b, err := car.Derive([]byte("hello"), car.CodecRaw)
	require.NoError(t, err)
	require.True(t, a.Equals(b))
}

func TestDeriveDistinctByCodec(t *testing.T) {
	raw, err := car.Derive([]byte("hello"), car.CodecRaw)
	require.NoError(t, err)
	cbor, err := car.Derive([]byte("hello"), car.CodecDagCBOR)
	require.NoError(t, err)
	require.False(t, raw.Equals(cbor))
}

func TestNewBlockContentAddressed(t *testing.T) {
	a, err := car.NewBlock([]byte("payload"), car.CodecRaw)
	require.NoError(t, err)
	b, err := car.NewBlock([]byte("payload"), car.CodecRaw)
	require.NoError(t, err)
	require.True(t, a.ID.Equals(b.ID))
}

func TestBlockWriteToReadBlockRoundtrip(t *testing.T) {
	block, err := car.NewBlock([]byte("round trip me"), car.CodecRaw)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := block.WriteTo(&buf)
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), n)

	got, err := car.ReadBlock(&buf)
	require.NoError(t, err)
	require.True(t, got.ID.Equals(block.ID))
	require.Equal(t, block.Content, got.Content)
}

func TestReadBlockRejectsTamperedContent(t *testing.T) {
	block, err := car.NewBlock([]byte("original"), car.CodecRaw)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = block.WriteTo(&buf)
	require.NoError(t, err)

	tampered := buf.Bytes()
	tampered[len(tampered)-1] ^= 0xFF

	_, err = car.ReadBlock(bytes.NewReader(tampered))
	require.Error(t, err)
	require.ErrorIs(t, err, car.ErrIdentifierMismatch)
}

func TestVerifyBlock(t *testing.T) {
	c, err := car.Derive([]byte("content"), car.CodecRaw)
	require.NoError(t, err)
	require.NoError(t, car.VerifyBlock(c, []byte("content")))
	require.Error(t, car.VerifyBlock(c, []byte("other")))
}
