package car_test

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	car "github.com/grovefs/carstore"
)

func mustCID(t *testing.T, content string) cid.Cid {
	t.Helper()
	c, err := car.Derive([]byte(content), car.CodecRaw)
	require.NoError(t, err)
	return c
}

func TestHeaderWriteReadRoundtrip(t *testing.T) {
	h := car.Header{
		Roots:   []cid.Cid{mustCID(t, "root-a"), mustCID(t, "root-b")},
		Version: 1,
	}

	var buf bytes.Buffer
	_, err := car.WriteHeader(h, &buf)
	require.NoError(t, err)

	got, err := car.ReadHeader(&buf)
	require.NoError(t, err)
	require.True(t, h.Equal(got))
}

func TestHeaderRejectsUnknownVersion(t *testing.T) {
	h := car.Header{Roots: []cid.Cid{mustCID(t, "root")}, Version: 99}

	var buf bytes.Buffer
	_, err := car.WriteHeader(h, &buf)
	require.NoError(t, err)

	_, err = car.ReadHeader(&buf)
	require.Error(t, err)
}

func TestHeaderSizeMatchesWriteHeader(t *testing.T) {
	h := car.Header{Roots: []cid.Cid{mustCID(t, "solo-root")}, Version: 1}

	size, err := car.HeaderSize(h)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := car.WriteHeader(h, &buf)
	require.NoError(t, err)
	require.EqualValues(t, n, size)
}

func TestHeaderEqualIsOrderSensitive(t *testing.T) {
	a := car.Header{Roots: []cid.Cid{mustCID(t, "x"), mustCID(t, "y")}, Version: 1}
	b := car.Header{Roots: []cid.Cid{mustCID(t, "y"), mustCID(t, "x")}, Version: 1}
	require.False(t, a.Equal(b))
}
