package sharing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovefs/carstore/sharing"
)

func TestGeneratePrivateKeyRoundtripsBytes(t *testing.T) {
	priv, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)

	imported, err := sharing.ImportPrivateKey(priv.Bytes())
	require.NoError(t, err)
	require.Equal(t, priv.Fingerprint(), imported.Fingerprint())
}

func TestPublicKeyRoundtripsBytes(t *testing.T) {
	priv, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PublicKey()

	imported, err := sharing.ImportPublicKey(pub.Bytes())
	require.NoError(t, err)
	require.Equal(t, pub.Fingerprint(), imported.Fingerprint())
}

func TestFingerprintDeterministicAndDistinct(t *testing.T) {
	a, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)
	b, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)

	require.Equal(t, a.Fingerprint(), a.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestPrettyFingerprintFormat(t *testing.T) {
	var fp [sharing.FingerprintSize]byte
	for i := range fp {
		fp[i] = byte(i)
	}
	got := sharing.PrettyFingerprint(fp)
	require.Equal(t, "00:01:02:03:04:05:06:07:08:09:0a:0b:0c:0d:0e:0f:10:11:12:13", got)
}

func TestHexFingerprintFormat(t *testing.T) {
	var fp [sharing.FingerprintSize]byte
	for i := range fp {
		fp[i] = byte(i)
	}
	got := sharing.HexFingerprint(fp)
	require.Equal(t, "000102030405060708090a0b0c0d0e0f10111213", got)
}

func TestGenerateAccessKeyIsRandom(t *testing.T) {
	a, err := sharing.GenerateAccessKey()
	require.NoError(t, err)
	b, err := sharing.GenerateAccessKey()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
