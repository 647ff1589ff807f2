package sharing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovefs/carstore/sharing"
)

func TestEncryptDecryptAccessKeyRoundtrip(t *testing.T) {
	recipient, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)

	key, err := sharing.GenerateAccessKey()
	require.NoError(t, err)

	enc, err := sharing.EncryptAccessKeyFor(key, recipient.PublicKey())
	require.NoError(t, err)

	got, err := enc.DecryptWith(recipient)
	require.NoError(t, err)
	require.Equal(t, key, got)
}

func TestDecryptWithWrongRecipientFails(t *testing.T) {
	recipient, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)
	stranger, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)

	key, err := sharing.GenerateAccessKey()
	require.NoError(t, err)

	enc, err := sharing.EncryptAccessKeyFor(key, recipient.PublicKey())
	require.NoError(t, err)

	_, err = enc.DecryptWith(stranger)
	require.Error(t, err)
}

func TestEncryptedAccessKeyExportImportRoundtrip(t *testing.T) {
	recipient, err := sharing.GeneratePrivateKey()
	require.NoError(t, err)
	key, err := sharing.GenerateAccessKey()
	require.NoError(t, err)

	enc, err := sharing.EncryptAccessKeyFor(key, recipient.PublicKey())
	require.NoError(t, err)

	exported := enc.Export()
	imported, err := sharing.ImportEncryptedAccessKey(exported)
	require.NoError(t, err)

	got, err := imported.DecryptWith(recipient)
	require.NoError(t, err)
	require.Equal(t, key, got)
}

func TestImportEncryptedAccessKeyRejectsMalformed(t *testing.T) {
	_, err := sharing.ImportEncryptedAccessKey("not-a-valid-encoding")
	require.Error(t, err)
}
