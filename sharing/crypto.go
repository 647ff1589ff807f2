package sharing

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	car "github.com/grovefs/carstore"

	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// EncryptedAccessKey is an AccessKey sealed for exactly one recipient: an
// ephemeral ECDH public key, the salt used to derive the wrapping key, and
// the wrapped key material itself. It carries everything the named
// recipient needs to recover the AccessKey and nothing a third party can
// use without that recipient's private key.
type EncryptedAccessKey struct {
	Salt         [SaltSize]byte
	Sealed       []byte
	EphemeralKey []byte
}

// deriveWrappingKey runs HKDF-SHA256 over an ECDH shared secret, salted and
// bound to both parties' fingerprints via the info parameter so a key
// derived for one recipient pair can't be confused with one derived for
// another pair that happens to share a secret (which ECDH never actually
// allows, but binding the fingerprints costs nothing and matches the
// derivation the wrap/unwrap pair was designed around).
func deriveWrappingKey(secret, salt []byte, info []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, car.NewError(car.ErrKindCrypto, err)
	}
	return key, nil
}

func fingerprintInfo(senderFP, recipientFP [FingerprintSize]byte) []byte {
	info := make([]byte, 0, 2*FingerprintSize)
	info = append(info, senderFP[:]...)
	info = append(info, recipientFP[:]...)
	return info
}

// EncryptAccessKeyFor wraps key so that only the holder of recipient's
// matching private key can recover it: a fresh ephemeral keypair performs
// ECDH with recipient, the shared secret is run through HKDF with a fresh
// salt to derive a wrapping key, and key is sealed under that wrapping key
// with an AEAD.
func EncryptAccessKeyFor(key AccessKey, recipient PublicKey) (EncryptedAccessKey, error) {
	ephemeral, err := GeneratePrivateKey()
	if err != nil {
		return EncryptedAccessKey{}, err
	}

	secret, err := ecdhSharedSecret(ephemeral, recipient)
	if err != nil {
		return EncryptedAccessKey{}, err
	}

	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return EncryptedAccessKey{}, car.NewError(car.ErrKindCrypto, err)
	}

	info := fingerprintInfo(ephemeral.Fingerprint(), recipient.Fingerprint())
	wrappingKey, err := deriveWrappingKey(secret, salt[:], info)
	if err != nil {
		return EncryptedAccessKey{}, err
	}

	aead, err := chacha20poly1305.New(wrappingKey)
	if err != nil {
		return EncryptedAccessKey{}, car.NewError(car.ErrKindCrypto, err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedAccessKey{}, car.NewError(car.ErrKindCrypto, err)
	}
	sealed := aead.Seal(nonce, nonce, key[:], nil)

	return EncryptedAccessKey{
		Salt:         salt,
		Sealed:       sealed,
		EphemeralKey: ephemeral.PublicKey().Bytes(),
	}, nil
}

// DecryptWith recovers the AccessKey sealed in e using recipient's private
// key, returning ErrCrypto if recipient is not the key e was sealed for or
// the ciphertext has been tampered with.
func (e EncryptedAccessKey) DecryptWith(recipient PrivateKey) (AccessKey, error) {
	ephemeralPub, err := ImportPublicKey(e.EphemeralKey)
	if err != nil {
		return AccessKey{}, err
	}

	secret, err := ecdhSharedSecret(recipient, ephemeralPub)
	if err != nil {
		return AccessKey{}, err
	}

	info := fingerprintInfo(ephemeralPub.Fingerprint(), recipient.Fingerprint())
	wrappingKey, err := deriveWrappingKey(secret, e.Salt[:], info)
	if err != nil {
		return AccessKey{}, err
	}

	aead, err := chacha20poly1305.New(wrappingKey)
	if err != nil {
		return AccessKey{}, car.NewError(car.ErrKindCrypto, err)
	}
	if len(e.Sealed) < aead.NonceSize() {
		return AccessKey{}, car.NewError(car.ErrKindCrypto, errors.New("sealed key too short"))
	}
	nonce, ciphertext := e.Sealed[:aead.NonceSize()], e.Sealed[aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return AccessKey{}, car.NewError(car.ErrKindCrypto, err)
	}

	var key AccessKey
	copy(key[:], plain)
	return key, nil
}

// Export renders e as a single dot-separated string of base64 fields, the
// form used when an encrypted access key is embedded as a string in the
// sharing map's serialized CBOR entries rather than as raw bytes.
func (e EncryptedAccessKey) Export() string {
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(e.Salt[:]),
		base64.StdEncoding.EncodeToString(e.Sealed),
		base64.StdEncoding.EncodeToString(e.EphemeralKey),
	}, ".")
}

// ImportEncryptedAccessKey parses the string form produced by Export.
func ImportEncryptedAccessKey(s string) (EncryptedAccessKey, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return EncryptedAccessKey{}, car.NewError(car.ErrKindSerialization, errors.New("malformed encrypted access key"))
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(salt) != SaltSize {
		return EncryptedAccessKey{}, car.NewError(car.ErrKindSerialization, err)
	}
	sealed, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return EncryptedAccessKey{}, car.NewError(car.ErrKindSerialization, err)
	}
	ephemeral, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return EncryptedAccessKey{}, car.NewError(car.ErrKindSerialization, err)
	}

	var e EncryptedAccessKey
	copy(e.Salt[:], salt)
	e.Sealed = sealed
	e.EphemeralKey = ephemeral
	return e, nil
}
