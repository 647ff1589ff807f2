// Package sharing implements multi-recipient access to an encrypted forest:
// an ECDH keypair per participant, a symmetric access key wrapped for each
// recipient's public key, and a serializable map tying recipient
// fingerprints to their wrapped copy of the key.
package sharing

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"

	car "github.com/grovefs/carstore"
)

const (
	// AccessKeySize is the width of the symmetric key a recipient needs to
	// decrypt a forest.
	AccessKeySize = 32
	// FingerprintSize is the width of a recipient's public-key fingerprint.
	FingerprintSize = 20
	// SaltSize is the width of the per-encryption HKDF salt.
	SaltSize = 16
)

// curve is the ECDH group every keypair in this package is drawn from.
// P-384 is used, rather than the X25519 curve more common in pure-Go
// crypto code, because it is what crypto/ecdh exposes alongside a stdlib
// NIST-curve implementation without pulling in an extra dependency for a
// single primitive the rest of this module has no other use for.
func curve() ecdh.Curve { return ecdh.P384() }

// AccessKey is the symmetric key that guards a forest: whoever holds it
// can derive the keys used to encrypt and decrypt the forest's blocks.
type AccessKey [AccessKeySize]byte

// GenerateAccessKey returns a fresh, random access key.
func GenerateAccessKey() (AccessKey, error) {
	var k AccessKey
	if _, err := rand.Read(k[:]); err != nil {
		return AccessKey{}, car.NewError(car.ErrKindCrypto, err)
	}
	return k, nil
}

// PrivateKey is a recipient's ECDH private key: the secret half of a
// keypair capable of recovering an AccessKey that was wrapped for its
// public counterpart.
type PrivateKey struct {
	key *ecdh.PrivateKey
}

// PublicKey is the public half of a PrivateKey, shared with whoever is
// wrapping an AccessKey for this recipient.
type PublicKey struct {
	key *ecdh.PublicKey
}

// GeneratePrivateKey creates a fresh ECDH keypair.
func GeneratePrivateKey() (PrivateKey, error) {
	key, err := curve().GenerateKey(rand.Reader)
	if err != nil {
		return PrivateKey{}, car.NewError(car.ErrKindCrypto, err)
	}
	return PrivateKey{key: key}, nil
}

// PublicKey returns the public half of k.
func (k PrivateKey) PublicKey() PublicKey {
	return PublicKey{key: k.key.PublicKey()}
}

// Bytes returns the private key's raw scalar encoding.
func (k PrivateKey) Bytes() []byte {
	return k.key.Bytes()
}

// ImportPrivateKey parses a raw ECDH private scalar previously produced by
// Bytes.
func ImportPrivateKey(der []byte) (PrivateKey, error) {
	key, err := curve().NewPrivateKey(der)
	if err != nil {
		return PrivateKey{}, car.NewError(car.ErrKindCrypto, err)
	}
	return PrivateKey{key: key}, nil
}

// Bytes returns the public key's uncompressed point encoding, the form
// used both for fingerprinting and for storage in a sharing Map.
func (k PublicKey) Bytes() []byte {
	return k.key.Bytes()
}

// ImportPublicKey parses a raw ECDH public point previously produced by
// Bytes.
func ImportPublicKey(der []byte) (PublicKey, error) {
	key, err := curve().NewPublicKey(der)
	if err != nil {
		return PublicKey{}, car.NewError(car.ErrKindCrypto, err)
	}
	return PublicKey{key: key}, nil
}

// Fingerprint returns a short, stable identifier for k: the first
// FingerprintSize bytes of the SHA-256 digest of its point encoding. It is
// used as the lookup key in a sharing Map, since a full public key is
// unwieldy as a map index.
func (k PublicKey) Fingerprint() [FingerprintSize]byte {
	sum := sha256.Sum256(k.key.Bytes())
	var fp [FingerprintSize]byte
	copy(fp[:], sum[:FingerprintSize])
	return fp
}

// Fingerprint returns the fingerprint of k's public half.
func (k PrivateKey) Fingerprint() [FingerprintSize]byte {
	return k.PublicKey().Fingerprint()
}

const hexDigits = "0123456789abcdef"

// HexFingerprint renders a fingerprint as plain, unseparated hex —
// fingerprint = hex(hash(public_key_canonical_form)) — the form used as the
// sharing map's storage key.
func HexFingerprint(fp [FingerprintSize]byte) string {
	out := make([]byte, 0, FingerprintSize*2)
	for _, b := range fp {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}

// PrettyFingerprint renders a fingerprint as colon-separated hex bytes,
// e.g. "3a:09:ff:...", the display form used wherever a fingerprint needs
// to be read by a human rather than looked up by code.
func PrettyFingerprint(fp [FingerprintSize]byte) string {
	out := make([]byte, 0, FingerprintSize*3-1)
	for i, b := range fp {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}

// ecdhSharedSecret runs the ECDH key agreement between priv and pub.
func ecdhSharedSecret(priv PrivateKey, pub PublicKey) ([]byte, error) {
	secret, err := priv.key.ECDH(pub.key)
	if err != nil {
		return nil, car.NewError(car.ErrKindCrypto, err)
	}
	return secret, nil
}
