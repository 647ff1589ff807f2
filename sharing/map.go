package sharing

import (
	cbor "github.com/ipfs/go-ipld-cbor"
	logging "github.com/ipfs/go-log/v2"

	car "github.com/grovefs/carstore"
)

var logger = logging.Logger("sharing")

// entry is one recipient's registration: their public key's uncompressed
// point bytes, and that recipient's wrapped copy of the current access key,
// exported to its string form. The wrapped copy is empty for a recipient
// added without a key, until the next call to Rotate.
type entry struct {
	PublicKey           []byte `refmt:"PUBLIC_KEY"`
	EncryptedPrivateRef string `refmt:"ENCRYPTED_PRIVATE_REF"`
}

func init() {
	cbor.RegisterCborType(entry{})
}

// Map tracks which recipients can recover a forest's access key: a
// fingerprint-indexed table pairing each recipient's public key with their
// sealed copy of the key. It is the serialized form persisted alongside an
// encrypted forest, letting a reader recover the access key if and only if
// they hold one of the registered private keys.
type Map struct {
	Entries map[string]entry
}

// NewMap returns an empty sharing map.
func NewMap() *Map {
	return &Map{Entries: make(map[string]entry)}
}

// AddRecipient registers recipient in the map. If key is non-nil, a sealed
// copy of it is stored for recipient immediately; otherwise the recipient
// is registered with no key yet, to be filled in by a later Rotate.
func (m *Map) AddRecipient(key *AccessKey, recipient PublicKey) error {
	fp := HexFingerprint(recipient.Fingerprint())

	var refString string
	if key != nil {
		enc, err := EncryptAccessKeyFor(*key, recipient)
		if err != nil {
			return err
		}
		refString = enc.Export()
	}

	m.Entries[fp] = entry{
		PublicKey:           recipient.Bytes(),
		EncryptedPrivateRef: refString,
	}
	return nil
}

// RemoveRecipient drops a recipient from the map, revoking their access to
// any future rotation of the key. It has no effect on a copy of the key
// they have already recovered and cached elsewhere.
func (m *Map) RemoveRecipient(recipient PublicKey) {
	delete(m.Entries, HexFingerprint(recipient.Fingerprint()))
}

// Rotate re-seals key for every currently registered recipient, replacing
// whatever wrapped key each one previously held. Use this after generating
// a new access key, to bring every recipient's entry up to date in one
// pass.
func (m *Map) Rotate(key AccessKey) error {
	logger.Debugf("rotating access key for %d recipients", len(m.Entries))
	for fp, e := range m.Entries {
		recipient, err := ImportPublicKey(e.PublicKey)
		if err != nil {
			return err
		}
		enc, err := EncryptAccessKeyFor(key, recipient)
		if err != nil {
			return err
		}
		e.EncryptedPrivateRef = enc.Export()
		m.Entries[fp] = e
	}
	return nil
}

// RecoverAccessKey recovers the access key sealed for recipient, returning
// ErrUnauthorized if recipient is not registered or has no key sealed for
// it yet.
func (m *Map) RecoverAccessKey(recipient PrivateKey) (AccessKey, error) {
	fp := HexFingerprint(recipient.Fingerprint())
	e, ok := m.Entries[fp]
	if !ok || e.EncryptedPrivateRef == "" {
		return AccessKey{}, car.NewError(car.ErrKindUnauthorized, nil)
	}

	enc, err := ImportEncryptedAccessKey(e.EncryptedPrivateRef)
	if err != nil {
		return AccessKey{}, err
	}
	return enc.DecryptWith(recipient)
}

// Len returns the number of recipients currently registered.
func (m *Map) Len() int { return len(m.Entries) }

// MarshalCBOR encodes the map as {"fingerprint": {"PUBLIC_KEY": bytes,
// "ENCRYPTED_PRIVATE_REF": string}, ...}, the form the CLI's share commands
// write to a sharing-map file.
func (m *Map) MarshalCBOR() ([]byte, error) {
	b, err := cbor.DumpObject(m.Entries)
	if err != nil {
		return nil, car.NewError(car.ErrKindSerialization, err)
	}
	return b, nil
}

// UnmarshalCBOR decodes a map previously produced by MarshalCBOR.
func (m *Map) UnmarshalCBOR(data []byte) error {
	if m.Entries == nil {
		m.Entries = make(map[string]entry)
	}
	if err := cbor.DecodeInto(data, &m.Entries); err != nil {
		return car.NewError(car.ErrKindSerialization, err)
	}
	return nil
}
