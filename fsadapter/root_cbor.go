package fsadapter

import (
	"github.com/ipfs/go-cid"
	cbor "github.com/ipfs/go-ipld-cbor"

	car "github.com/grovefs/carstore"
)

// rootRecord is Root's wire shape: cbor-gen style libraries want plain
// fixed fields, so the fixed-width arrays are carried as byte slices here
// and copied back into [N]byte arrays on decode.
type rootRecord struct {
	NameHash    []byte
	ContentCID  []byte
	TemporalKey []byte
}

func registerRootCborType() {
	cbor.RegisterCborType(rootRecord{})
}

func encodeRoot(root Root) ([]byte, error) {
	rec := rootRecord{
		NameHash:    root.NameHash[:],
		ContentCID:  root.ContentCID.Bytes(),
		TemporalKey: root.TemporalKey[:],
	}
	b, err := cbor.DumpObject(rec)
	if err != nil {
		return nil, car.NewError(car.ErrKindSerialization, err)
	}
	return b, nil
}

func decodeRoot(data []byte) (Root, error) {
	var rec rootRecord
	if err := cbor.DecodeInto(data, &rec); err != nil {
		return Root{}, car.NewError(car.ErrKindSerialization, err)
	}

	_, c, err := cid.CidFromBytes(rec.ContentCID)
	if err != nil {
		return Root{}, car.NewError(car.ErrKindSerialization, err)
	}

	var root Root
	copy(root.NameHash[:], rec.NameHash)
	copy(root.TemporalKey[:], rec.TemporalKey)
	root.ContentCID = c
	return root, nil
}
