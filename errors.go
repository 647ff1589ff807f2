package car

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

// ErrKind enumerates the error taxonomy shared across the car, v2,
// blockstore, and sharing packages. Callers that need to branch on failure
// type should use errors.As to recover a *StoreError and switch on Kind,
// rather than string-matching Error().
type ErrKind int

const (
	// ErrKindUnknown is the zero value; StoreError should never be
	// constructed without an explicit kind.
	ErrKindUnknown ErrKind = iota
	ErrKindMalformedVarint
	ErrKindMalformedV1Header
	ErrKindMalformedV2Header
	ErrKindBadPragma
	ErrKindMissingBlock
	ErrKindMissingFile
	ErrKindMissingDirectory
	ErrKindExists
	ErrKindLengthMismatch
	ErrKindIdentifierMismatch
	ErrKindUnauthorized
	ErrKindCrypto
	ErrKindIO
	ErrKindSerialization
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindMalformedVarint:
		return "malformed varint"
	case ErrKindMalformedV1Header:
		return "malformed v1 header"
	case ErrKindMalformedV2Header:
		return "malformed v2 header"
	case ErrKindBadPragma:
		return "bad pragma"
	case ErrKindMissingBlock:
		return "missing block"
	case ErrKindMissingFile:
		return "missing file"
	case ErrKindMissingDirectory:
		return "missing directory"
	case ErrKindExists:
		return "already exists"
	case ErrKindLengthMismatch:
		return "length mismatch"
	case ErrKindIdentifierMismatch:
		return "identifier mismatch"
	case ErrKindUnauthorized:
		return "unauthorized"
	case ErrKindCrypto:
		return "crypto error"
	case ErrKindIO:
		return "io error"
	case ErrKindSerialization:
		return "serialization error"
	default:
		return "unknown error"
	}
}

// StoreError is the concrete error type returned across this module's
// public API. It carries an enumerated Kind plus whatever context
// (path/CID/offset) is available at the point of failure, and wraps the
// underlying cause so errors.Is/errors.As keep working against it.
type StoreError struct {
	Kind   ErrKind
	Path   string
	CID    cid.Cid
	Offset int64
	Cause  error
}

func (e *StoreError) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.CID.Defined() {
		msg += fmt.Sprintf(" (cid=%s)", e.CID)
	}
	if e.Offset != 0 {
		msg += fmt.Sprintf(" (offset=%d)", e.Offset)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Cause }

// NewError constructs a *StoreError of the given kind wrapping cause.
func NewError(kind ErrKind, cause error) *StoreError {
	return &StoreError{Kind: kind, Cause: cause}
}

// WithPath attaches a path to the error and returns it for chaining.
func (e *StoreError) WithPath(path string) *StoreError {
	e.Path = path
	return e
}

// WithCID attaches a CID to the error and returns it for chaining.
func (e *StoreError) WithCID(c cid.Cid) *StoreError {
	e.CID = c
	return e
}

// WithOffset attaches a byte offset to the error and returns it for chaining.
func (e *StoreError) WithOffset(off int64) *StoreError {
	e.Offset = off
	return e
}

// Is reports whether target is a *StoreError with the same Kind, which
// lets callers write errors.Is(err, car.ErrMissingBlock) style checks
// against the sentinel values below.
func (e *StoreError) Is(target error) bool {
	var other *StoreError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Sentinel kind markers usable with errors.Is.
var (
	ErrMalformedVarint    = &StoreError{Kind: ErrKindMalformedVarint}
	ErrMalformedV1Header  = &StoreError{Kind: ErrKindMalformedV1Header}
	ErrMalformedV2Header  = &StoreError{Kind: ErrKindMalformedV2Header}
	ErrBadPragma          = &StoreError{Kind: ErrKindBadPragma}
	ErrMissingBlock       = &StoreError{Kind: ErrKindMissingBlock}
	ErrMissingFile        = &StoreError{Kind: ErrKindMissingFile}
	ErrMissingDirectory   = &StoreError{Kind: ErrKindMissingDirectory}
	ErrExists             = &StoreError{Kind: ErrKindExists}
	ErrLengthMismatch     = &StoreError{Kind: ErrKindLengthMismatch}
	ErrIdentifierMismatch = &StoreError{Kind: ErrKindIdentifierMismatch}
	ErrUnauthorized       = &StoreError{Kind: ErrKindUnauthorized}
	ErrCrypto             = &StoreError{Kind: ErrKindCrypto}
	ErrSerialization      = &StoreError{Kind: ErrKindSerialization}
)
