package composite

import (
	"fmt"

	"github.com/flipbook/service/internal/storage"
)

// ErrorKind names why a generation was aborted. Every kind aborts the whole
// batch; no partial artifact is written.
type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindTransientIO ErrorKind = "transient_io"
	KindDecode      ErrorKind = "decode"
	KindEncode      ErrorKind = "encode"
)

// Error reports the object that aborted a generation.
type Error struct {
	Kind ErrorKind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("composite %s %q: %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Describe returns a client-facing sentence for the failure.
func (e *Error) Describe() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("composite aborted: %s disappeared before it could be read", e.Key)
	case KindDecode:
		return fmt.Sprintf("composite aborted: %s could not be decoded as an image", e.Key)
	case KindEncode:
		return "composite aborted: animated image could not be encoded"
	default:
		return fmt.Sprintf("composite aborted: storage I/O failed on %s", e.Key)
	}
}

func storageError(key string, err error) *Error {
	kind := KindTransientIO
	if storage.IsNotFound(err) {
		kind = KindNotFound
	}
	return &Error{Kind: kind, Key: key, Err: err}
}
