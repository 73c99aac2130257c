package storage

import (
	"errors"
	"fmt"
)

// Kind classifies storage failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound means the key or bucket does not exist.
	KindNotFound
	// KindTransient covers network, service and I/O failures.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient_io"
	default:
		return "unknown"
	}
}

// ErrNotFound matches any *Error of KindNotFound via errors.Is.
var ErrNotFound = errors.New("object not found")

// Error is returned by every Storage implementation.
type Error struct {
	Op   string // "upload", "download", "list"
	Key  string // object key or list prefix
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q: %s: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrNotFound and e is a not-found failure.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a not-found storage failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func wrap(op, key string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Key: key, Kind: kind, Err: err}
}
