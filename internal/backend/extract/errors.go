package extract

import (
	"errors"
	"fmt"
)

// Kind classifies why extracting a request message failed.
type Kind int

const (
	// KindPrecondition means the request was rejected before any body byte was read.
	KindPrecondition Kind = iota + 1
	// KindTransport means reading the body failed or was cancelled.
	KindTransport
	// KindTooLarge means the body exceeded the configured cap.
	KindTooLarge
	// KindDecode means the complete body could not be decoded.
	KindDecode
)

var (
	ErrPrecondition = errors.New("precondition failed")
	ErrTransport    = errors.New("transport error")
	ErrTooLarge     = errors.New("request body too large")
	ErrDecode       = errors.New("decode error")
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindTransport:
		return "transport"
	case KindTooLarge:
		return "too_large"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case KindPrecondition:
		return ErrPrecondition
	case KindTransport:
		return ErrTransport
	case KindTooLarge:
		return ErrTooLarge
	case KindDecode:
		return ErrDecode
	}
	return nil
}

// Error is the terminal failure of an extraction.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}
