package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports that the buffer holds a valid prefix of a frame
	// but not the whole frame. Nothing was consumed; append more bytes and
	// decode again.
	ErrIncomplete = errors.New("protocol: incomplete frame")

	// ErrMalformed is matched by every *MalformedError
	ErrMalformed = errors.New("protocol: malformed frame")

	// ErrEncode is matched by every *EncodeError
	ErrEncode = errors.New("protocol: invalid frame for encoding")
)

// MalformedError reports a protocol violation. It is permanent for the
// buffer position it was found at; the stream cannot recover.
type MalformedError struct {
	Offset int // byte offset from the start of the decoded buffer
	Reason string
}

// Error implements the error interface
func (e *MalformedError) Error() string {
	return fmt.Sprintf("protocol error at offset %d: %s", e.Offset, e.Reason)
}

// Unwrap returns ErrMalformed
func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// EncodeError reports a frame that violates the constraints of its variant,
// such as a line break inside a SimpleString.
type EncodeError struct {
	Kind   Kind
	Reason string
}

// Error implements the error interface
func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %s: %s", e.Kind, e.Reason)
}

// Unwrap returns ErrEncode
func (e *EncodeError) Unwrap() error {
	return ErrEncode
}

// IsIncomplete reports whether err means more input is needed
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// IsMalformed reports whether err is a protocol violation
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

func malformed(offset int, format string, args ...interface{}) error {
	return &MalformedError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
