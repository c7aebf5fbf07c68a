package protocol

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidTag       = errors.New("protocol: invalid tag")
	ErrUnexpectedEOF    = errors.New("protocol: unexpected eof")
	ErrInvalidEncoding  = errors.New("protocol: invalid utf-8 encoding")
	ErrTextTooLong      = errors.New("protocol: text too long")
	ErrNilFrame         = errors.New("protocol: nil frame")
	ErrUnsupportedFrame = errors.New("protocol: unsupported frame type")
	ErrInvalidU128      = errors.New("protocol: invalid u128")
)

// Frame family names used in DecodeError.
const (
	FamilyRequest  = "request"
	FamilyResponse = "response"
)

// DecodeError is a framing failure raised while decoding one frame.
// It matches one of ErrInvalidTag, ErrUnexpectedEOF or ErrInvalidEncoding
// through errors.Is. When the stream ended, the io error (io.EOF or
// io.ErrUnexpectedEOF) is matchable too.
type DecodeError struct {
	Family string
	Tag    byte
	Field  string
	Err    error

	cause error
}

func (e *DecodeError) Error() string {
	if e.Field == "tag" {
		return fmt.Sprintf("%v: %s tag=%d", e.Err, e.Family, e.Tag)
	}
	return fmt.Sprintf("%v: %s tag=%d field=%s", e.Err, e.Family, e.Tag, e.Field)
}

func (e *DecodeError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.cause}
}

// IsDecodeError reports whether err is a framing failure, as opposed to a
// transport error surfaced while reading.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsEndOfStream reports whether the stream ended cleanly on a frame boundary.
func IsEndOfStream(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Field == "tag" && errors.Is(err, io.EOF)
}
