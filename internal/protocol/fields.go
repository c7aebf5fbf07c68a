package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

func appendMarker(buf []byte, width int) []byte {
	if width == 1 {
		return append(buf, U128Marker)
	}
	return binary.BigEndian.AppendUint16(buf, U128Marker)
}

func appendU128(buf []byte, markerWidth int, v U128) []byte {
	buf = appendMarker(buf, markerWidth)
	buf = binary.BigEndian.AppendUint64(buf, v.Hi)
	return binary.BigEndian.AppendUint64(buf, v.Lo)
}

func appendText(buf []byte, s string) ([]byte, error) {
	if len(s) > MaxTextLen {
		return nil, fmt.Errorf("%w: len=%d max=%d", ErrTextTooLong, len(s), MaxTextLen)
	}
	if !utf8.ValidString(s) {
		return nil, ErrInvalidEncoding
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...), nil
}

// fieldReader reads the fields of one frame straight from the stream.
type fieldReader struct {
	r       io.Reader
	family  string
	tag     byte
	scratch [16]byte
}

func (fr *fieldReader) fail(field string, kind error, cause error) error {
	return &DecodeError{Family: fr.family, Tag: fr.tag, Field: field, Err: kind, cause: cause}
}

func (fr *fieldReader) read(field string, buf []byte) error {
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fr.fail(field, ErrUnexpectedEOF, err)
		}
		return err
	}
	return nil
}

func (fr *fieldReader) readTag() (byte, error) {
	if err := fr.read("tag", fr.scratch[:1]); err != nil {
		return 0, err
	}
	fr.tag = fr.scratch[0]
	return fr.tag, nil
}

func (fr *fieldReader) readU128(field string, markerWidth int) (U128, error) {
	if err := fr.read(field, fr.scratch[:markerWidth]); err != nil {
		return U128{}, err
	}
	if err := fr.read(field, fr.scratch[:16]); err != nil {
		return U128{}, err
	}
	return U128FromBytes(fr.scratch), nil
}

func (fr *fieldReader) readText(field string) (string, error) {
	if err := fr.read(field, fr.scratch[:2]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(fr.scratch[:2])
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if err := fr.read(field, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", fr.fail(field, ErrInvalidEncoding, nil)
	}
	return string(buf), nil
}

func (fr *fieldReader) invalidTag() error {
	return fr.fail("tag", ErrInvalidTag, nil)
}
