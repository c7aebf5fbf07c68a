package protocol

import (
	"fmt"
	"io"
)

// MarshalRequest returns the wire encoding of req.
func MarshalRequest(req Request) ([]byte, error) {
	if req == nil {
		return nil, ErrNilFrame
	}
	buf := make([]byte, 0, 1+requestMarkerLen+16)
	switch v := req.(type) {
	case Join:
		buf = append(buf, TagJoin)
		return appendU128(buf, requestMarkerLen, v.RoomID), nil
	case Message:
		buf = append(buf, TagMessage)
		buf = appendU128(buf, requestMarkerLen, v.RoomID)
		return appendText(buf, v.Text)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFrame, req)
	}
}

// MarshalResponse returns the wire encoding of resp.
func MarshalResponse(resp Response) ([]byte, error) {
	if resp == nil {
		return nil, ErrNilFrame
	}
	buf := make([]byte, 0, 1+responseMarkerLen+16)
	switch v := resp.(type) {
	case Error:
		return append(buf, TagError), nil
	case JoinReject:
		return append(buf, TagJoinReject), nil
	case Joined:
		buf = append(buf, TagJoined)
		return appendU128(buf, responseMarkerLen, v.RoomID), nil
	case MsgSent:
		buf = append(buf, TagMsgSent)
		return appendU128(buf, responseMarkerLen, v.MessageID), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFrame, resp)
	}
}

// EncodeRequest writes req to w. Nothing is written if req cannot be encoded.
func EncodeRequest(w io.Writer, req Request) error {
	b, err := MarshalRequest(req)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// EncodeResponse writes resp to w. Nothing is written if resp cannot be encoded.
func EncodeResponse(w io.Writer, resp Response) error {
	b, err := MarshalResponse(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Encode writes any Request or Response.
func Encode(w io.Writer, f Frame) error {
	switch v := f.(type) {
	case nil:
		return ErrNilFrame
	case Request:
		return EncodeRequest(w, v)
	case Response:
		return EncodeResponse(w, v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedFrame, f)
	}
}
