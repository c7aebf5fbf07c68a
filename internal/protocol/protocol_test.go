package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRoundTripRequests(t *testing.T) {
	cases := []Request{
		Join{RoomID: U128From64(7)},
		Join{RoomID: MaxU128},
		Message{RoomID: U128{Hi: 1, Lo: 2}, Text: "hola mundo"},
		Message{RoomID: U128From64(3), Text: ""},
		Message{RoomID: U128From64(3), Text: "héllo, 世界"},
	}
	for _, in := range cases {
		var buf bytes.Buffer
		if err := EncodeRequest(&buf, in); err != nil {
			t.Fatalf("encode %#v: %v", in, err)
		}
		out, err := DecodeRequest(&buf)
		if err != nil {
			t.Fatalf("decode %#v: %v", in, err)
		}
		if out != in {
			t.Fatalf("round-trip mismatch: got=%#v want=%#v", out, in)
		}
		if buf.Len() != 0 {
			t.Fatalf("decode left %d bytes for %#v", buf.Len(), in)
		}
	}
}

func TestRoundTripResponses(t *testing.T) {
	cases := []Response{
		Error{},
		JoinReject{},
		Joined{RoomID: U128From64(42)},
		MsgSent{MessageID: U128{Hi: 0xdeadbeef, Lo: 0xfeedface}},
		MsgSent{MessageID: MaxU128},
	}
	for _, in := range cases {
		var buf bytes.Buffer
		if err := EncodeResponse(&buf, in); err != nil {
			t.Fatalf("encode %#v: %v", in, err)
		}
		out, err := DecodeResponse(&buf)
		if err != nil {
			t.Fatalf("decode %#v: %v", in, err)
		}
		if out != in {
			t.Fatalf("round-trip mismatch: got=%#v want=%#v", out, in)
		}
		if buf.Len() != 0 {
			t.Fatalf("decode left %d bytes for %#v", buf.Len(), in)
		}
	}
}

func TestWireLayout(t *testing.T) {
	join, err := MarshalRequest(Join{RoomID: U128From64(5)})
	if err != nil {
		t.Fatalf("marshal join: %v", err)
	}
	want := append([]byte{TagJoin, 128}, make([]byte, 15)...)
	want = append(want, 5)
	if !bytes.Equal(join, want) {
		t.Fatalf("join bytes: got=%x want=%x", join, want)
	}

	msg, err := MarshalRequest(Message{RoomID: U128{Hi: 1}, Text: "hi"})
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	want = []byte{TagMessage, 128, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 'h', 'i'}
	if !bytes.Equal(msg, want) {
		t.Fatalf("message bytes: got=%x want=%x", msg, want)
	}

	joined, err := MarshalResponse(Joined{RoomID: U128From64(0x0102)})
	if err != nil {
		t.Fatalf("marshal joined: %v", err)
	}
	want = append([]byte{TagJoined, 0, 128}, make([]byte, 14)...)
	want = append(want, 0x01, 0x02)
	if !bytes.Equal(joined, want) {
		t.Fatalf("joined bytes: got=%x want=%x", joined, want)
	}

	for _, resp := range []Response{Error{}, JoinReject{}} {
		b, err := MarshalResponse(resp)
		if err != nil {
			t.Fatalf("marshal %s: %v", resp.Kind(), err)
		}
		if len(b) != 1 || b[0] != resp.Tag() {
			t.Fatalf("%s should be tag only, got=%x", resp.Kind(), b)
		}
	}
}

func TestMessageTextBoundaries(t *testing.T) {
	for _, n := range []int{0, MaxTextLen} {
		in := Message{RoomID: U128From64(1), Text: strings.Repeat("a", n)}
		b, err := MarshalRequest(in)
		if err != nil {
			t.Fatalf("marshal len=%d: %v", n, err)
		}
		out, err := DecodeRequest(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("decode len=%d: %v", n, err)
		}
		if out.(Message).Text != in.Text {
			t.Fatalf("text mismatch len=%d", n)
		}
	}

	var buf bytes.Buffer
	err := EncodeRequest(&buf, Message{RoomID: U128From64(1), Text: strings.Repeat("a", MaxTextLen+1)})
	if !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("failed encode must not write, wrote %d bytes", buf.Len())
	}
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	_, err := MarshalRequest(Message{Text: string([]byte{0xff, 0xfe})})
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestEncodeNilFrame(t *testing.T) {
	if err := Encode(io.Discard, nil); !errors.Is(err, ErrNilFrame) {
		t.Fatalf("expected ErrNilFrame, got %v", err)
	}
	if _, err := MarshalRequest(nil); !errors.Is(err, ErrNilFrame) {
		t.Fatalf("expected ErrNilFrame, got %v", err)
	}
}

func TestDecodeEmptyStream(t *testing.T) {
	_, err := DecodeRequest(bytes.NewReader(nil))
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("request: expected ErrUnexpectedEOF, got %v", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Fatalf("request: clean end of stream should match io.EOF, got %v", err)
	}
	_, err = DecodeResponse(bytes.NewReader(nil))
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("response: expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecodeTruncatedFrames(t *testing.T) {
	msg, err := MarshalRequest(Message{RoomID: U128From64(9), Text: "truncate me"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for n := 1; n < len(msg); n++ {
		_, err := DecodeRequest(bytes.NewReader(msg[:n]))
		if !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("prefix=%d: expected ErrUnexpectedEOF, got %v", n, err)
		}
		if !IsDecodeError(err) {
			t.Fatalf("prefix=%d: expected DecodeError, got %T", n, err)
		}
	}

	sent, err := MarshalResponse(MsgSent{MessageID: U128From64(1)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for n := 1; n < len(sent); n++ {
		_, err := DecodeResponse(bytes.NewReader(sent[:n]))
		if !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("prefix=%d: expected ErrUnexpectedEOF, got %v", n, err)
		}
	}
}

func TestDecodeInvalidTag(t *testing.T) {
	_, err := DecodeRequest(bytes.NewReader([]byte{200}))
	if !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("request: expected ErrInvalidTag, got %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Tag != 200 || de.Family != FamilyRequest {
		t.Fatalf("unexpected decode error detail: %+v", de)
	}
	_, err = DecodeResponse(bytes.NewReader([]byte{200}))
	if !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("response: expected ErrInvalidTag, got %v", err)
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	b := []byte{TagMessage, 128}
	b = append(b, make([]byte, 16)...)
	b = append(b, 0, 2, 0xc3, 0x28)
	_, err := DecodeRequest(bytes.NewReader(b))
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestDecodeIgnoresMarkerValue(t *testing.T) {
	b, err := MarshalResponse(Joined{RoomID: U128From64(11)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b[1], b[2] = 0xff, 0x07
	out, err := DecodeResponse(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != (Joined{RoomID: U128From64(11)}) {
		t.Fatalf("unexpected response: %#v", out)
	}
}

func TestDecodeKeepsStreamAligned(t *testing.T) {
	var buf bytes.Buffer
	frames := []Request{
		Join{RoomID: U128From64(1)},
		Message{RoomID: U128From64(1), Text: "first"},
		Message{RoomID: U128From64(1), Text: ""},
		Join{RoomID: U128From64(2)},
	}
	for _, f := range frames {
		if err := Encode(&buf, f); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	for i, want := range frames {
		got, err := DecodeRequest(&buf)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("frame %d: got=%#v want=%#v", i, got, want)
		}
	}
	if _, err := DecodeRequest(&buf); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestDecodeSurfacesTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := DecodeRequest(failingReader{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if IsDecodeError(err) {
		t.Fatalf("transport error must not be a DecodeError")
	}
}

func TestIsEndOfStream(t *testing.T) {
	_, err := DecodeRequest(bytes.NewReader(nil))
	if !IsEndOfStream(err) {
		t.Fatalf("empty stream should be end of stream: %v", err)
	}
	_, err = DecodeRequest(bytes.NewReader([]byte{TagJoin}))
	if IsEndOfStream(err) {
		t.Fatalf("stream cut after tag is not a clean end: %v", err)
	}
}
