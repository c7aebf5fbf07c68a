package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/danmuck/roomwire/internal/protocol"
)

var ErrUnexpectedFrame = errors.New("session: unexpected frame")

// Conn exchanges typed frames over one net.Conn. Reads go through a buffered
// reader; every Send is flushed before it returns. A Conn is meant to be
// driven by one goroutine; Close may be called from any goroutine.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	cfg    Config
}

// Dial connects to address and wraps the stream.
func Dial(ctx context.Context, address string, cfg Config) (*Conn, error) {
	cfg = cfg.WithDefaults()
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("session: dial %s: %w", address, err)
	}
	return NewConn(raw, cfg), nil
}

// NewConn wraps an already established stream, typically one returned by
// net.Listener.Accept.
func NewConn(raw net.Conn, cfg Config) *Conn {
	cfg = cfg.WithDefaults()
	return &Conn{
		raw:    raw,
		reader: bufio.NewReaderSize(raw, cfg.ReadBufferSize),
		writer: bufio.NewWriterSize(raw, 64),
		cfg:    cfg,
	}
}

// Send encodes f and flushes it to the peer. An unencodable frame writes
// nothing.
func (c *Conn) Send(f protocol.Frame) error {
	if c.cfg.WriteTimeout > 0 {
		if err := c.raw.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	if err := protocol.Encode(c.writer, f); err != nil {
		return err
	}
	return c.writer.Flush()
}

// ReadRequest blocks until one Request frame is decoded or the stream fails.
func (c *Conn) ReadRequest() (protocol.Request, error) {
	if err := c.armRead(); err != nil {
		return nil, err
	}
	return protocol.DecodeRequest(c.reader)
}

// ReadResponse blocks until one Response frame is decoded or the stream fails.
func (c *Conn) ReadResponse() (protocol.Response, error) {
	if err := c.armRead(); err != nil {
		return nil, err
	}
	return protocol.DecodeResponse(c.reader)
}

func (c *Conn) armRead() error {
	if c.cfg.ReadTimeout <= 0 {
		return nil
	}
	return c.raw.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

func (c *Conn) LocalAddr() net.Addr {
	return c.raw.LocalAddr()
}

func (c *Conn) Close() error {
	return c.raw.Close()
}

// Receive reads one frame of the family T belongs to and asserts it to T.
// T may be protocol.Request, protocol.Response or a concrete variant such as
// protocol.Joined; a frame of another variant yields ErrUnexpectedFrame.
func Receive[T protocol.Frame](c *Conn) (T, error) {
	var zero T
	var (
		f   protocol.Frame
		err error
	)
	switch any(&zero).(type) {
	case *protocol.Request:
		f, err = c.ReadRequest()
	case *protocol.Response:
		f, err = c.ReadResponse()
	default:
		switch any(zero).(type) {
		case protocol.Request:
			f, err = c.ReadRequest()
		case protocol.Response:
			f, err = c.ReadResponse()
		default:
			return zero, fmt.Errorf("%w: %T", protocol.ErrUnsupportedFrame, zero)
		}
	}
	if err != nil {
		return zero, err
	}
	out, ok := f.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %s", ErrUnexpectedFrame, f.Kind())
	}
	return out, nil
}
