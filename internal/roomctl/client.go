// Package roomctl is the scripted client: join one room, send one message.
package roomctl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/roomwire/internal/protocol"
	"github.com/danmuck/roomwire/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

var (
	ErrAddressRequired    = errors.New("roomctl: address required")
	ErrJoinRejected       = errors.New("roomctl: join rejected")
	ErrMessageRejected    = errors.New("roomctl: message rejected")
	ErrUnexpectedResponse = errors.New("roomctl: unexpected response")
)

type ClientConfig struct {
	Address  string
	RoomID   protocol.U128
	Message  string
	AwaitAck bool
	Session  session.Config
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:  "127.0.0.1:42069",
		Message:  "Hola Mundo",
		AwaitAck: true,
		Session:  session.DefaultConfig(),
	}
}

// Result is what one scripted run observed.
type Result struct {
	RoomID    protocol.U128
	MessageID protocol.U128
	Acked     bool
}

type Client struct {
	cfg ClientConfig
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if len(cfg.Message) > protocol.MaxTextLen {
		return nil, fmt.Errorf("%w: message len=%d", protocol.ErrTextTooLong, len(cfg.Message))
	}
	cfg.Session = cfg.Session.WithDefaults()
	return &Client{cfg: cfg}, nil
}

// Run dials, joins, and sends one message. Any transport or framing error,
// and any response other than Joined to the join, fails the run. There is no
// retry.
func (c *Client) Run(ctx context.Context) (Result, error) {
	conn, err := session.Dial(ctx, c.cfg.Address, c.cfg.Session)
	if err != nil {
		return Result{}, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	room := c.cfg.RoomID
	if err := conn.Send(protocol.Join{RoomID: room}); err != nil {
		return Result{}, fmt.Errorf("roomctl: send join: %w", err)
	}
	resp, err := conn.ReadResponse()
	if err != nil {
		return Result{}, fmt.Errorf("roomctl: read join response: %w", err)
	}
	switch v := resp.(type) {
	case protocol.Joined:
		log.Info().Str("addr", c.cfg.Address).Str("room_id", v.RoomID.String()).Msg("roomctl joined")
	case protocol.JoinReject:
		return Result{}, ErrJoinRejected
	default:
		return Result{}, fmt.Errorf("%w: %s to join", ErrUnexpectedResponse, resp.Kind())
	}

	out := Result{RoomID: room}
	if err := conn.Send(protocol.Message{RoomID: room, Text: c.cfg.Message}); err != nil {
		return out, fmt.Errorf("roomctl: send message: %w", err)
	}
	if !c.cfg.AwaitAck {
		return out, nil
	}
	resp, err = conn.ReadResponse()
	if err != nil {
		return out, fmt.Errorf("roomctl: read message response: %w", err)
	}
	switch v := resp.(type) {
	case protocol.MsgSent:
		out.MessageID = v.MessageID
		out.Acked = true
		log.Info().Str("message_id", v.MessageID.String()).Msg("roomctl message sent")
		return out, nil
	case protocol.Error:
		return out, ErrMessageRejected
	default:
		return out, fmt.Errorf("%w: %s to message", ErrUnexpectedResponse, resp.Kind())
	}
}
