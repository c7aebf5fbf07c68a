package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/roomwire/internal/protocol"
	"github.com/danmuck/roomwire/internal/roomctl"
)

// roomctl config.toml key mapping to client settings.
type fileConfig struct {
	Addr           string `toml:"addr"`
	RoomID         string `toml:"room_id"`
	Message        string `toml:"message"`
	AwaitAck       bool   `toml:"await_ack"`
	ConnectTimeout string `toml:"connect_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
}

// loadClientConfig overlays the TOML file at path onto client defaults. An
// empty path yields the defaults.
func loadClientConfig(path string) (roomctl.ClientConfig, error) {
	cfg := roomctl.DefaultClientConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return roomctl.ClientConfig{}, fmt.Errorf("load roomctl config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Address = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("room_id") {
		room, err := protocol.ParseU128(raw.RoomID)
		if err != nil {
			return roomctl.ClientConfig{}, fmt.Errorf("load roomctl config: room_id: %w", err)
		}
		cfg.RoomID = room
	}
	if meta.IsDefined("message") {
		cfg.Message = raw.Message
	}
	if meta.IsDefined("await_ack") {
		cfg.AwaitAck = raw.AwaitAck
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Session.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.Session.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Session.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return roomctl.ClientConfig{}, fmt.Errorf("load roomctl config: %s: %w", d.key, err)
		}
		*d.dst = v
	}

	cfg.Session = cfg.Session.WithDefaults()
	return cfg, nil
}
