package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/roomwire/internal/roomd"
)

// roomd config.toml key mapping to service settings.
type fileConfig struct {
	Addr         string `toml:"addr"`
	NodeID       string `toml:"node_id"`
	IdentityMode string `toml:"identity_mode"`
	IdleTimeout  string `toml:"idle_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	MetricsAddr  string `toml:"metrics_addr"`
}

// loadServiceConfig overlays the TOML file at path onto service defaults. An
// empty path yields the defaults.
func loadServiceConfig(path string) (roomd.ServiceConfig, error) {
	cfg := roomd.DefaultServiceConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return roomd.ServiceConfig{}, fmt.Errorf("load roomd config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return roomd.ServiceConfig{}, fmt.Errorf("load roomd config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("node_id") {
		cfg.NodeID = strings.TrimSpace(raw.NodeID)
	}
	if meta.IsDefined("identity_mode") {
		cfg.IdentityMode = roomd.IdentityMode(strings.ToLower(strings.TrimSpace(raw.IdentityMode)))
	}
	if meta.IsDefined("idle_timeout") {
		d, err := parseDuration("idle_timeout", raw.IdleTimeout)
		if err != nil {
			return roomd.ServiceConfig{}, err
		}
		cfg.IdleTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := parseDuration("write_timeout", raw.WriteTimeout)
		if err != nil {
			return roomd.ServiceConfig{}, err
		}
		cfg.WriteTimeout = d
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if err := cfg.Validate(); err != nil {
		return roomd.ServiceConfig{}, fmt.Errorf("load roomd config: %w", err)
	}
	return cfg, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("load roomd config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("load roomd config: %s must not be negative", key)
	}
	return d, nil
}
