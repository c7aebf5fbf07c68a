package session

import "time"

const defaultReadBufferSize = 4096

// Config defines transport timeouts for one connection. A zero read or write
// timeout disables the corresponding deadline.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ReadBufferSize int
}

// DefaultConfig returns client-side defaults. Reads block until a frame
// arrives; writes give up after 15s.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    0,
		WriteTimeout:   15 * time.Second,
		ReadBufferSize: defaultReadBufferSize,
	}
}

// WithDefaults fills fields that have no meaningful zero value.
func (c Config) WithDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	if c.WriteTimeout < 0 {
		c.WriteTimeout = 0
	}
	return c
}
