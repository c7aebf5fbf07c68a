// Package session owns the typed connection over one duplex byte stream.
//
// Ownership boundary:
// - dial/accept wrapping of net.Conn
// - frame send with flush-before-return
// - frame receive with optional per-operation deadlines
//
// Retry and reconnect policy belong to callers.
package session
