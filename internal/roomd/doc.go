// Package roomd owns the server side of the room protocol.
//
// Ownership boundary:
// - accept loop and per-connection goroutines
// - per-session join state machine
// - identity policy for registry membership
//
// The identity registry is injected by the caller and shared by every
// session of one Service.
package roomd
