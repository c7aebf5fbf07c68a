// Package protocol owns the roomwire wire contract.
//
// Ownership boundary:
// - Request/Response frame types (closed sets, sealed interfaces)
// - tag byte + per-field length prefixed encoding
// - decode error taxonomy
//
// Frames carry no overall length prefix. Each decode call consumes exactly
// the bytes of one frame, which is what keeps both peers aligned on a
// persistent stream.
package protocol
