// Package protocol owns the agent wire contract and its parsing primitives.
//
// Ownership boundary:
// - byte-order primitives (wire)
// - type registry and tlv record codec (tlv)
// - packet header and packet codec (packet)
// - shared decode errors and allocation limits (this package)
//
// Everything under protocol is pure: no I/O, no goroutines, no global mutable
// state. Stream handling lives in internal/transport.
package protocol
