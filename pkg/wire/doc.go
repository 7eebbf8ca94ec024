// ABOUTME: Snapcast wire protocol package
// ABOUTME: Defines TimeVal, the frame envelope, and typed payload codecs
// Package wire implements the binary, little-endian framing used by the
// Snapcast-compatible streaming protocol.
//
// It is pure: parsing and encoding never touch the network. Callers own
// I/O and hand this package byte slices.
//
// Example:
//
//	base, err := wire.ParseBase(header[:26])
//	msg, err := wire.ParsePayload(base.Type, payload)
package wire
