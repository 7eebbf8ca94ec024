// ABOUTME: Wire protocol error kinds
// ABOUTME: Sentinel errors returned by frame and payload parsing
package wire

import "errors"

// Sentinel errors matching the error kinds in the protocol design: framing
// failures are fatal to a session, decode/payload failures on a single
// message are not.
var (
	// ErrMalformedFrame is returned when the fixed 26-byte header is
	// short or carries a type tag outside {0..=7}, or when a message type
	// has no payload parser or encoder.
	ErrMalformedFrame = errors.New("wire: malformed frame")

	// ErrMalformedPayload is returned for bad JSON, bad RIFF, or bad
	// STREAMINFO bitfields inside an otherwise well-framed message.
	ErrMalformedPayload = errors.New("wire: malformed payload")

	// ErrOversizedFrame is returned when a declared payload_size exceeds
	// the hard cap (1 MiB).
	ErrOversizedFrame = errors.New("wire: oversized frame")

	// ErrUnsupportedCodec is returned for a CodecHeader naming a codec
	// this client does not implement.
	ErrUnsupportedCodec = errors.New("wire: unsupported codec")
)
