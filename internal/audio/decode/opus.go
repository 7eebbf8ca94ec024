// ABOUTME: Opus audio decoder
// ABOUTME: Wraps gopkg.in/hraban/opus.v2, always 16-bit output
package decode

import (
	"fmt"

	"github.com/snapcastgo/snapclient/internal/audio"
	"gopkg.in/hraban/opus.v2"
)

// OpusDecoder decodes Opus frames to int16 PCM.
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
}

// NewOpus creates an Opus decoder for format. Opus is always 16-bit
// output regardless of format.BitDepth.
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{decoder: dec, channels: format.Channels}, nil
}

// Decode decodes one Opus packet into out, returning the number of
// interleaved int16 samples written.
func (d *OpusDecoder) Decode(compressed []byte, out []int16) (int, error) {
	n, err := d.decoder.Decode(compressed, out)
	if err != nil {
		return 0, fmt.Errorf("opus decode failed: %w", err)
	}
	return n * d.channels, nil
}

// Close releases decoder resources. The hraban/opus decoder has no
// explicit teardown.
func (d *OpusDecoder) Close() error { return nil }
