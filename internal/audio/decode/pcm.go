// ABOUTME: PCM passthrough decoder
// ABOUTME: Reinterprets little-endian bytes as int16, no entropy coding involved
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/snapcastgo/snapclient/internal/audio"
)

// PCMDecoder is a passthrough decoder: the wire already carries raw
// little-endian int16 PCM, so Decode only needs to reinterpret bytes.
type PCMDecoder struct{}

// NewPCM creates a PCM decoder. format.BitDepth must be 16: this client
// plays 16-bit output regardless of the source's bit depth (resampling
// and bit-depth conversion are out of scope per spec.md §1).
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported PCM bit depth: %d (supported: 16)", format.BitDepth)
	}
	return &PCMDecoder{}, nil
}

// Decode reinterprets compressed (really: uncompressed) bytes as
// interleaved little-endian int16 samples into out.
func (d *PCMDecoder) Decode(compressed []byte, out []int16) (int, error) {
	n := len(compressed) / 2
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(compressed[i*2:]))
	}
	return n, nil
}

// Close is a no-op: the passthrough decoder holds no resources.
func (d *PCMDecoder) Close() error { return nil }
