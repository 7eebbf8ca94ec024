// ABOUTME: FLAC audio decoder
// ABOUTME: Wraps mewkiz/flac by synthesizing a minimal STREAMINFO container per chunk
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/snapcastgo/snapclient/internal/audio"
)

// FLACDecoder decodes one FLAC frame per WireChunk. Each WireChunk's
// compressed payload is a single, self-contained FLAC frame (no stream
// marker or metadata blocks), so Decode wraps it in a minimal synthetic
// container — the "fLaC" marker plus one STREAMINFO block built from the
// format negotiated at CodecHeader time — and hands that to
// mewkiz/flac, the same decoder the teacher's file-backed FLACSource
// uses for on-disk streams.
type FLACDecoder struct {
	container []byte // "fLaC" + STREAMINFO block, constant for the session
	channels  int
	bitDepth  int
}

// NewFLAC creates a FLAC decoder for format.
func NewFLAC(format audio.Format) (Decoder, error) {
	if format.Codec != "flac" {
		return nil, fmt.Errorf("invalid codec for FLAC decoder: %s", format.Codec)
	}
	if format.Channels < 1 || format.BitDepth < 1 {
		return nil, fmt.Errorf("invalid FLAC format: %+v", format)
	}

	return &FLACDecoder{
		container: buildStreamInfoContainer(format.SampleRate, format.Channels, format.BitDepth),
		channels:  format.Channels,
		bitDepth:  format.BitDepth,
	}, nil
}

// Decode parses one FLAC frame, writing interleaved int16 samples into
// out.
func (d *FLACDecoder) Decode(compressed []byte, out []int16) (int, error) {
	buf := make([]byte, 0, len(d.container)+len(compressed))
	buf = append(buf, d.container...)
	buf = append(buf, compressed...)

	stream, err := flac.New(bytes.NewReader(buf))
	if err != nil {
		return 0, fmt.Errorf("flac: open stream: %w", err)
	}

	frame, err := stream.ParseNext()
	if err != nil {
		return 0, fmt.Errorf("flac: parse frame: %w", err)
	}

	shift := uint(0)
	if d.bitDepth < 16 {
		shift = 16 - uint(d.bitDepth)
	}

	written := 0
	blockSize := int(frame.BlockSize)
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < d.channels; ch++ {
			if written >= len(out) {
				return written, nil
			}
			sample := frame.Subframes[ch].Samples[i] << shift
			out[written] = int16(sample)
			written++
		}
	}

	return written, nil
}

// Close releases decoder resources. mewkiz/flac's Stream has no
// persistent handle to close here since each chunk opens its own
// in-memory reader.
func (d *FLACDecoder) Close() error { return nil }

// buildStreamInfoContainer builds the smallest valid FLAC container
// (stream marker + one STREAMINFO metadata block, flagged as last) for
// the given format. Block size bounds are left maximally permissive
// (0, 65535) since each frame's own header declares its actual size.
func buildStreamInfoContainer(sampleRate, channels, bitDepth int) []byte {
	buf := make([]byte, 4+4+34)
	copy(buf[0:4], "fLaC")

	// Metadata block header: is-last=1, type=0 (STREAMINFO), length=34.
	buf[4] = 0x80
	buf[5], buf[6], buf[7] = 0, 0, 34

	body := buf[8:]
	binary.BigEndian.PutUint16(body[0:2], 0)     // min block size: unknown
	binary.BigEndian.PutUint16(body[2:4], 65535) // max block size: unknown
	// min/max frame size (24 bits each) left at 0: unknown.

	var bits uint64
	bits |= uint64(sampleRate) << 44
	bits |= uint64(channels-1) << 41
	bits |= uint64(bitDepth-1) << 36
	// total samples in stream (36 bits) left at 0: unknown/streaming.
	binary.BigEndian.PutUint64(body[10:18], bits)
	// body[18:34] is the 16-byte MD5 signature, left zeroed: unknown.

	return buf
}
