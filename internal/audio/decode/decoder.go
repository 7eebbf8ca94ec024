// ABOUTME: Decoder interface definition
// ABOUTME: Common interface shared by every codec's decoder
package decode

import (
	"fmt"

	"github.com/snapcastgo/snapclient/internal/audio"
	"github.com/snapcastgo/snapclient/pkg/wire"
)

// Decoder converts compressed audio to interleaved int16 PCM samples,
// writing into a caller-owned, reused buffer. It returns the number of
// samples written (not bytes, not frames).
type Decoder interface {
	Decode(compressed []byte, out []int16) (int, error)
	Close() error
}

// New creates the Decoder matching header, dispatching on CodecName.
// Returns wire.ErrUnsupportedCodec for any codec this client does not
// implement.
func New(header wire.CodecHeader) (Decoder, error) {
	format, err := FormatOf(header)
	if err != nil {
		return nil, err
	}
	switch header.CodecName {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	case "flac":
		return NewFLAC(format)
	default:
		return nil, fmt.Errorf("%w: %s", wire.ErrUnsupportedCodec, header.CodecName)
	}
}

// FormatOf extracts the audio.Format a CodecHeader describes, so
// callers that need the sample rate/channel count ahead of decoder
// construction (a sink factory, for instance) don't duplicate the
// per-codec metadata plumbing.
func FormatOf(header wire.CodecHeader) (audio.Format, error) {
	switch header.CodecName {
	case "pcm":
		if header.PCM == nil {
			return audio.Format{}, fmt.Errorf("%w: pcm CodecHeader missing PCM metadata", wire.ErrMalformedPayload)
		}
		return audio.Format{
			Codec:      "pcm",
			SampleRate: int(header.PCM.SampleRate),
			Channels:   int(header.PCM.Channels),
			BitDepth:   int(header.PCM.BitDepth),
		}, nil
	case "opus":
		if header.Opus == nil {
			return audio.Format{}, fmt.Errorf("%w: opus CodecHeader missing Opus metadata", wire.ErrMalformedPayload)
		}
		return audio.Format{
			Codec:      "opus",
			SampleRate: int(header.Opus.SampleRate),
			Channels:   int(header.Opus.Channels),
			BitDepth:   int(header.Opus.BitDepth),
		}, nil
	case "flac":
		if header.FLAC == nil {
			return audio.Format{}, fmt.Errorf("%w: flac CodecHeader missing FLAC metadata", wire.ErrMalformedPayload)
		}
		return audio.Format{
			Codec:      "flac",
			SampleRate: int(header.FLAC.SampleRate),
			Channels:   int(header.FLAC.Channels),
			BitDepth:   int(header.FLAC.BitDepth),
		}, nil
	default:
		return audio.Format{}, fmt.Errorf("%w: %s", wire.ErrUnsupportedCodec, header.CodecName)
	}
}
