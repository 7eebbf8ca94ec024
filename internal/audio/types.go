// ABOUTME: Audio format and sample buffer sizing
// ABOUTME: Shared between decoders and the playback sink
package audio

// Format describes a stream's codec and PCM parameters, derived from a
// CodecHeader.
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// MaxFrameSamples is the worst-case number of interleaved int16 samples
// any supported codec can produce from a single compressed chunk: 4,700
// mono-equivalent samples per channel comfortably covers a FLAC frame,
// Opus's 960-sample (20ms @ 48kHz) frame, and PCM's 2,880-sample (30ms @
// 96kHz) frame. The scheduler allocates a single buffer of this size
// (all channels interleaved) and reuses it across every chunk instead of
// allocating per chunk.
const MaxFrameSamples = 4700 * 2
