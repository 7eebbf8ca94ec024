// ABOUTME: Audio format and sample helpers
// ABOUTME: Shared between decoders and the playback sink
// Package audio defines the stream Format negotiated from a CodecHeader
// and MaxFrameSamples, the size of the reusable int16 sample buffer that
// decoders write into.
package audio
