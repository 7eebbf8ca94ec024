// ABOUTME: Audio decoder implementations
// ABOUTME: PCM passthrough, Opus, and FLAC, all behind the Decoder interface
// Package decode implements the decoder side of the "compressed-audio
// decoders are external collaborators" boundary from spec.md §1: each
// decoder exposes only Decode(compressed, out) -> sampleCount.
package decode
