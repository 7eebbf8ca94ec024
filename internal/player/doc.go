// ABOUTME: Playback scheduler and sink package
// ABOUTME: Deadline queue: decode, wait-until-deadline, write to sink
// Package player implements the decode-then-delay pipeline from
// spec.md §4.5: a single worker drains a bounded channel of
// DeadlineChunk values, waits until each one's audible_at deadline,
// decodes it into a reused sample buffer, and writes it to a Sink.
package player
