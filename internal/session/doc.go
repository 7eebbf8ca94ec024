// ABOUTME: TCP session: connects, sends Hello, dispatches inbound frames
// ABOUTME: Owns the clock-offset filter and feeds the playback scheduler
// Package session implements the client side of the wire protocol: a
// single TCP connection that sends Hello once, then interleaves
// periodic time probes with reading inbound frames. It never decodes
// or plays audio itself; CodecHeader and WireChunk frames are handed
// to an internal/player.Scheduler.
package session
