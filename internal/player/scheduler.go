// ABOUTME: Deadline-based playback scheduler
// ABOUTME: Waits until each chunk's audible_at deadline, decodes, writes to the sink
package player

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/snapcastgo/snapclient/internal/audio"
	"github.com/snapcastgo/snapclient/internal/audio/decode"
	"github.com/snapcastgo/snapclient/pkg/wire"
)

// queueDepth bounds the number of undelivered chunks held in memory.
// TCP preserves ordering within a connection, so a plain channel is
// enough; nothing needs reordering the way the teacher's heap did.
// Sized for server_buffer/chunk_duration plus slack: a 500ms buffer at
// 10-30ms chunks needs 17-50 slots.
const queueDepth = 64

// lateThreshold is how far past its deadline a chunk may be before the
// scheduler gives up waiting and drops it instead of writing stale
// audio to the sink.
const lateThreshold = 50 * time.Millisecond

// DeadlineChunk is handed from the session's reader to the scheduler:
// a compressed frame plus the local-time-base instant it must reach
// the sink by. The session has already subtracted server_offset, added
// server_buffer, and applied local_latency; the scheduler only waits
// and delivers.
type DeadlineChunk struct {
	AudibleAt  wire.TimeVal
	Compressed []byte
}

// SchedulerStats tracks scheduler throughput for diagnostics.
type SchedulerStats struct {
	Received int64
	Played   int64
	Dropped  int64
}

// Scheduler consumes DeadlineChunks in arrival order, busy-waits until
// each one's deadline has nearly arrived, decodes it, and writes it to
// a Sink.
type Scheduler struct {
	start time.Time

	input  chan DeadlineChunk
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	decoder decode.Decoder
	sink    Sink
	stats   SchedulerStats

	scratch []int16
}

// NewScheduler creates a Scheduler. start is the session's time_base:
// the local instant against which every DeadlineChunk's AudibleAt is
// measured (typically time.Now() at session establishment).
func NewScheduler(start time.Time) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		start:   start,
		input:   make(chan DeadlineChunk, queueDepth),
		ctx:     ctx,
		cancel:  cancel,
		scratch: make([]int16, audio.MaxFrameSamples),
	}
}

// Initialize installs the decoder and sink the scheduler will use for
// subsequently scheduled chunks, and starts the sink running. Per the
// explicit initialization handshake, the reader sends this once, ahead
// of the first chunk; a second CodecHeader mid-session replaces the
// decoder the same way.
func (s *Scheduler) Initialize(dec decode.Decoder, sink Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.decoder != nil {
		s.decoder.Close()
	}
	s.decoder = dec
	s.sink = sink
	return sink.Play()
}

// Schedule enqueues a chunk for playback. It blocks if the internal
// queue is full, which applies backpressure to the session reader
// rather than dropping silently.
func (s *Scheduler) Schedule(chunk DeadlineChunk) {
	s.mu.Lock()
	s.stats.Received++
	s.mu.Unlock()

	select {
	case s.input <- chunk:
	case <-s.ctx.Done():
	}
}

// Run drains the input channel until Stop is called or the input
// channel is closed.
func (s *Scheduler) Run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case chunk, ok := <-s.input:
			if !ok {
				return
			}
			s.deliver(chunk)
		}
	}
}

func (s *Scheduler) drop() {
	s.mu.Lock()
	s.stats.Dropped++
	s.mu.Unlock()
}

// deliver waits for the chunk's deadline, decodes it, and writes it.
func (s *Scheduler) deliver(chunk DeadlineChunk) {
	s.mu.Lock()
	dec, sink := s.decoder, s.sink
	s.mu.Unlock()

	if dec == nil || sink == nil {
		log.Printf("scheduler: dropping chunk, decoder/sink not yet initialized")
		s.drop()
		return
	}

	if !s.waitUntil(chunk.AudibleAt, sink) {
		s.drop()
		return
	}

	n, err := dec.Decode(chunk.Compressed, s.scratch)
	if err != nil {
		log.Printf("scheduler: decode error, dropping chunk: %v", err)
		s.drop()
		return
	}

	if err := sink.Write(s.scratch[:n]); err != nil {
		log.Printf("scheduler: sink write failed: %v", err)
		s.drop()
		return
	}

	s.mu.Lock()
	s.stats.Played++
	s.mu.Unlock()
}

// waitUntil busy-waits, sleeping 1ms between checks, until the
// deadline is within the sink's own output latency of arriving (the
// sink is already buffering that much audio, so submitting earlier
// than that just adds queueing delay). It returns false if the
// deadline is already more than lateThreshold in the past, matching
// §4.5's "remaining.sec < 0 -> drop" with slack for scheduling jitter
// between session dispatch and worker pickup.
func (s *Scheduler) waitUntil(audibleAt wire.TimeVal, sink Sink) bool {
	for {
		now := wire.FromDuration(time.Since(s.start))
		remaining := audibleAt.Sub(now)

		if remaining.Negative() && remaining.Abs().Duration() > lateThreshold {
			log.Printf("scheduler: dropping late chunk, %v behind deadline", remaining.Abs().Duration())
			return false
		}

		latencyMs := sink.LatencyMs()
		if latencyMs == 0 {
			latencyMs = 1
		}

		if remaining.Duration() <= time.Duration(latencyMs)*time.Millisecond {
			return true
		}

		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(time.Millisecond):
		}
	}
}

// Stats returns a snapshot of scheduler counters.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Stop halts Run and releases the decoder.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decoder != nil {
		s.decoder.Close()
		s.decoder = nil
	}
}
