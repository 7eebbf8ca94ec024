// ABOUTME: oto-backed Sink implementation using a streaming pipe
// ABOUTME: Volume and mute are applied in software before writing to the pipe
package player

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink drives real audio hardware through the oto library. A
// persistent player reads from an io.Pipe that Write feeds, so the
// underlying device stream never needs to be reopened between chunks.
type OtoSink struct {
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	volume     int
	muted      bool
	state      SinkState
	opened     time.Time
}

// NewOtoSink creates an OtoSink for the given format. The oto context
// is not opened until Play is called.
func NewOtoSink(sampleRate, channels int) *OtoSink {
	ctx, cancel := context.WithCancel(context.Background())
	return &OtoSink{
		ctx:        ctx,
		cancel:     cancel,
		sampleRate: sampleRate,
		channels:   channels,
		volume:     100,
		state:      SinkUninitialized,
	}
}

// Play opens the oto context and starts the persistent player on first
// call. Subsequent calls are no-ops.
func (o *OtoSink) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != SinkUninitialized {
		o.state = SinkRunning
		return nil
	}

	opts := &oto.NewContextOptions{
		SampleRate:   o.sampleRate,
		ChannelCount: o.channels,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(opts)
	if err != nil {
		return fmt.Errorf("oto sink: failed to create context: %w", err)
	}
	<-readyChan

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.otoCtx = otoCtx
	o.opened = time.Now()
	o.state = SinkRunning

	log.Printf("oto sink ready: %dHz %dch", o.sampleRate, o.channels)
	return nil
}

// Write applies software volume and writes interleaved 16-bit samples
// to the player's pipe. It blocks until the bytes are accepted.
func (o *OtoSink) Write(samples []int16) error {
	o.mu.Lock()
	if o.state == SinkUninitialized {
		o.mu.Unlock()
		return errSinkNotReady
	}
	volume, muted, writer := o.volume, o.muted, o.pipeWriter
	o.mu.Unlock()

	scaled := applyVolume(samples, volume, muted)

	out := make([]byte, len(scaled)*2)
	for i, s := range scaled {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}

	if _, err := writer.Write(out); err != nil {
		return fmt.Errorf("oto sink: pipe write failed: %w", err)
	}
	return nil
}

// LatencyMs reports oto's internal buffered-frames estimate converted
// to milliseconds. Before the player exists this is 0, which callers
// are expected to clamp upward.
func (o *OtoSink) LatencyMs() uint16 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return 0
	}
	bufferedBytes := o.player.BufferedSize()
	bytesPerSample := 2 * o.channels
	if bytesPerSample == 0 || o.sampleRate == 0 {
		return 0
	}
	frames := bufferedBytes / bytesPerSample
	ms := frames * 1000 / o.sampleRate
	if ms > int(^uint16(0)) {
		return ^uint16(0)
	}
	return uint16(ms)
}

// SetVolume sets software volume, 0-100.
func (o *OtoSink) SetVolume(volume int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume = volume
}

// SetMuted mutes or unmutes output without changing the stored volume.
func (o *OtoSink) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
}

func (o *OtoSink) SampleRate() int { return o.sampleRate }

// Close tears down the pipe, player, and oto context.
func (o *OtoSink) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	o.state = SinkUninitialized
	o.cancel()
	return nil
}

// applyVolume scales samples by volume/100, or to silence when muted.
func applyVolume(samples []int16, volume int, muted bool) []int16 {
	multiplier := 0.0
	if !muted {
		multiplier = float64(volume) / 100.0
	}
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = int16(float64(s) * multiplier)
	}
	return out
}
