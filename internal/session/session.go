// ABOUTME: Session.Connect/Tick implementing the client half of the wire protocol
// ABOUTME: Adapted from pkg/protocol/client.go's channel-per-message-type shape
package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/snapcastgo/snapclient/internal/audio/decode"
	"github.com/snapcastgo/snapclient/internal/player"
	"github.com/snapcastgo/snapclient/pkg/wire"
)

// hotProbeInterval is the time-probe cadence while the offset filter's
// ring is not yet full: every tick whose elapsed-since-last-probe
// exceeds this counts as due.
const hotProbeInterval = time.Millisecond

// steadyProbeInterval is the cadence once the ring has filled once.
const steadyProbeInterval = time.Second

// readTimeout bounds each read attempt so tick() can interleave probe
// sends with reads instead of blocking indefinitely on one or the
// other.
const readTimeout = time.Second

// EventKind tags the result of a single Tick call.
type EventKind int

const (
	EventNothing EventKind = iota
	EventChunkScheduled
	EventSettingsUpdated
	EventCodecReady
)

// Event is returned from Tick so a caller can log or react to session
// progress; the session has already done whatever work the event
// implies (updating settings, handing a chunk to the scheduler) by the
// time it's returned. EventChunkScheduled is returned for every
// WireChunk frame, including a chunk dropped because its audible_at was
// already in the past; such a chunk never reaches the scheduler.
type Event struct {
	Kind     EventKind
	Settings wire.ServerSettings
	Codec    wire.CodecHeader
}

// OffsetFilter is the subset of internal/sync.Filter the session needs.
// Declared as an interface here so session tests can substitute a
// trivial stand-in without importing internal/sync.
type OffsetFilter interface {
	Push(sample wire.TimeVal)
	Current() (wire.TimeVal, bool)
	Synchronized() bool
}

// SinkFactory builds a player.Sink for a format a CodecHeader
// describes. Sample rate and channel count are only known once the
// first CodecHeader arrives, so the sink can't be constructed any
// earlier.
type SinkFactory func(sampleRate, channels int) (player.Sink, error)

// Session owns one TCP connection plus all per-connection state named
// in spec §3 ("Session state"): buffering parameters, the offset
// filter, and the pkt_id counter.
type Session struct {
	conn net.Conn

	mu sync.Mutex // serializes frame writes (probe sends vs Hello)

	identity  wire.Hello
	pktID     uint16
	timeBase  time.Time
	scheduler *player.Scheduler
	offset    OffsetFilter
	sinkFor   SinkFactory

	lastProbeSent   time.Time
	lastProbeSentTV wire.TimeVal

	serverBuffer wire.TimeVal
	localLatency wire.TimeVal
	volume       uint8
	muted        bool
}

// Connect opens a TCP connection to addr with TCP_NODELAY, sends Hello
// immediately, and returns a ready Session. timeBase is the local
// instant all subsequent TimeVal arithmetic (probe timestamps, chunk
// deadlines) is measured relative to.
func Connect(addr string, identity wire.Hello, scheduler *player.Scheduler, offset OffsetFilter, sinkFor SinkFactory, timeBase time.Time) (*Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("session: dial %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}

	s := &Session{
		conn:      conn,
		identity:  identity,
		timeBase:  timeBase,
		scheduler: scheduler,
		offset:    offset,
		sinkFor:   sinkFor,
	}

	if err := s.sendHello(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Session) now() wire.TimeVal {
	return wire.FromDuration(time.Since(s.timeBase))
}

func (s *Session) nextPktID() uint16 {
	id := s.pktID
	s.pktID++
	return id
}

func (s *Session) sendHello() error {
	nowTV := s.now()
	return s.writeFrame(wire.TypeHello, s.identity, nowTV, nowTV)
}

func (s *Session) writeFrame(kind wire.MessageType, msg wire.TypedMessage, sent, received wire.TimeVal) error {
	payload, err := wire.Encode(msg)
	if err != nil {
		return fmt.Errorf("session: encode %T: %w", msg, err)
	}

	base := wire.Base{
		Type:        kind,
		ID:          s.nextPktID(),
		Sent:        sent,
		Received:    received,
		PayloadSize: uint32(len(payload)),
	}
	header := wire.EncodeBase(base, uint32(len(payload)))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.Write(header); err != nil {
		return fmt.Errorf("session: write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := s.conn.Write(payload); err != nil {
			return fmt.Errorf("session: write payload: %w", err)
		}
	}
	return nil
}

// probeDue reports whether enough time has passed since the last
// probe to send another, per §4.3's hot/steady cadence.
func (s *Session) probeDue() bool {
	interval := steadyProbeInterval
	if !s.offset.Synchronized() {
		interval = hotProbeInterval
	}
	return time.Since(s.lastProbeSent) > interval
}

func (s *Session) sendProbe() error {
	nowTV := s.now()
	if err := s.writeFrame(wire.TypeTime, wire.Time{Latency: nowTV}, nowTV, nowTV); err != nil {
		return err
	}
	s.lastProbeSent = time.Now()
	s.lastProbeSentTV = nowTV
	return nil
}

// Tick performs at most one of {send a time probe if due, read one
// inbound frame}, returning an Event describing what happened. A
// WouldBlock-style read timeout is not an error; it's reported as
// EventNothing.
func (s *Session) Tick() (Event, error) {
	if s.probeDue() {
		if err := s.sendProbe(); err != nil {
			return Event{}, err
		}
		return Event{}, nil
	}

	s.conn.SetReadDeadline(time.Now().Add(readTimeout))

	header := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(s.conn, header); err != nil {
		if isTimeout(err) {
			return Event{}, nil
		}
		return Event{}, fmt.Errorf("session: read header: %w", err)
	}

	base, err := wire.ParseBase(header)
	if err != nil {
		return Event{}, fmt.Errorf("session: %w", err)
	}

	payload := make([]byte, base.PayloadSize)
	if len(payload) > 0 {
		if _, err := io.ReadFull(s.conn, payload); err != nil {
			return Event{}, fmt.Errorf("session: read payload: %w", err)
		}
	}

	return s.dispatch(base, payload)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (s *Session) dispatch(base wire.Base, payload []byte) (Event, error) {
	msg, err := wire.ParsePayload(base.Type, payload)
	if err != nil {
		return Event{}, fmt.Errorf("session: %w", err)
	}

	switch base.Type {
	case wire.TypeServerSettings:
		settings := msg.(wire.ServerSettings)
		s.serverBuffer = wire.FromMillis(int32(settings.BufferMs))
		s.localLatency = wire.FromMillis(settings.Latency)
		s.volume = settings.Volume
		s.muted = settings.Muted
		return Event{Kind: EventSettingsUpdated, Settings: settings}, nil

	case wire.TypeCodecHeader:
		header := msg.(wire.CodecHeader)
		if err := s.initializePlayback(header); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventCodecReady, Codec: header}, nil

	case wire.TypeTime:
		t := msg.(wire.Time)
		s.recordProbeResponse(base, t)
		return Event{}, nil

	case wire.TypeWireChunk:
		chunk := msg.(wire.WireChunk)
		s.scheduleChunk(chunk)
		return Event{Kind: EventChunkScheduled}, nil

	default:
		return Event{}, nil
	}
}

// initializePlayback builds a decoder and sink for a CodecHeader and
// hands them to the scheduler in one shot, per the explicit
// initialization handshake (Design Notes §9). A second CodecHeader
// mid-session replaces the decoder the same way.
func (s *Session) initializePlayback(header wire.CodecHeader) error {
	if !decodableCodec(header.CodecName) {
		return fmt.Errorf("%w: %s", wire.ErrUnsupportedCodec, header.CodecName)
	}

	format, err := decode.FormatOf(header)
	if err != nil {
		return err
	}

	dec, err := decode.New(header)
	if err != nil {
		return err
	}

	sink, err := s.sinkFor(format.SampleRate, format.Channels)
	if err != nil {
		dec.Close()
		return fmt.Errorf("session: building sink: %w", err)
	}

	return s.scheduler.Initialize(dec, sink)
}

func decodableCodec(name string) bool {
	switch name {
	case "pcm", "opus", "flac":
		return true
	default:
		return false
	}
}

// recordProbeResponse implements the §4.3 offset-sample formula:
// sample = ((base.received - last_sent_local) + (recv_local - base.sent)) / 2 + payload.latency.
// This combines the two RTT halves with the server's self-reported
// base offset into a single client-time correction.
func (s *Session) recordProbeResponse(base wire.Base, t wire.Time) {
	recvLocal := s.now()

	half1 := base.Received.Sub(s.lastProbeSentTV)
	half2 := recvLocal.Sub(base.Sent)
	sum := half1.Add(half2)
	halved := wire.FromDuration(sum.Duration() / 2)
	sample := halved.Add(t.Latency)

	s.offset.Push(sample)
}

// scheduleChunk computes audible_at and either drops the chunk (with a
// diagnostic) or hands it to the scheduler, per §4.3's WireChunk
// dispatch.
func (s *Session) scheduleChunk(chunk wire.WireChunk) {
	offset, _ := s.offset.Current()
	audibleAt := chunk.Timestamp.Sub(offset).Add(s.serverBuffer).Sub(s.localLatency)

	if audibleAt.Negative() {
		log.Printf("session: dropping chunk, audible_at %v already in the past", audibleAt)
		return
	}

	compressed := make([]byte, len(chunk.Compressed))
	copy(compressed, chunk.Compressed)

	s.scheduler.Schedule(player.DeadlineChunk{
		AudibleAt:  audibleAt,
		Compressed: compressed,
	})
}

// ServerOffset returns the current filtered clock-offset estimate.
func (s *Session) ServerOffset() (wire.TimeVal, bool) {
	return s.offset.Current()
}

// Volume returns the last volume the server reported, 0-100.
func (s *Session) Volume() uint8 { return s.volume }

// Muted returns the last mute state the server reported.
func (s *Session) Muted() bool { return s.muted }

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
