// ABOUTME: Top-level player orchestration
// ABOUTME: Wires session, scheduler, sink and the optional TUI together
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/snapcastgo/snapclient/internal/player"
	"github.com/snapcastgo/snapclient/internal/session"
	"github.com/snapcastgo/snapclient/internal/sync"
	"github.com/snapcastgo/snapclient/internal/ui"
	"github.com/snapcastgo/snapclient/internal/version"
	"github.com/snapcastgo/snapclient/pkg/wire"

	tea "github.com/charmbracelet/bubbletea"
)

// SinkKind selects which player.Sink backend a Player opens once it
// learns the stream format from the server's CodecHeader.
type SinkKind int

const (
	// SinkOto plays through the local audio device via oto.
	SinkOto SinkKind = iota
	// SinkFile writes decoded PCM to a file, for headless testing.
	SinkFile
)

// Config holds everything a Player needs to connect and play.
type Config struct {
	ServerAddr string
	ClientName string
	Sink       SinkKind
	OutputPath string
	UseTUI     bool
	Reconnect  bool
	MaxRetries int
}

// Player owns one session's worth of connection state: the session
// itself, its scheduler, offset filter, and (optionally) a TUI.
type Player struct {
	config Config

	filter    *sync.Filter
	scheduler *player.Scheduler
	sess      *session.Session

	tuiProg    *tea.Program
	volumeCtrl *ui.VolumeControl

	ctx    context.Context
	cancel context.CancelFunc

	volume int
	muted  bool
}

// New creates a Player. It does not connect; call Start for that.
func New(config Config) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		volume: 100,
	}
}

// Start connects to the server and blocks until the context is
// cancelled, the connection is lost (and Reconnect is false or
// retries are exhausted), or the TUI sends a quit request.
func (p *Player) Start() error {
	if p.config.UseTUI {
		p.volumeCtrl = ui.NewVolumeControl()
		tuiProg, err := ui.Run(p.volumeCtrl)
		if err != nil {
			return fmt.Errorf("app: starting TUI: %w", err)
		}
		p.tuiProg = tuiProg
		go p.handleVolumeControl()
	}

	attempt := 0
	for {
		err := p.runOnce()
		if err == nil {
			return nil
		}
		if p.ctx.Err() != nil {
			return nil
		}

		log.Printf("app: session ended: %v", err)

		if !p.config.Reconnect {
			return err
		}
		attempt++
		if p.config.MaxRetries > 0 && attempt > p.config.MaxRetries {
			return fmt.Errorf("app: giving up after %d attempts: %w", attempt, err)
		}

		backoff := 10 * time.Second
		if attempt <= 4 {
			backoff = time.Duration(1<<(attempt-1)) * time.Second
		}
		log.Printf("app: reconnecting in %v (attempt %d)", backoff, attempt)
		select {
		case <-time.After(backoff):
		case <-p.ctx.Done():
			return nil
		}
	}
}

// runOnce performs one connect-and-serve cycle. It returns nil only
// when the context was cancelled deliberately (Stop or TUI quit); any
// other return is an error worth possibly retrying.
func (p *Player) runOnce() error {
	timeBase := time.Now()

	p.filter = sync.NewFilter(sync.DefaultWindow)
	p.scheduler = player.NewScheduler(timeBase)
	go p.scheduler.Run()
	defer p.scheduler.Stop()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	identity := wire.Hello{
		HostName:                  hostname,
		Version:                   version.Version,
		ClientName:                p.config.ClientName,
		OS:                        runtime.GOOS,
		Arch:                      runtime.GOARCH,
		ID:                        uuid.New().String(),
		SnapStreamProtocolVersion: 2,
	}

	sess, err := session.Connect(p.config.ServerAddr, identity, p.scheduler, p.filter, p.sinkFactory, timeBase)
	if err != nil {
		return fmt.Errorf("app: connecting to %s: %w", p.config.ServerAddr, err)
	}
	p.sess = sess
	defer sess.Close()

	connected := true
	p.updateTUI(ui.StatusMsg{Connected: &connected, ServerAddr: p.config.ServerAddr})

	go p.statsLoop()

	for {
		select {
		case <-p.ctx.Done():
			return nil
		default:
		}

		ev, err := sess.Tick()
		if err != nil {
			disconnected := false
			p.updateTUI(ui.StatusMsg{Connected: &disconnected})
			return err
		}

		switch ev.Kind {
		case session.EventSettingsUpdated:
			p.volume = int(ev.Settings.Volume)
			p.muted = ev.Settings.Muted
			p.updateTUI(ui.StatusMsg{Volume: p.volume, Muted: p.muted})
		case session.EventCodecReady:
			p.updateTUI(ui.StatusMsg{
				Codec:      ev.Codec.CodecName,
				SampleRate: formatSampleRate(ev.Codec),
			})
		}
	}
}

// formatSampleRate is a small helper so the switch above stays
// readable; CodecHeader stores the sample rate in a different field
// per codec, already unified by decode.FormatOf elsewhere.
func formatSampleRate(header wire.CodecHeader) int {
	switch header.CodecName {
	case "pcm":
		if header.PCM != nil {
			return int(header.PCM.SampleRate)
		}
	case "opus":
		if header.Opus != nil {
			return int(header.Opus.SampleRate)
		}
	case "flac":
		if header.FLAC != nil {
			return int(header.FLAC.SampleRate)
		}
	}
	return 0
}

// sinkFactory builds the configured Sink backend once the stream
// format is known.
func (p *Player) sinkFactory(sampleRate, channels int) (player.Sink, error) {
	switch p.config.Sink {
	case SinkFile:
		return player.NewFileSinkPath(sampleRate, channels, p.config.OutputPath)
	default:
		return player.NewOtoSink(sampleRate, channels), nil
	}
}

// handleVolumeControl records TUI-driven volume/mute changes on the
// Player and logs them, and forwards a quit request into Stop. It does
// not change the active sink's volume.
func (p *Player) handleVolumeControl() {
	for {
		select {
		case change := <-p.volumeCtrl.Changes:
			p.volume = change.Volume
			p.muted = change.Muted
			if p.sess != nil {
				log.Printf("app: local volume change %d%% muted=%v (server remains source of truth)", change.Volume, change.Muted)
			}
		case <-p.volumeCtrl.Quit:
			p.Stop()
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// statsLoop periodically pushes scheduler and sync stats to the TUI.
func (p *Player) statsLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := p.scheduler.Stats()
			offset, _ := p.filter.Current()
			p.updateTUI(ui.StatusMsg{
				Synchronized: p.filter.Synchronized(),
				OffsetMs:     offset.Duration().Milliseconds(),
				Received:     stats.Received,
				Played:       stats.Played,
				Dropped:      stats.Dropped,
			})
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Player) updateTUI(msg ui.StatusMsg) {
	if p.tuiProg != nil {
		p.tuiProg.Send(msg)
	}
}

// Stop cancels the player's context, unblocking Start.
func (p *Player) Stop() {
	p.cancel()
	if p.sess != nil {
		p.sess.Close()
	}
}
