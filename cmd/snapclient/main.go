// ABOUTME: Entry point for the Snapcast-compatible audio client
// ABOUTME: Parses CLI flags and runs the player until interrupted or EOF
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/snapcastgo/snapclient/internal/app"
	"github.com/snapcastgo/snapclient/internal/version"
)

var (
	serverAddr = flag.String("server", "localhost:1704", "Snapcast server address (host:port)")
	name       = flag.String("name", "", "Client name advertised to the server (default: hostname)")
	sinkFlag   = flag.String("sink", "", "Output backend (required): \"oto\" (audio device) or \"file\" (write decoded PCM to -output)")
	output     = flag.String("output", "", "Output file path, used only with -sink=file")
	tui        = flag.Bool("tui", false, "Show a status TUI; log lines are still written to stderr")
	reconnect  = flag.Bool("reconnect", false, "Reconnect with backoff if the connection drops")
	maxRetries = flag.Int("max-retries", 0, "Max reconnect attempts, 0 means unlimited (only with -reconnect)")
	debug      = flag.Bool("debug", false, "Keep the date/time prefix on log lines (enables no extra log output)")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	if !*debug {
		log.SetFlags(0)
	}

	clientName := *name
	if clientName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "snapclient"
		}
		clientName = hostname
	}

	sinkKind, err := parseSinkKind(*sinkFlag)
	if err != nil {
		log.Fatalf("snapclient: %v", err)
	}
	if sinkKind == app.SinkFile && *output == "" {
		log.Fatalf("snapclient: -sink=file requires -output")
	}

	config := app.Config{
		ServerAddr: *serverAddr,
		ClientName: clientName,
		Sink:       sinkKind,
		OutputPath: *output,
		UseTUI:     *tui,
		Reconnect:  *reconnect,
		MaxRetries: *maxRetries,
	}

	p := app.New(config)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("snapclient: received %v, shutting down", sig)
		p.Stop()
	}()

	log.Printf("snapclient: connecting to %s as %q", *serverAddr, clientName)
	if err := p.Start(); err != nil {
		log.Fatalf("snapclient: %v", err)
	}
}

func parseSinkKind(s string) (app.SinkKind, error) {
	switch s {
	case "oto":
		return app.SinkOto, nil
	case "file":
		return app.SinkFile, nil
	case "":
		return 0, fmt.Errorf("-sink is required, want \"oto\" or \"file\"")
	default:
		return 0, fmt.Errorf("unknown -sink %q, want \"oto\" or \"file\"", s)
	}
}
