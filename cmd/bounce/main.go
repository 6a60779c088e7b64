// Bounce: CLI entry point.
//
// A producer renders a bouncing ball and streams it over WebRTC; a consumer
// locates the ball in every frame and sends the position back over a data
// channel so the producer can measure the tracking error. The two peers find
// each other through a TCP or WebSocket signaling channel.
//
// It can be launched interactively (no -role) or non-interactively via CLI
// flags (-role, -config, -signal, -host, -port, -frames, -snapshots).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/bouncetrack/internal/config"
	"github.com/1ureka/bouncetrack/internal/session"
	"github.com/1ureka/bouncetrack/internal/signaling"
	"github.com/1ureka/bouncetrack/internal/transport"
	"github.com/1ureka/bouncetrack/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	role := flag.String("role", "", "Role: producer or consumer")
	configPath := flag.String("config", "", "YAML configuration file")
	signalKind := flag.String("signal", "", "Signaling transport: tcp or ws")
	host := flag.String("host", "", "Signaling host")
	port := flag.Int("port", 0, "Signaling port, 1~65535")
	frames := flag.Int("frames", 0, "Consumer: hang up after this many frames (0 = never)")
	snapshots := flag.String("snapshots", "", "Consumer: directory for periodic frame snapshots")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	// Flags override the file and the environment, but only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "role":
			cfg.Role = config.Role(*role)
		case "signal":
			cfg.Signaling.Kind = *signalKind
		case "host":
			cfg.Signaling.Host = *host
		case "port":
			cfg.Signaling.Port = *port
		case "frames":
			cfg.Media.MaxFrames = *frames
		case "snapshots":
			cfg.Media.SnapshotDir = *snapshots
		case "debug":
			cfg.Debug = *debugMode
		}
	})
	if err := cfg.Validate(); err != nil {
		util.LogError("invalid configuration: %v", err)
		os.Exit(1)
	}

	if cfg.Debug {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Bounce v%s", version))
	pterm.Println()

	if cfg.Role == "" {
		cfg.Role = askRole()
	}

	switch cfg.Role {
	case config.RoleProducer:
		err = runProducer(ctx, cfg)
	case config.RoleConsumer:
		err = runConsumer(ctx, cfg)
	}
	if err != nil {
		util.LogError("session failed: %v", err)
		os.Exit(1)
	}

	util.LogInfo("session closed")
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// runProducer waits for a consumer on the signaling address and streams to it.
func runProducer(ctx context.Context, cfg *config.Config) error {
	var ch signaling.Channel
	switch cfg.Signaling.Kind {
	case config.SignalWS:
		srv, err := signaling.NewWSServer(cfg.Address(), cfg.Signaling.Path)
		if err != nil {
			return err
		}
		util.LogInfo("waiting for a consumer on ws://%s%s", srv.Addr(), cfg.Signaling.Path)
		ch = srv
	default:
		ln, err := signaling.NewTCPListener(cfg.Address())
		if err != nil {
			return err
		}
		util.LogInfo("waiting for a consumer on tcp://%s", ln.Addr())
		ch = ln
	}

	tr, err := transport.New(ctx, transportOptions(cfg))
	if err != nil {
		_ = ch.Close()
		return err
	}

	return session.RunProducer(ctx, tr, ch, sessionOptions(cfg))
}

// runConsumer dials the producer's signaling address and tracks its stream.
func runConsumer(ctx context.Context, cfg *config.Config) error {
	var ch signaling.Channel
	switch cfg.Signaling.Kind {
	case config.SignalWS:
		util.LogInfo("connecting to %s", cfg.WSURL())
		ch = signaling.NewWSDialer(cfg.WSURL())
	default:
		util.LogInfo("connecting to tcp://%s", cfg.Address())
		ch = signaling.NewTCPDialer(cfg.Address())
	}

	tr, err := transport.New(ctx, transportOptions(cfg))
	if err != nil {
		_ = ch.Close()
		return err
	}

	return session.RunConsumer(ctx, tr, ch, sessionOptions(cfg))
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

func sessionOptions(cfg *config.Config) session.Options {
	return session.Options{
		Scene:          cfg.Ball(),
		FPS:            cfg.Media.FPS,
		Cycles:         cfg.Media.Cycles,
		MaxFrames:      cfg.Media.MaxFrames,
		QueueSize:      cfg.Media.QueueSize,
		FeedbackBuffer: cfg.Media.FeedbackBuffer,
		SnapshotDir:    cfg.Media.SnapshotDir,
		SnapshotEvery:  cfg.Media.SnapshotEvery,
		StatsInterval:  cfg.StatsInterval,
	}
}

func transportOptions(cfg *config.Config) transport.Options {
	return transport.Options{
		STUNServers:     cfg.WebRTC.STUNServers,
		IncludeLoopback: cfg.WebRTC.IncludeLoopback,
	}
}

// askRole prompts for a role when none was configured.
func askRole() config.Role {
	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Producer  - Stream the bouncing ball", "Consumer  - Track the ball and report back"}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	if strings.HasPrefix(choice, "Consumer") {
		return config.RoleConsumer
	}
	return config.RoleProducer
}
