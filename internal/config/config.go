// Package config holds the session configuration: defaults, an optional
// YAML file, a .env file and BOUNCE_* environment variables, in increasing
// order of precedence. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1ureka/bouncetrack/internal/scene"
)

// Role represents the user's chosen role.
type Role string

const (
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
)

// Signaling transports.
const (
	SignalTCP = "tcp"
	SignalWS  = "ws"
)

// Config stores every tunable of one session.
type Config struct {
	Role          Role            `yaml:"role"`
	Signaling     SignalingConfig `yaml:"signaling"`
	Scene         SceneConfig     `yaml:"scene"`
	Media         MediaConfig     `yaml:"media"`
	WebRTC        WebRTCConfig    `yaml:"webrtc"`
	StatsInterval time.Duration   `yaml:"stats_interval"`
	Debug         bool            `yaml:"debug"`
}

// SignalingConfig selects how session descriptions are exchanged.
type SignalingConfig struct {
	Kind string `yaml:"kind"` // tcp or ws
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Path string `yaml:"path"` // ws only
}

// Point is an (x, y) pair.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// SceneConfig describes the producer's canvas and ball.
type SceneConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Radius   float64 `yaml:"radius"`
	Start    Point   `yaml:"start"`
	Velocity Point   `yaml:"velocity"`
}

// MediaConfig contains frame pacing and consumer pipeline settings.
type MediaConfig struct {
	FPS            int    `yaml:"fps"`
	Cycles         int    `yaml:"cycles"`          // frames per consumption round
	MaxFrames      int    `yaml:"max_frames"`      // consumer hangs up after this many; 0 = never
	QueueSize      int    `yaml:"queue_size"`      // analysis queue capacity
	FeedbackBuffer int    `yaml:"feedback_buffer"` // pending feedback messages
	SnapshotDir    string `yaml:"snapshot_dir"`
	SnapshotEvery  int    `yaml:"snapshot_every"`
}

// WebRTCConfig contains ICE settings.
type WebRTCConfig struct {
	STUNServers     []string `yaml:"stun_servers"`
	IncludeLoopback bool     `yaml:"include_loopback"`
}

// defaultSTUNServers are public servers for reflexive candidates. No TURN:
// relays are not supported.
var defaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// Default returns the stock configuration: a 400x300 canvas with a radius 20
// ball starting at the center, 30 fps, TCP signaling on localhost:9000.
func Default() *Config {
	ball := scene.DefaultConfig()
	return &Config{
		Signaling: SignalingConfig{
			Kind: SignalTCP,
			Host: "localhost",
			Port: 9000,
			Path: "/ws",
		},
		Scene: SceneConfig{
			Width:    ball.Width,
			Height:   ball.Height,
			Radius:   ball.Radius,
			Start:    Point{ball.Start.X, ball.Start.Y},
			Velocity: Point{ball.Velocity.X, ball.Velocity.Y},
		},
		Media: MediaConfig{
			FPS:            30,
			Cycles:         30,
			QueueSize:      64,
			FeedbackBuffer: 64,
			SnapshotEvery:  30,
		},
		WebRTC: WebRTCConfig{
			STUNServers:     append([]string(nil), defaultSTUNServers...),
			IncludeLoopback: true,
		},
		StatsInterval: 5 * time.Second,
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), ./.env and the process environment.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	env, err := readEnv(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations no session could run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Role {
	case "", RoleProducer, RoleConsumer:
	default:
		errs = append(errs, fmt.Errorf("unknown role %q", c.Role))
	}

	switch c.Signaling.Kind {
	case SignalTCP, SignalWS:
	default:
		errs = append(errs, fmt.Errorf("unknown signaling kind %q", c.Signaling.Kind))
	}
	if c.Signaling.Port < 0 || c.Signaling.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid signaling port %d", c.Signaling.Port))
	}

	if err := c.Ball().Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Media.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.Media.FPS))
	}
	if c.Media.Cycles <= 0 {
		errs = append(errs, fmt.Errorf("cycles must be positive, got %d", c.Media.Cycles))
	}
	if c.Media.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", c.Media.QueueSize))
	}
	if c.Media.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("max frames must not be negative, got %d", c.Media.MaxFrames))
	}

	return errors.Join(errs...)
}

// Ball returns the frame source configuration.
func (c *Config) Ball() scene.Config {
	b := scene.DefaultConfig()
	b.Width = c.Scene.Width
	b.Height = c.Scene.Height
	b.Radius = c.Scene.Radius
	b.Start = scene.Position{X: c.Scene.Start.X, Y: c.Scene.Start.Y}
	b.Velocity = scene.Position{X: c.Scene.Velocity.X, Y: c.Scene.Velocity.Y}
	return b
}

// Address returns the signaling host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Signaling.Host, strconv.Itoa(c.Signaling.Port))
}

// WSURL returns the URL a WebSocket client dials.
func (c *Config) WSURL() string {
	return "ws://" + c.Address() + c.Signaling.Path
}
