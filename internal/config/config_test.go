package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.Address(); got != "localhost:9000" {
		t.Errorf("Address = %q, want localhost:9000", got)
	}
	if got := cfg.WSURL(); got != "ws://localhost:9000/ws" {
		t.Errorf("WSURL = %q", got)
	}
	if len(cfg.WebRTC.STUNServers) == 0 || !cfg.WebRTC.IncludeLoopback {
		t.Errorf("unexpected webrtc defaults %+v", cfg.WebRTC)
	}
	ball := cfg.Ball()
	if ball.Width != 400 || ball.Height != 300 || ball.Radius != 20 {
		t.Errorf("unexpected ball config %+v", ball)
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "bounce.yaml", `
role: consumer
signaling:
  kind: ws
  port: 9100
scene:
  width: 640
  height: 480
  radius: 30
media:
  fps: 24
  max_frames: 90
stats_interval: 2s
`)
	envPath := writeFile(t, dir, ".env", "BOUNCE_PORT=9200\nBOUNCE_CYCLES=10\n")

	t.Setenv("BOUNCE_CYCLES", "12")
	t.Setenv("BOUNCE_STUN", "stun:a.example:3478, stun:b.example:3478")

	cfg, err := load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Role != RoleConsumer {
		t.Errorf("Role = %q", cfg.Role)
	}
	if cfg.Signaling.Kind != SignalWS {
		t.Errorf("Kind = %q", cfg.Signaling.Kind)
	}
	// .env overrides YAML.
	if cfg.Signaling.Port != 9200 {
		t.Errorf("Port = %d, want 9200", cfg.Signaling.Port)
	}
	// The environment overrides .env.
	if cfg.Media.Cycles != 12 {
		t.Errorf("Cycles = %d, want 12", cfg.Media.Cycles)
	}
	if cfg.Media.FPS != 24 || cfg.Media.MaxFrames != 90 {
		t.Errorf("Media = %+v", cfg.Media)
	}
	// Unset keys keep their defaults.
	if cfg.Signaling.Host != "localhost" || cfg.Media.QueueSize != 64 {
		t.Errorf("defaults lost: %+v %+v", cfg.Signaling, cfg.Media)
	}
	if cfg.Scene.Width != 640 || cfg.Scene.Radius != 30 {
		t.Errorf("Scene = %+v", cfg.Scene)
	}
	if cfg.StatsInterval != 2*time.Second {
		t.Errorf("StatsInterval = %v", cfg.StatsInterval)
	}
	if len(cfg.WebRTC.STUNServers) != 2 || cfg.WebRTC.STUNServers[1] != "stun:b.example:3478" {
		t.Errorf("STUNServers = %v", cfg.WebRTC.STUNServers)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	cfg, err := load("", filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Media.FPS != 30 {
		t.Errorf("FPS = %d, want 30", cfg.Media.FPS)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{
			name: "bad yaml",
			yaml: "media: [",
			want: "failed to parse config",
		},
		{
			name: "unknown role",
			yaml: "role: spectator",
			want: "unknown role",
		},
		{
			name: "ball does not fit",
			yaml: "scene:\n  width: 30\n  height: 30\n  radius: 20\n",
			want: "invalid configuration",
		},
		{
			name: "bad env number",
			env:  map[string]string{"BOUNCE_FPS": "fast"},
			want: "BOUNCE_FPS",
		},
		{
			name: "zero fps",
			env:  map[string]string{"BOUNCE_FPS": "0"},
			want: "fps must be positive",
		},
		{
			name: "unknown signaling",
			env:  map[string]string{"BOUNCE_SIGNAL": "carrier-pigeon"},
			want: "unknown signaling kind",
		},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := ""
			if tc.yaml != "" {
				path = writeFile(t, dir, tc.name+".yaml", tc.yaml)
			}
			_, err := load(path, filepath.Join(dir, "missing-"+string(rune('a'+i))))
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Fatalf("err = %v", err)
	}
}
