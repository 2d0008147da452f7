package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
instance_id: cam-a
room_id: lab
camera:
  width: 320
  height: 240
  fps: 15
  detect_threshold: 0.6
broker:
  url: tcp://127.0.0.1:1883
  qos: 1
peer:
  id: cam-b
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peercam.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.InstanceID != "cam-a" {
		t.Errorf("Expected instance_id cam-a, got %q", cfg.InstanceID)
	}
	if cfg.Camera.FPS != 15 {
		t.Errorf("Expected fps 15, got %d", cfg.Camera.FPS)
	}
	if cfg.Broker.QoS != 1 {
		t.Errorf("Expected qos 1, got %d", cfg.Broker.QoS)
	}
	if got := cfg.FramesTopic("cam-b"); got != "peercam/lab/cam-b/frames" {
		t.Errorf("Unexpected frames topic: %q", got)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
instance_id: cam-a
room_id: lab
broker:
  url: tcp://127.0.0.1:1883
peer:
  id: cam-b
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("Expected default 640x480, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Camera.FPS != 30 {
		t.Errorf("Expected default fps 30, got %d", cfg.Camera.FPS)
	}
	if cfg.Camera.DetectThreshold != 0.55 {
		t.Errorf("Expected default threshold 0.55, got %v", cfg.Camera.DetectThreshold)
	}
	if cfg.RemoteSilenceTimeout != 3 {
		t.Errorf("Expected default silence timeout 3, got %d", cfg.RemoteSilenceTimeout)
	}
	if cfg.HealthPort != 8080 {
		t.Errorf("Expected default health port 8080, got %d", cfg.HealthPort)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing instance_id", func(c *Config) { c.InstanceID = "" }, "instance_id is required"},
		{"bad instance_id", func(c *Config) { c.InstanceID = "Cam_A" }, "instance_id must match"},
		{"missing room_id", func(c *Config) { c.RoomID = "" }, "room_id is required"},
		{"missing peer", func(c *Config) { c.Peer.ID = "" }, "peer.id is required"},
		{"peer equals self", func(c *Config) { c.Peer.ID = c.InstanceID }, "must differ"},
		{"missing broker", func(c *Config) { c.Broker.URL = "" }, "broker.url is required"},
		{"bad qos", func(c *Config) { c.Broker.QoS = 3 }, "qos must be"},
		{"bad threshold", func(c *Config) { c.Camera.DetectThreshold = 1.5 }, "detect_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				InstanceID: "cam-a",
				RoomID:     "lab",
				Peer:       PeerConfig{ID: "cam-b"},
				Broker:     BrokerConfig{URL: "tcp://127.0.0.1:1883"},
			}
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
