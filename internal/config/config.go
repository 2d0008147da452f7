// Package config loads and validates the peercam node configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete node configuration.
type Config struct {
	InstanceID           string       `yaml:"instance_id"`
	RoomID               string       `yaml:"room_id"`
	Camera               CameraConfig `yaml:"camera"`
	Broker               BrokerConfig `yaml:"broker"`
	Peer                 PeerConfig   `yaml:"peer"`
	RemoteSilenceTimeout int          `yaml:"remote_silence_timeout_s"` // seconds before falling back to the local view
	HealthPort           int          `yaml:"health_port"`
	StatsIntervalS       int          `yaml:"stats_interval_s"` // display refresh period
}

// CameraConfig contains capture and detection settings.
type CameraConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	FPS             int     `yaml:"fps"`
	DetectThreshold float64 `yaml:"detect_threshold"` // minimum confidence to count a person
	MaxDetections   int     `yaml:"max_detections"`
}

// BrokerConfig contains MQTT broker settings.
type BrokerConfig struct {
	URL string `yaml:"url"`
	QoS byte   `yaml:"qos"`
}

// PeerConfig identifies the remote node.
type PeerConfig struct {
	ID string `yaml:"id"`
}

// Load reads, parses and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SilenceTimeout returns the remote-silence window as a duration.
func (c *Config) SilenceTimeout() time.Duration {
	return time.Duration(c.RemoteSilenceTimeout) * time.Second
}

// StatsInterval returns the display refresh period as a duration.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalS) * time.Second
}

// FramesTopic returns the topic a given node publishes its frames on.
func (c *Config) FramesTopic(nodeID string) string {
	return fmt.Sprintf("peercam/%s/%s/frames", c.RoomID, nodeID)
}

var idPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks the configuration and fills in defaults for optional
// fields before checking the required ones.
func Validate(cfg *Config) error {
	// Defaults
	if cfg.Camera.Width == 0 {
		cfg.Camera.Width = 640
	}
	if cfg.Camera.Height == 0 {
		cfg.Camera.Height = 480
	}
	if cfg.Camera.FPS == 0 {
		cfg.Camera.FPS = 30
	}
	if cfg.Camera.DetectThreshold == 0 {
		cfg.Camera.DetectThreshold = 0.55
	}
	if cfg.Camera.MaxDetections == 0 {
		cfg.Camera.MaxDetections = 10
	}
	if cfg.RemoteSilenceTimeout == 0 {
		cfg.RemoteSilenceTimeout = 3
	}
	if cfg.HealthPort == 0 {
		cfg.HealthPort = 8080
	}
	if cfg.StatsIntervalS == 0 {
		cfg.StatsIntervalS = 5
	}

	// Required fields
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !idPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}
	if cfg.RoomID == "" {
		return fmt.Errorf("room_id is required")
	}
	if cfg.Peer.ID == "" {
		return fmt.Errorf("peer.id is required")
	}
	if !idPattern.MatchString(cfg.Peer.ID) {
		return fmt.Errorf("peer.id must match pattern [a-z0-9-]+")
	}
	if cfg.Peer.ID == cfg.InstanceID {
		return fmt.Errorf("peer.id must differ from instance_id")
	}
	if cfg.Broker.URL == "" {
		return fmt.Errorf("broker.url is required")
	}

	// Ranges
	if cfg.Camera.FPS < 0 {
		return fmt.Errorf("camera.fps must be > 0")
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		return fmt.Errorf("camera dimensions must be > 0")
	}
	if cfg.Camera.DetectThreshold < 0 || cfg.Camera.DetectThreshold > 1 {
		return fmt.Errorf("camera.detect_threshold must be in (0, 1]")
	}
	if cfg.Camera.MaxDetections < 0 {
		return fmt.Errorf("camera.max_detections must be > 0")
	}
	if cfg.Broker.QoS > 2 {
		return fmt.Errorf("broker.qos must be 0, 1 or 2")
	}

	return nil
}
