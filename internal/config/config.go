// Package config holds the daemon configuration and its YAML file handling.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"meshtund/internal/nodetable"
)

// Framing selects how DATA payloads are treated on the wire.
const (
	FramingPlain   = "plain"   // payloads written verbatim (wire-compatible default)
	FramingEscaped = "escaped" // byte-stuffed payloads; both peers must agree
)

// SerialConfig describes the serial port the radio is attached to.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baudrate"`
}

// TunConfig describes the virtual network interface.
type TunConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Netmask string `yaml:"netmask"`
	MTU     int    `yaml:"mtu"`
}

// NodeConfig identifies this node on the radio link.
type NodeConfig struct {
	ID      string `yaml:"id"`
	Framing string `yaml:"framing"`
}

// DiscoveryConfig controls the periodic node discovery broadcast.
type DiscoveryConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// Config is the full daemon configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Tun       TunConfig       `yaml:"tun"`
	Node      NodeConfig      `yaml:"node"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	// NodeMapping holds static node id → IPv4 address entries loaded once
	// at startup.
	NodeMapping map[string]string `yaml:"node_mapping"`
}

// Default returns the stock configuration with a freshly generated node id.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{Port: "/dev/ttyACM0", Baud: 115200},
		Tun: TunConfig{
			Name:    "meshtun0",
			Address: "10.0.0.1",
			Netmask: "255.255.255.0",
			MTU:     1500,
		},
		Node:      NodeConfig{ID: randomNodeID(), Framing: FramingPlain},
		Discovery: DiscoveryConfig{IntervalSeconds: 60},
		NodeMapping: map[string]string{
			"my-other-node": "10.0.0.2",
		},
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	// Unmarshal merges into existing maps rather than replacing them, so the
	// sample mapping must not survive into loaded configs.
	cfg.NodeMapping = nil
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Write serializes the configuration to path.
func (c *Config) Write(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port must be set")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baudrate must be positive, got %d", c.Serial.Baud)
	}
	if c.Tun.Name == "" {
		return fmt.Errorf("tun.name must be set")
	}
	if c.Tun.MTU < 576 || c.Tun.MTU > 9000 {
		return fmt.Errorf("tun.mtu must be within 576..9000, got %d", c.Tun.MTU)
	}
	if c.Node.ID == "" {
		return fmt.Errorf("node.id must be set")
	}
	if c.Node.Framing != FramingPlain && c.Node.Framing != FramingEscaped {
		return fmt.Errorf("node.framing must be %q or %q, got %q",
			FramingPlain, FramingEscaped, c.Node.Framing)
	}
	if c.Discovery.IntervalSeconds < 1 {
		return fmt.Errorf("discovery.interval_seconds must be at least 1, got %d",
			c.Discovery.IntervalSeconds)
	}
	return nil
}

// DiscoveryInterval returns the discovery period as a duration.
func (c *Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.Discovery.IntervalSeconds) * time.Second
}

// EscapedFraming reports whether byte-stuffed DATA payloads are enabled.
func (c *Config) EscapedFraming() bool {
	return c.Node.Framing == FramingEscaped
}

// randomNodeID generates an id like "msh-1a2b3c4d" for nodes that have not
// been given one explicitly.
func randomNodeID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("%s-%s", nodetable.IDPrefix, hex.EncodeToString(b))
}
