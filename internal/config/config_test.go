package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.True(t, strings.HasPrefix(cfg.Node.ID, "msh-"))
	require.Len(t, cfg.Node.ID, len("msh-")+8)
	require.False(t, cfg.EscapedFraming())
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	orig := Default()
	orig.Node.ID = "msh-test01"
	orig.Node.Framing = FramingEscaped
	orig.NodeMapping = map[string]string{"node-A": "10.0.0.2"}
	require.NoError(t, orig.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, orig, loaded)
	require.True(t, loaded.EscapedFraming())
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := `
serial:
  port: /dev/ttyUSB0
node:
  id: msh-partial
`
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	require.Equal(t, "msh-partial", cfg.Node.ID)
	require.Equal(t, 115200, cfg.Serial.Baud)
	require.Equal(t, "meshtun0", cfg.Tun.Name)
	require.Equal(t, 60, cfg.Discovery.IntervalSeconds)
	require.Empty(t, cfg.NodeMapping, "a config without node_mapping must load none")
}

// TestLoadReplacesSampleMapping verifies the sample entry from Default never
// merges into a loaded config's static mappings.
func TestLoadReplacesSampleMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
node:
  id: msh-own
node_mapping:
  node-A: 10.0.0.2
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"node-A": "10.0.0.2"}, cfg.NodeMapping)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty serial port", func(c *Config) { c.Serial.Port = "" }},
		{"zero baud", func(c *Config) { c.Serial.Baud = 0 }},
		{"empty tun name", func(c *Config) { c.Tun.Name = "" }},
		{"mtu too small", func(c *Config) { c.Tun.MTU = 100 }},
		{"mtu too large", func(c *Config) { c.Tun.MTU = 65536 }},
		{"empty node id", func(c *Config) { c.Node.ID = "" }},
		{"bogus framing", func(c *Config) { c.Node.Framing = "base64" }},
		{"zero discovery interval", func(c *Config) { c.Discovery.IntervalSeconds = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
