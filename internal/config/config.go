// Package config handles configuration loading and validation for openentropy.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the daemon/CLI configuration.
type Config struct {
	// Sources lists the source IDs to enable. Empty means "all detected
	// sources."
	Sources SourcesConfig `toml:"sources"`

	// Conditioning selects the default conditioning mode applied to
	// pool output: "hash_chain", "von_neumann", "aes_ctr_drbg", or "raw".
	Conditioning ConditioningConfig `toml:"conditioning"`

	// Pool controls pool-wide collection behavior.
	Pool PoolConfig `toml:"pool"`

	// HTTP controls the apiserver bind address and raw-output gating.
	HTTP HTTPConfig `toml:"http"`

	// Recorder controls session recording output.
	Recorder RecorderConfig `toml:"recorder"`

	// Logging controls structured log output.
	Logging LoggingConfig `toml:"logging"`
}

// SourcesConfig lists which entropy sources are enabled.
type SourcesConfig struct {
	Enabled []string `toml:"enabled"`
}

// ConditioningConfig selects the default conditioning mode.
type ConditioningConfig struct {
	Default string `toml:"default"`
}

// PoolConfig controls pool-wide collection behavior.
type PoolConfig struct {
	// CollectTimeoutMs is a per-source collect() budget in milliseconds.
	// It is loaded and validated, but no collection path reads it.
	CollectTimeoutMs int `toml:"collect_timeout_ms"`

	// ReseedIntervalSec is a reseed interval in seconds (zero meaning
	// none). It is loaded and validated, but the pool does not read it
	// and performs no periodic reseed.
	ReseedIntervalSec int `toml:"reseed_interval_sec"`

	// ReseedBytes is a per-reseed byte count. Like ReseedIntervalSec it
	// is loaded and validated but not read by the pool.
	ReseedBytes int `toml:"reseed_bytes"`
}

// HTTPConfig controls the apiserver.
type HTTPConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// AllowRaw permits /api/v1/random?conditioning=raw. Disabled by
	// default since raw output has not passed any health test.
	AllowRaw bool `toml:"allow_raw"`
}

// RecorderConfig controls session recording.
type RecorderConfig struct {
	OutputDir string `toml:"output_dir"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
	Output string `toml:"output"` // stderr, stdout, or a file path
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DefaultOutputDir()

	return &Config{
		Sources: SourcesConfig{
			Enabled: []string{},
		},
		Conditioning: ConditioningConfig{
			Default: "hash_chain",
		},
		Pool: PoolConfig{
			CollectTimeoutMs: 500,
			ReseedIntervalSec: 300,
			ReseedBytes:       32,
		},
		HTTP: HTTPConfig{
			Host:     "127.0.0.1",
			Port:     8420,
			AllowRaw: false,
		},
		Recorder: RecorderConfig{
			OutputDir: filepath.Join(dir, "sessions"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".openentropy", "config.toml")
}

// DefaultOutputDir returns the base openentropy state directory.
func DefaultOutputDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".openentropy")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides overlays environment variables onto the configuration.
// OPENENTROPY_CAMERA_DEVICE is also captured here as a raw string. The
// camera_frame_noise source does not use this copy: it reads the
// variable itself and parses it as an integer device index.
var cameraDevice string

// CameraDevice returns the raw OPENENTROPY_CAMERA_DEVICE value captured
// by ApplyEnvOverrides, or "" if unset.
func CameraDevice() string {
	return cameraDevice
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OPENENTROPY_CAMERA_DEVICE"); v != "" {
		cameraDevice = v
	}
	if v := os.Getenv("OPENENTROPY_HTTP_HOST"); v != "" {
		c.HTTP.Host = v
	}
	if v := os.Getenv("OPENENTROPY_HTTP_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			c.HTTP.Port = port
		}
	}
	if v := os.Getenv("OPENENTROPY_ALLOW_RAW"); v != "" {
		c.HTTP.AllowRaw = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("OPENENTROPY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OPENENTROPY_CONDITIONING"); v != "" {
		c.Conditioning.Default = v
	}
}

var validConditioning = map[string]bool{
	"hash_chain":   true,
	"von_neumann":  true,
	"aes_ctr_drbg": true,
	"raw":          true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !validConditioning[c.Conditioning.Default] {
		return fmt.Errorf("config: unknown conditioning mode %q", c.Conditioning.Default)
	}

	if c.Pool.CollectTimeoutMs < 1 {
		return errors.New("config: pool.collect_timeout_ms must be at least 1")
	}

	if c.Pool.ReseedBytes < 0 {
		return errors.New("config: pool.reseed_bytes must not be negative")
	}

	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.New("config: http.port must be in [0, 65535]")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown logging.format %q", c.Logging.Format)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Sources.Enabled = append([]string(nil), c.Sources.Enabled...)
	return &clone
}

// EnsureDirectories creates all necessary directories for the daemon.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Recorder.OutputDir}

	if c.Logging.Output != "stderr" && c.Logging.Output != "stdout" {
		dirs = append(dirs, filepath.Dir(c.Logging.Output))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	return nil
}

// SaveConfig writes the configuration to path in TOML format.
func SaveConfig(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}
