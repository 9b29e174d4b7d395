package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Conditioning.Default != "hash_chain" {
		t.Errorf("expected default conditioning hash_chain, got %s", cfg.Conditioning.Default)
	}
	if len(cfg.Sources.Enabled) != 0 {
		t.Errorf("expected 0 enabled sources, got %d", len(cfg.Sources.Enabled))
	}
	if cfg.HTTP.AllowRaw {
		t.Error("expected allow_raw false by default")
	}
	if !strings.Contains(cfg.Recorder.OutputDir, ".openentropy") {
		t.Errorf("recorder output dir should contain .openentropy: %s", cfg.Recorder.OutputDir)
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}
	if !strings.HasSuffix(path, "config.toml") {
		t.Errorf("expected path ending with config.toml, got %s", path)
	}
	if !strings.Contains(path, ".openentropy") {
		t.Errorf("config path should contain .openentropy: %s", path)
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.Conditioning.Default != "hash_chain" {
		t.Errorf("expected default conditioning, got %s", cfg.Conditioning.Default)
	}
}

func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[sources]
enabled = ["scheduler_jitter", "rdrand"]

[conditioning]
default = "von_neumann"

[pool]
collect_timeout_ms = 250
reseed_interval_sec = 60
reseed_bytes = 16

[http]
host = "0.0.0.0"
port = 9000
allow_raw = true

[recorder]
output_dir = "/custom/sessions"

[logging]
level = "debug"
format = "json"
output = "stdout"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Sources.Enabled) != 2 || cfg.Sources.Enabled[0] != "scheduler_jitter" {
		t.Errorf("unexpected enabled sources: %v", cfg.Sources.Enabled)
	}
	if cfg.Conditioning.Default != "von_neumann" {
		t.Errorf("expected von_neumann, got %s", cfg.Conditioning.Default)
	}
	if cfg.Pool.CollectTimeoutMs != 250 {
		t.Errorf("expected collect_timeout_ms 250, got %d", cfg.Pool.CollectTimeoutMs)
	}
	if cfg.HTTP.Port != 9000 || cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("unexpected http config: %+v", cfg.HTTP)
	}
	if !cfg.HTTP.AllowRaw {
		t.Error("expected allow_raw true")
	}
	if cfg.Recorder.OutputDir != "/custom/sessions" {
		t.Errorf("expected custom output dir, got %s", cfg.Recorder.OutputDir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[pool]
reseed_interval_sec = 120
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pool.ReseedIntervalSec != 120 {
		t.Errorf("expected reseed_interval_sec 120, got %d", cfg.Pool.ReseedIntervalSec)
	}
	if cfg.Conditioning.Default != "hash_chain" {
		t.Errorf("expected default conditioning from defaults, got %s", cfg.Conditioning.Default)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `this is not valid toml {{{`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateUnknownConditioning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Conditioning.Default = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown conditioning mode")
	}
}

func TestValidateBadTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pool.CollectTimeoutMs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero collect timeout")
	}
}

func TestValidateBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestValidateConfigCollectsMultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Conditioning.Default = "bogus"
	cfg.HTTP.Port = -1
	cfg.Sources.Enabled = []string{"a", "a"}

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) < 3 {
		t.Errorf("expected at least 3 errors, got %d: %v", len(verrs), verrs)
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Recorder.OutputDir = filepath.Join(tmpDir, "subdir1")
	cfg.Logging.Output = filepath.Join(tmpDir, "subdir2", "openentropy.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "subdir1")); os.IsNotExist(err) {
		t.Error("subdir1 was not created")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "subdir2")); os.IsNotExist(err) {
		t.Error("subdir2 was not created")
	}
}

func TestEnsureDirectoriesStdStreams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recorder.OutputDir = ""
	cfg.Logging.Output = "stderr"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Errorf("EnsureDirectories failed with stream output: %v", err)
	}
}

func TestConfigWithComments(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
# entropy source selection
[sources]
enabled = ["scheduler_jitter"] # jitter only

[pool]
collect_timeout_ms = 750 # generous timeout
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pool.CollectTimeoutMs != 750 {
		t.Errorf("expected collect_timeout_ms 750, got %d", cfg.Pool.CollectTimeoutMs)
	}
	if len(cfg.Sources.Enabled) != 1 || cfg.Sources.Enabled[0] != "scheduler_jitter" {
		t.Errorf("unexpected enabled sources: %v", cfg.Sources.Enabled)
	}
}

func TestConfigEmptySourceList(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[sources]
enabled = []
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Sources.Enabled) != 0 {
		t.Errorf("expected 0 enabled sources, got %d", len(cfg.Sources.Enabled))
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OPENENTROPY_ALLOW_RAW", "true")
	t.Setenv("OPENENTROPY_HTTP_PORT", "7777")
	t.Setenv("OPENENTROPY_CAMERA_DEVICE", "/dev/video3")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if !cfg.HTTP.AllowRaw {
		t.Error("expected allow_raw true from env override")
	}
	if cfg.HTTP.Port != 7777 {
		t.Errorf("expected port 7777, got %d", cfg.HTTP.Port)
	}
	if CameraDevice() != "/dev/video3" {
		t.Errorf("expected camera device /dev/video3, got %s", CameraDevice())
	}
}
