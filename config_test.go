package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spance/openterface-grab/constants"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grab.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const sampleConfig = `
host = "192.168.1.10"
port = 5000
cmd = "lastimage"
timeout = "2.5s"
output_dir = "captures"
verbose = true

[loop]
interval = "250ms"
count = 12

[screenshot]
script = "FullScreenCapture"
poll_interval = "100ms"
poll_max = 5
`

func never(string) bool { return false }

func TestLoadFileConfig(t *testing.T) {
	fc, err := loadFileConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Host != "192.168.1.10" || fc.Port != 5000 || fc.Command != "lastimage" {
		t.Fatalf("unexpected server section: %+v", fc)
	}
	if fc.Timeout.Duration != 2500*time.Millisecond {
		t.Fatalf("timeout=%s", fc.Timeout.Duration)
	}
	if fc.Loop.Count == nil || *fc.Loop.Count != 12 || fc.Loop.Interval.Duration != 250*time.Millisecond {
		t.Fatalf("unexpected loop section: %+v", fc.Loop)
	}
	if fc.Screenshot.PollMax != 5 {
		t.Fatalf("poll_max=%d", fc.Screenshot.PollMax)
	}
}

func TestLoadFileConfigRejectsUnknownKeys(t *testing.T) {
	_, err := loadFileConfig(writeConfig(t, "hots = \"typo\"\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadFileConfigBadDuration(t *testing.T) {
	if _, err := loadFileConfig(writeConfig(t, "timeout = \"soon\"\n")); err == nil {
		t.Fatalf("expected duration error")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{constants.EnvHost, constants.EnvPort, constants.EnvCommand, constants.EnvTimeout, constants.EnvOutputDir} {
		t.Setenv(key, "")
	}
}

func TestApplyFileConfigFillsUnsetValues(t *testing.T) {
	clearEnv(t)
	fc, err := loadFileConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := &Config{
		Host:    constants.DefaultHost,
		Port:    constants.DefaultPort,
		Command: constants.DefaultCommand,
		Timeout: constants.DefaultTimeout,
	}
	if err := applyFileConfig(cfg, fc, never); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Host != "192.168.1.10" || cfg.Port != 5000 || cfg.Command != "lastimage" {
		t.Fatalf("server values not applied: %+v", cfg)
	}
	if cfg.Timeout != 2500*time.Millisecond || cfg.OutputDir != "captures" || !cfg.Verbose {
		t.Fatalf("values not applied: %+v", cfg)
	}
	if cfg.Interval != 250*time.Millisecond || cfg.Count != 12 || cfg.PollMax != 5 {
		t.Fatalf("loop/screenshot values not applied: %+v", cfg)
	}
}

func TestApplyFileConfigPrecedence(t *testing.T) {
	fc, err := loadFileConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	clearEnv(t)
	t.Setenv(constants.EnvPort, "6000")

	cfg := &Config{Host: "10.0.0.1", Port: 6000, Command: constants.DefaultCommand}
	changed := func(name string) bool { return name == "host" }
	if err := applyFileConfig(cfg, fc, changed); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Host != "10.0.0.1" {
		t.Fatalf("explicit flag overridden by file: %q", cfg.Host)
	}
	if cfg.Port != 6000 {
		t.Fatalf("environment overridden by file: %d", cfg.Port)
	}
	if cfg.Command != "lastimage" {
		t.Fatalf("file value not applied: %q", cfg.Command)
	}
}

func TestApplyFileConfigNegativeCount(t *testing.T) {
	fc, err := loadFileConfig(writeConfig(t, "[loop]\ncount = -1\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := applyFileConfig(&Config{}, fc, never); err == nil {
		t.Fatalf("expected error for negative count")
	}
}
