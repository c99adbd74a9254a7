package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagecheck.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestSetup_ConfigLogLevelApplies(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	cli := &CLI{Config: path}
	cfg, cleanup, err := setup(cli)
	if err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	defer cleanup()

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Without a --log-level flag the YAML value must reach the logger.
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug logging from config not applied")
	}
}

func TestSetup_FlagOverridesConfigLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	cli := &CLI{Config: path, LogLevel: "error"}
	_, cleanup, err := setup(cli)
	if err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	defer cleanup()

	if slog.Default().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("--log-level=error should win over the config's debug")
	}
}
