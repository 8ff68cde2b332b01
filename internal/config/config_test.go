package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldsync/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to be reported as absent")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Sync.DrainInterval != 30 || cfg.Sync.MaxRetries != 3 || cfg.Sync.StatusInterval != 5 {
		t.Fatalf("unexpected sync defaults %+v", cfg.Sync)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected expanded data dir, got %q", cfg.Paths.DataDir)
	}
	if !cfg.Alerts.RetriesExhausted || !cfg.Alerts.Connectivity {
		t.Fatalf("expected alerts enabled by default, got %+v", cfg.Alerts)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+dir+`/data"
log_dir = "`+dir+`/logs"

[backend]
base_url = "https://records.example.com/"
api_key = " secret "
site_id = "site-9"
device_id = "gate-2"

[sync]
drain_interval = 45
max_retries = 5

[logging]
format = "JSON"
level = "DEBUG"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Backend.BaseURL != "https://records.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.APIKey != "secret" {
		t.Fatalf("expected api key trimmed, got %q", cfg.Backend.APIKey)
	}
	if cfg.Network.ProbeURL != "https://records.example.com/api/health" {
		t.Fatalf("expected probe url derived from backend, got %q", cfg.Network.ProbeURL)
	}
	if cfg.Sync.DrainInterval != 45 || cfg.Sync.MaxRetries != 5 {
		t.Fatalf("unexpected sync overrides %+v", cfg.Sync)
	}
	if cfg.Sync.CommitTimeout != 20 {
		t.Fatalf("expected commit timeout default to survive, got %d", cfg.Sync.CommitTimeout)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging values lowercased, got %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	path := writeConfig(t, `
[backend]
base_url = "records.example.com"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Fatalf("expected base_url validation error, got %v", err)
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format validation error, got %v", err)
	}
}

func TestPathHelpersLiveUnderDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/fieldsync"

	if got := cfg.QueueDBPath(); got != "/var/lib/fieldsync/queue.db" {
		t.Fatalf("unexpected queue db path %q", got)
	}
	if got := cfg.SocketPath(); got != "/var/lib/fieldsync/fieldsyncd.sock" {
		t.Fatalf("unexpected socket path %q", got)
	}
	if got := cfg.LockPath(); got != "/var/lib/fieldsync/fieldsyncd.lock" {
		t.Fatalf("unexpected lock path %q", got)
	}
	if got := cfg.PIDPath(); got != "/var/lib/fieldsync/fieldsyncd.pid" {
		t.Fatalf("unexpected pid path %q", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Sync.MaxRetries <= 0 {
		t.Fatalf("sample config produced invalid retries %d", cfg.Sync.MaxRetries)
	}
}

func TestExpandPathResolvesTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	expanded, err := config.ExpandPath("~/fieldsync-test")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if expanded != filepath.Join(home, "fieldsync-test") {
		t.Fatalf("unexpected expansion %q", expanded)
	}
}

func TestEnsureDirectoriesCreatesTree(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "data", "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, p := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q, err %v", p, err)
		}
	}
}
