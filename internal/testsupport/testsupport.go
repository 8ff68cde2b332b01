package testsupport

import (
	"log/slog"
	"path/filepath"
	"testing"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Backend.BaseURL = "http://127.0.0.1:0"
	cfg.Backend.APIKey = "test"
	cfg.Backend.SiteID = "site-test"
	cfg.Backend.DeviceID = "gate-1"
	cfg.Network.ProbeURL = cfg.Backend.BaseURL + "/api/health"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithBackendURL points the backend and probe at the given base URL,
// typically an httptest server.
func WithBackendURL(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backend.BaseURL = baseURL
		cfg.Network.ProbeURL = baseURL + "/api/health"
	}
}

// MustOpenStore opens a queue store against the test config and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg, Logger())
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// Logger returns a silent logger for tests.
func Logger() *slog.Logger {
	return logging.NewNop()
}
