package network_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/network"
	"fieldsync/internal/testsupport"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestMonitorNilIsOnline(t *testing.T) {
	var m *network.Monitor
	if !m.Online() {
		t.Fatal("nil monitor must report online")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("nil start: %v", err)
	}
	m.Stop()
}

func TestMonitorAssumesOnlineWithoutProbeURL(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Network.ProbeURL = ""
	})

	m := network.NewMonitor(cfg, testsupport.Logger(), nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	if !m.Online() {
		t.Fatal("unconfigured monitor must assume online")
	}
}

func TestMonitorFiresOnOfflineToOnlineEdge(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	t.Cleanup(server.Close)

	restored := make(chan struct{}, 1)
	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Network.ProbeURL = server.URL
	})
	m := network.NewMonitor(cfg, testsupport.Logger(), func(context.Context) {
		restored <- struct{}{}
	})

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "offline verdict", func() bool { return !m.Online() })
	m.Stop()

	select {
	case <-restored:
		t.Fatal("online callback fired without an offline-to-online edge")
	default:
	}

	// Backend recovers; the restart probes immediately and must fire the
	// edge callback exactly once.
	status.Store(http.StatusOK)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer m.Stop()

	select {
	case <-restored:
	case <-time.After(5 * time.Second):
		t.Fatal("online edge never fired")
	}
	if !m.Online() {
		t.Fatal("expected online after recovery")
	}
}

func TestMonitorTreatsClientErrorsAsOnline(t *testing.T) {
	probed := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		select {
		case probed <- struct{}{}:
		default:
		}
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Network.ProbeURL = server.URL
	})
	m := network.NewMonitor(cfg, testsupport.Logger(), nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	select {
	case <-probed:
	case <-time.After(5 * time.Second):
		t.Fatal("probe never reached the server")
	}
	if !m.Online() {
		t.Fatal("4xx means the backend answered; monitor must stay online")
	}
}

func TestMonitorGoesOfflineWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Network.ProbeURL = server.URL
	})
	m := network.NewMonitor(cfg, testsupport.Logger(), nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	waitFor(t, "offline verdict", func() bool { return !m.Online() })
}
