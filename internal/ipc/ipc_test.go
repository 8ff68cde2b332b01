package ipc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"fieldsync/internal/adapters"
	"fieldsync/internal/config"
	"fieldsync/internal/daemon"
	"fieldsync/internal/engine"
	"fieldsync/internal/ipc"
	"fieldsync/internal/remote"
	"fieldsync/internal/testsupport"
)

type scriptedConnectivity struct {
	online atomic.Bool
}

func (c *scriptedConnectivity) Online() bool { return c.online.Load() }

// harness wires a real daemon, engine, and store behind an IPC server on a
// throwaway socket, with a scripted backend and connectivity source.
type harness struct {
	cfg           *config.Config
	client        *ipc.Client
	connectivity  *scriptedConnectivity
	backendStatus *atomic.Int32
	shutdowns     *atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backendStatus := &atomic.Int32{}
	backendStatus.Store(http.StatusCreated)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := int(backendStatus.Load())
		w.WriteHeader(status)
		if status < 300 {
			_, _ = w.Write([]byte(`{"id":"rec-9"}`))
		}
	}))
	t.Cleanup(backend.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(backend.URL))
	store := testsupport.MustOpenStore(t, cfg)
	registry := adapters.NewRegistry(remote.NewClient(cfg), cfg.Backend.DeviceID)

	connectivity := &scriptedConnectivity{}
	eng := engine.New(cfg, store, registry, nil, connectivity, testsupport.Logger())

	d, err := daemon.New(cfg, store, eng, nil, testsupport.Logger())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(d.Stop)

	shutdowns := &atomic.Int32{}
	socketPath := filepath.Join(t.TempDir(), "fieldsyncd.sock")
	server, err := ipc.NewServer(context.Background(), socketPath, d, func() {
		shutdowns.Add(1)
	}, testsupport.Logger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return &harness{
		cfg:           cfg,
		client:        client,
		connectivity:  connectivity,
		backendStatus: backendStatus,
		shutdowns:     shutdowns,
	}
}

func TestStatusReportsDaemonState(t *testing.T) {
	h := newHarness(t)
	h.connectivity.online.Store(true)

	status, err := h.client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if !status.IsOnline {
		t.Fatal("expected online status")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("expected own pid, got %d", status.PID)
	}
	if status.QueueDBPath != h.cfg.QueueDBPath() {
		t.Fatalf("unexpected db path %q", status.QueueDBPath)
	}
	if status.TotalCount != 0 {
		t.Fatalf("expected empty queue, got %d", status.TotalCount)
	}
}

func TestEnqueueListForceSyncRoundTrip(t *testing.T) {
	h := newHarness(t)
	// Offline first so the enqueued item stays queued instead of draining
	// opportunistically.
	h.connectivity.online.Store(false)

	resp, err := h.client.Enqueue(ipc.EnqueueRequest{
		EntityType: "incident",
		Priority:   1,
		Payload:    []byte(`{"category":"fire","severity":"high","description":"smoke in block B","occurred_at":"2026-03-14T22:00:00Z"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if resp.Item.ID == "" || resp.Item.Status != "pending" || resp.Item.Priority != 1 {
		t.Fatalf("unexpected queued item %+v", resp.Item)
	}

	list, err := h.client.QueueList(nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != resp.Item.ID {
		t.Fatalf("unexpected listing %+v", list.Items)
	}

	filtered, err := h.client.QueueList([]string{"completed"})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered.Items) != 0 {
		t.Fatalf("expected no completed items, got %d", len(filtered.Items))
	}

	if _, err := h.client.ForceSync(); err == nil {
		t.Fatal("expected force sync to fail while offline")
	} else if !strings.Contains(err.Error(), "backend unreachable") {
		t.Fatalf("unexpected offline error %v", err)
	}

	h.connectivity.online.Store(true)
	sync, err := h.client.ForceSync()
	if err != nil {
		t.Fatalf("force sync: %v", err)
	}
	if sync.Attempted != 1 || sync.Completed != 1 || sync.Remaining != 0 {
		t.Fatalf("unexpected sync result %+v", sync)
	}

	list, err = h.client.QueueList(nil)
	if err != nil {
		t.Fatalf("list after sync: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected drained queue, got %d items", len(list.Items))
	}
}

func TestEnqueueRejectsUnknownEntityType(t *testing.T) {
	h := newHarness(t)
	h.connectivity.online.Store(false)

	_, err := h.client.Enqueue(ipc.EnqueueRequest{
		EntityType: "maintenance_request",
		Priority:   3,
		Payload:    []byte(`{}`),
	})
	if err == nil || !strings.Contains(err.Error(), "unknown entity type") {
		t.Fatalf("expected unknown entity type error, got %v", err)
	}
}

func TestQueueClearDropsPendingWork(t *testing.T) {
	h := newHarness(t)
	h.connectivity.online.Store(false)

	_, err := h.client.Enqueue(ipc.EnqueueRequest{
		EntityType: "delivery",
		Priority:   3,
		Payload:    []byte(`{"courier":"ups","unit_number":"4","received_at":"2026-03-14T10:00:00Z"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	cleared, err := h.client.QueueClear()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cleared.Cleared {
		t.Fatal("expected cleared confirmation")
	}

	list, err := h.client.QueueList(nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected empty queue, got %d items", len(list.Items))
	}
}

func TestDatabaseHealthOverIPC(t *testing.T) {
	h := newHarness(t)
	h.connectivity.online.Store(false)

	if _, err := h.client.Enqueue(ipc.EnqueueRequest{
		EntityType: "gate_entry",
		Priority:   3,
		Payload:    []byte(`{"direction":"in","method":"manual","recorded_at":"2026-03-14T09:00:00Z"}`),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	health, err := h.client.DatabaseHealth()
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health %+v", health)
	}
	if health.QueuedItems != 1 {
		t.Fatalf("expected 1 queued item, got %d", health.QueuedItems)
	}
	if health.DBPath != h.cfg.QueueDBPath() {
		t.Fatalf("unexpected db path %q", health.DBPath)
	}
}

func TestTestAlertWithoutTopic(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.TestAlert()
	if err != nil {
		t.Fatalf("test alert: %v", err)
	}
	if resp.Sent {
		t.Fatal("expected no alert without a configured topic")
	}
	if resp.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestStopInvokesShutdownCallback(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stop confirmation")
	}
	if h.shutdowns.Load() != 1 {
		t.Fatalf("expected one shutdown callback, got %d", h.shutdowns.Load())
	}
}
