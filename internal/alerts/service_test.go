package alerts_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fieldsync/internal/alerts"
	"fieldsync/internal/config"
	"fieldsync/internal/testsupport"
)

type capturedAlert struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyService(t *testing.T, captured *capturedAlert, status int) alerts.Service {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		captured.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Alerts.NtfyTopic = server.URL
	})
	return alerts.NewService(cfg)
}

func TestServiceIsNoopWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Alerts.NtfyTopic = ""
	service := alerts.NewService(cfg)

	ctx := context.Background()
	if err := service.NotifyRetriesExhausted(ctx, "incident", "item-1", "rejected"); err != nil {
		t.Fatalf("noop exhausted: %v", err)
	}
	if err := service.NotifyConnectivityLost(ctx); err != nil {
		t.Fatalf("noop offline: %v", err)
	}
	if err := service.TestAlert(ctx); err != nil {
		t.Fatalf("noop test: %v", err)
	}
}

func TestRetriesExhaustedAlertCarriesDetail(t *testing.T) {
	var captured capturedAlert
	service := newNtfyService(t, &captured, http.StatusOK)

	err := service.NotifyRetriesExhausted(context.Background(), "gate_entry", "item-42", "backend returned 422")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if captured.title != "FieldSync - Sync Failed" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if captured.priority != "high" {
		t.Fatalf("unexpected priority %q", captured.priority)
	}
	if !strings.Contains(captured.tags, "failed") {
		t.Fatalf("unexpected tags %q", captured.tags)
	}
	if !strings.Contains(captured.body, "item-42") || !strings.Contains(captured.body, "backend returned 422") {
		t.Fatalf("alert body missing detail: %q", captured.body)
	}
}

func TestSyncRestoredAlertUsesDefaultPriority(t *testing.T) {
	var captured capturedAlert
	service := newNtfyService(t, &captured, http.StatusOK)

	if err := service.NotifySyncRestored(context.Background(), 7); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if captured.priority != "" {
		t.Fatalf("restore alert should use the default priority, got %q", captured.priority)
	}
	if !strings.Contains(captured.body, "7") {
		t.Fatalf("expected drained count in body, got %q", captured.body)
	}
}

func TestCriticalBacklogAlertReportsCount(t *testing.T) {
	var captured capturedAlert
	service := newNtfyService(t, &captured, http.StatusOK)

	if err := service.NotifyCriticalBacklog(context.Background(), 5); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if captured.title != "FieldSync - Critical Backlog" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if !strings.Contains(captured.body, "5") {
		t.Fatalf("expected count in body, got %q", captured.body)
	}
}

func TestSendSurfacesServerRejection(t *testing.T) {
	var captured capturedAlert
	service := newNtfyService(t, &captured, http.StatusForbidden)

	err := service.TestAlert(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected alert")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}
