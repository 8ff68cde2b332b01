package alerts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldsync/internal/config"
)

const userAgent = "FieldSync-Go/0.1.0"

// Service defines the alert surface exposed to the sync engine and daemon.
type Service interface {
	NotifyRetriesExhausted(ctx context.Context, entityType string, itemID, reason string) error
	NotifyCriticalBacklog(ctx context.Context, criticalCount int) error
	NotifySyncRestored(ctx context.Context, drained int) error
	NotifyConnectivityLost(ctx context.Context) error
	TestAlert(ctx context.Context) error
}

// NewService builds an alert service backed by ntfy when configured. When no
// ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Alerts.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Alerts.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRetriesExhausted(ctx context.Context, entityType string, itemID, reason string) error {
	entityType = strings.TrimSpace(entityType)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	data := payload{
		title:    "FieldSync - Sync Failed",
		message:  fmt.Sprintf("⚠️ %s record %s gave up after repeated failures: %s\nManual review required", entityType, itemID, reason),
		tags:     []string{"fieldsync", "sync", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCriticalBacklog(ctx context.Context, criticalCount int) error {
	data := payload{
		title:    "FieldSync - Critical Backlog",
		message:  fmt.Sprintf("🚨 %d critical incident reports are waiting to sync", criticalCount),
		tags:     []string{"fieldsync", "backlog", "critical"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncRestored(ctx context.Context, drained int) error {
	data := payload{
		title:   "FieldSync - Back Online",
		message: fmt.Sprintf("✅ Connectivity restored, %d queued records synced", drained),
		tags:    []string{"fieldsync", "network", "restored"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyConnectivityLost(ctx context.Context) error {
	data := payload{
		title:   "FieldSync - Offline",
		message: "Backend unreachable; records are queuing locally",
		tags:    []string{"fieldsync", "network", "offline"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestAlert(ctx context.Context) error {
	data := payload{
		title:    "FieldSync - Test",
		message:  "🧪 Alert system test",
		tags:     []string{"fieldsync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRetriesExhausted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyCriticalBacklog(context.Context, int) error                     { return nil }
func (noopService) NotifySyncRestored(context.Context, int) error                        { return nil }
func (noopService) NotifyConnectivityLost(context.Context) error                         { return nil }
func (noopService) TestAlert(context.Context) error                                      { return nil }
