package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldsync/internal/config"
)

const userAgent = "FieldSync-Go/0.1.0"

// Record is a single row submitted to the hosted records API.
type Record map[string]any

// Client talks to the hosted data backend's records API. It knows nothing
// about the sync queue; entity adapters translate payloads into calls here.
type Client struct {
	baseURL string
	apiKey  string
	siteID  string
	client  *http.Client
}

// NewClient builds a backend client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Backend.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		apiKey:  cfg.Backend.APIKey,
		siteID:  cfg.Backend.SiteID,
		client:  &http.Client{Timeout: timeout},
	}
}

// Insert creates a record in the named table and returns the remote id.
func (c *Client) Insert(ctx context.Context, table string, record Record) (string, error) {
	operation := "insert " + table
	endpoint, err := c.recordsURL(table, "")
	if err != nil {
		return "", Wrap(ErrConfiguration, operation, "build endpoint", err)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, operation, record)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", Wrap(ErrUnavailable, operation, "decode response", err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", Wrap(ErrUnavailable, operation, "response missing record id", nil)
	}
	return created.ID, nil
}

// Update patches an existing record by id in the named table.
func (c *Client) Update(ctx context.Context, table, id string, record Record) error {
	operation := "update " + table
	if strings.TrimSpace(id) == "" {
		return Wrap(ErrRejected, operation, "record id is required", nil)
	}
	endpoint, err := c.recordsURL(table, id)
	if err != nil {
		return Wrap(ErrConfiguration, operation, "build endpoint", err)
	}

	_, err = c.do(ctx, http.MethodPatch, endpoint, operation, record)
	return err
}

// Health checks whether the backend answers at all. Used by preflight as an
// advisory probe; the daemon starts regardless of the outcome.
func (c *Client) Health(ctx context.Context) error {
	if c.baseURL == "" {
		return Wrap(ErrConfiguration, "health", "backend base URL is not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return Wrap(ErrConfiguration, "health", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError("health", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return Wrap(ErrUnavailable, "health", fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) recordsURL(table, id string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("backend base URL is not configured")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("table name is required")
	}
	endpoint := c.baseURL + "/api/records/" + url.PathEscape(table)
	if id != "" {
		endpoint += "/" + url.PathEscape(id)
	}
	return endpoint, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, operation string, record Record) ([]byte, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, Wrap(ErrRejected, operation, "encode record", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, Wrap(ErrConfiguration, operation, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.siteID != "" {
		req.Header.Set("X-Site-ID", c.siteID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, Wrap(ErrUnavailable, operation, "read response", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, Wrap(ErrUnavailable, operation, httpFailureDetail(resp.StatusCode, body), nil)
	case resp.StatusCode >= 400:
		return nil, Wrap(ErrRejected, operation, httpFailureDetail(resp.StatusCode, body), nil)
	}
	return body, nil
}

func httpFailureDetail(status int, body []byte) string {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	if detail == "" {
		return fmt.Sprintf("backend returned %d", status)
	}
	return fmt.Sprintf("backend returned %d: %s", status, detail)
}
