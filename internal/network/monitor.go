package network

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// Monitor maintains a boolean connectivity signal by probing the backend
// health endpoint and notifies exactly on the offline-to-online transition.
// Repeated online verdicts while already online are not forwarded.
//
// When no probe URL is configured the monitor assumes online and lets actual
// commit failures surface the real state; it never blocks a caller waiting
// for a connectivity verdict.
type Monitor struct {
	probeURL string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger
	onOnline func(ctx context.Context)

	mu      sync.Mutex
	online  bool
	probed  bool
	quit    chan struct{}
	running bool
	wg      sync.WaitGroup
}

// NewMonitor creates a connectivity monitor. The onOnline handler fires on
// each offline-to-online edge; it is invoked on the monitor goroutine and
// should hand off long work.
func NewMonitor(cfg *config.Config, logger *slog.Logger, onOnline func(ctx context.Context)) *Monitor {
	interval := time.Duration(cfg.Network.ProbeInterval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := time.Duration(cfg.Network.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Monitor{
		probeURL: cfg.Network.ProbeURL,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.NewComponentLogger(logger, "network-monitor"),
		onOnline: onOnline,
		online:   true, // assume online until a probe says otherwise
	}
}

// Start begins the probe loop.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	if m.probeURL == "" {
		m.logger.Warn("no connectivity probe configured; assuming online",
			logging.String(logging.FieldEventType, "network_probe_unconfigured"),
			logging.String(logging.FieldErrorHint, "set network.probe_url or backend.base_url"),
			logging.String(logging.FieldImpact, "offline detection unavailable; commit failures will surface connectivity"),
		)
		return nil
	}

	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	m.wg.Add(1)
	go m.probeLoop(ctx, quit)

	m.logger.Info("network monitor started",
		logging.String(logging.FieldEventType, "network_monitor_started"),
		logging.String("probe_url", m.probeURL),
		logging.Duration("probe_interval", m.interval),
	)
	return nil
}

// Stop shuts down the probe loop.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	m.quit = nil
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("network monitor stopped",
		logging.String(logging.FieldEventType, "network_monitor_stopped"),
	)
}

// Online reports the current connectivity verdict.
func (m *Monitor) Online() bool {
	if m == nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) probeLoop(ctx context.Context, quit <-chan struct{}) {
	defer m.wg.Done()

	// Probe once immediately so the first verdict does not wait a full tick.
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	online := m.checkReachable(ctx)

	m.mu.Lock()
	wasOnline := m.online
	first := !m.probed
	m.probed = true
	m.online = online
	m.mu.Unlock()

	if online == wasOnline && !first {
		return
	}

	if online && !wasOnline {
		m.logger.Info("connectivity restored",
			logging.String(logging.FieldEventType, "network_online"),
		)
		if m.onOnline != nil {
			m.onOnline(ctx)
		}
		return
	}
	if !online && (wasOnline || first) {
		m.logger.Warn("connectivity lost",
			logging.String(logging.FieldEventType, "network_offline"),
			logging.String(logging.FieldImpact, "sync paused; work queues locally until connectivity returns"),
		)
	}
}

func (m *Monitor) checkReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		// Cannot build the probe at all; fail open to online.
		return true
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode < 500
}
