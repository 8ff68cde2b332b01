package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"fieldsync/internal/adapters"
	"fieldsync/internal/alerts"
	"fieldsync/internal/config"
	"fieldsync/internal/daemon"
	"fieldsync/internal/engine"
	"fieldsync/internal/ipc"
	"fieldsync/internal/logging"
	"fieldsync/internal/network"
	"fieldsync/internal/preflight"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

// Run starts the fieldsync daemon runtime loop and blocks until a signal
// or an IPC stop request arrives.
func Run(cmdCtx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, result := range preflight.RunAll(signalCtx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg, logger)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	client := remote.NewClient(cfg)
	registry := adapters.NewRegistry(client, cfg.Backend.DeviceID)
	alerter := alerts.NewService(cfg)

	var monitor *network.Monitor
	eng := engine.New(cfg, store, registry, alerter, connectivitySource{&monitor}, logger)
	monitor = network.NewMonitor(cfg, logger, eng.HandleOnline)

	d, err := daemon.New(cfg, store, eng, monitor, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, cancel, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and queue database access"),
			logging.String(logging.FieldImpact, "queued records will not sync"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("fieldsync daemon shutting down")
	return nil
}

// connectivitySource defers to the monitor once it exists; the engine and
// monitor reference each other, so one side binds late.
type connectivitySource struct {
	monitor **network.Monitor
}

func (c connectivitySource) Online() bool {
	if c.monitor == nil || *c.monitor == nil {
		return true
	}
	return (*c.monitor).Online()
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
