package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"fieldsync/internal/daemon"
	"fieldsync/internal/engine"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. The
// shutdown callback is invoked when a client requests daemon stop.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("FieldSync", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun fieldsync daemon stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func convertQueueItem(item *queue.Item) QueueItem {
	return QueueItem{
		ID:         item.ID,
		EntityType: string(item.EntityType),
		EntityID:   item.EntityID,
		Priority:   int(item.Priority),
		RetryCount: item.RetryCount,
		LastError:  item.LastError,
		Status:     string(item.Status),
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.IsOnline = status.Sync.IsOnline
	resp.IsSyncing = status.Sync.IsSyncing
	resp.TotalCount = status.Sync.TotalCount
	resp.PendingCount = status.Sync.PendingCount
	resp.FailedCount = status.Sync.FailedCount
	resp.CriticalCount = status.Sync.CriticalCount
	resp.LastSyncTime = status.Sync.LastSyncTime
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	if s.shutdown != nil {
		s.shutdown()
	}
	resp.Stopped = true
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := queue.ParseStatus(status)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	items, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = make([]QueueItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		resp.Items = append(resp.Items, convertQueueItem(item))
	}
	return nil
}

func (s *service) QueueClear(_ QueueClearRequest, resp *QueueClearResponse) error {
	s.log().Debug("queue clear requested")
	if err := s.daemon.ClearQueue(s.ctx); err != nil {
		return err
	}
	resp.Cleared = true
	s.log().Info("queue cleared via IPC",
		logging.String(logging.FieldEventType, "queue_clear"))
	return nil
}

func (s *service) Enqueue(req EnqueueRequest, resp *EnqueueResponse) error {
	entityType, ok := queue.ParseEntityType(req.EntityType)
	if !ok {
		return fmt.Errorf("unknown entity type %q", req.EntityType)
	}
	payload, err := queue.DecodePayload(entityType, req.Payload)
	if err != nil {
		return err
	}
	item, err := s.daemon.Enqueue(s.ctx, entityType, req.EntityID, payload, queue.Priority(req.Priority))
	if err != nil {
		return err
	}
	resp.Item = convertQueueItem(item)
	s.log().Info("item enqueued via IPC",
		logging.String(logging.FieldEventType, "item_queued"),
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEntityType, string(item.EntityType)))
	return nil
}

func (s *service) ForceSync(_ ForceSyncRequest, resp *ForceSyncResponse) error {
	s.log().Debug("force sync requested")
	result, err := s.daemon.ForceSync(s.ctx)
	if err != nil {
		if errors.Is(err, engine.ErrOffline) {
			resp.Message = "backend unreachable; cannot force sync while offline"
			return errors.New(resp.Message)
		}
		return err
	}
	resp.Attempted = result.Attempted
	resp.Completed = result.Completed
	resp.Failed = result.Failed
	resp.Remaining = result.Remaining
	resp.Skipped = result.Skipped
	if result.Skipped {
		resp.Message = "a sync pass is already in flight"
	}
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.TableExists = health.TableExists
	resp.IntegrityCheck = health.IntegrityCheck
	resp.QueuedItems = health.QueuedItems
	resp.Error = health.Error
	return err
}

func (s *service) TestAlert(_ TestAlertRequest, resp *TestAlertResponse) error {
	sent, message, err := s.daemon.TestAlert(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
