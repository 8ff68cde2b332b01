package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// queueKey is the single logical key the serialized item list lives under.
const queueKey = "sync_queue"

// Store provides durable whole-list persistence for sync items, backed by a
// key/value table in SQLite. No partial-item API is exposed; all mutation
// goes through Load/modify/Save so the priority-order invariant stays easy
// to reason about. Field-device queues hold tens of items, so O(n) writes
// per mutation are acceptable.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.QueueDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS sync_state (
        key TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        updated_at TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sync_state table: %w", err)
	}

	return &Store{
		db:     db,
		path:   dbPath,
		logger: logging.NewComponentLogger(logger, "queue-store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the queue database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Load returns the persisted items in their saved order. It fails open:
// missing or corrupt data yields an empty queue rather than a startup
// failure, because losing the local queue is preferred over a device that
// cannot record new work.
func (s *Store) Load(ctx context.Context) ([]*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, queueKey)

	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load queue: %w", err)
	}

	items, err := decodeItems(value)
	if err != nil {
		s.logger.Warn("discarding unreadable queue record",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_record_corrupt"),
			logging.String(logging.FieldErrorHint, "previously queued work is lost; the device keeps recording"),
		)
		return nil, nil
	}
	return items, nil
}

// Save serializes the full item list and replaces the prior record in a
// single statement, so readers never observe a partially-written list.
func (s *Store) Save(ctx context.Context, items []*Item) error {
	value, err := encodeItems(items)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO sync_state (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		queueKey,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

// Clear removes the persisted queue record entirely.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_state WHERE key = ?`, queueKey); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	QueuedItems      int
	Error            string
}

// CheckHealth returns diagnostic information about the queue database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat queue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("queue database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping queue database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sync_state'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		items, err := s.Load(connCtx)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		health.QueuedItems = len(items)
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
