package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	applog "github.com/mrlokans/mangashelf/internal/logger"
)

// Client owns the queue database and the backlite workers that drain the
// cloud echo queues. The CLI and the daemon open separate clients on the
// same file.
type Client struct {
	queue  *backlite.Client
	db     *sql.DB
	config Config
	log    *zap.Logger

	queues  []string
	running atomic.Bool
}

// QueueDBPath derives the queue database from the collection database:
// "data/mangashelf.db" becomes "data/mangashelf-tasks.db".
func QueueDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	// WAL lets a command enqueue while the daemon's workers hold the file.
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open queue database %s: %w", path, err)
	}
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func NewClient(mainDBPath string, cfg Config, log *zap.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	log = applog.OrNop(log).Named("tasks")

	path := QueueDBPath(mainDBPath)
	db, err := openQueueDB(path, cfg.Workers)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &zapLogger{log: log.Sugar()},
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("set up sync queue in %s: %w", path, err)
	}

	log.Debug("sync queue opened", zap.String("path", path))
	return &Client{queue: queue, db: db, config: cfg, log: log}, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
		c.queues = append(c.queues, q.Config().Name)
	}
}

// Start launches the workers and returns. A second call is ignored.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	c.log.Info("draining sync queues",
		zap.Strings("queues", c.queues),
		zap.Int("workers", c.config.Workers))
	c.queue.Start(ctx)
}

// Stop waits for in-flight tasks until ctx ends and reports whether every
// worker finished. Tasks a worker never claimed stay queued for the next start.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.CompareAndSwap(true, false) {
		return true
	}
	if !c.queue.Stop(ctx) {
		c.log.Warn("sync queue workers did not finish in time")
		return false
	}
	c.log.Info("sync queue workers stopped")
	return true
}

// Close closes the queue database. Stop the workers first.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

// Await polls the given tasks until none is pending or running, or ctx ends.
// It returns the IDs that are still outstanding.
func (c *Client) Await(ctx context.Context, ids []string, interval time.Duration) []string {
	outstanding := append([]string(nil), ids...)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		remaining := outstanding[:0]
		for _, id := range outstanding {
			status, err := c.Status(ctx, id)
			if err != nil || status == backlite.TaskStatusPending || status == backlite.TaskStatusRunning {
				remaining = append(remaining, id)
			}
		}
		outstanding = remaining
		if len(outstanding) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return outstanding
		case <-ticker.C:
		}
	}
}

// zapLogger implements backlite.Logger. backlite passes key/value pairs.
type zapLogger struct {
	log *zap.SugaredLogger
}

func (l *zapLogger) Info(message string, params ...any) {
	l.log.Debugw(message, params...)
}

func (l *zapLogger) Error(message string, params ...any) {
	l.log.Errorw(message, params...)
}
