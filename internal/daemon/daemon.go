package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mediafetch/internal/config"
	"mediafetch/internal/delivery"
	"mediafetch/internal/fetch"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
	"mediafetch/internal/metrics"
	"mediafetch/internal/preflight"
	"mediafetch/internal/progress"
	"mediafetch/internal/workflow"
)

// LockFileName is created in the work directory while a daemon runs.
const LockFileName = "mediafetch.lock"

// Daemon coordinates the background services and enforces single-instance
// execution per work directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    jobs.Store
	workflow *workflow.Manager
	delivery *delivery.Service
	janitor  *delivery.Janitor
	metrics  *metrics.Recorder
	streamer progress.Streamer
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	bg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	WorkDir      string
	Store        string
	LockFilePath string
	Workflow     workflow.StatusSummary
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies. The daemon takes
// ownership of store and closes it in Close.
func New(cfg *config.Config, store jobs.Store, fetcher fetch.Fetcher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || fetcher == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, fetcher, and logger")
	}

	recorder := metrics.New()
	svc := delivery.NewService(store, cfg.Paths.WorkDir, logging.NewComponentLogger(logger, "delivery"), delivery.WithObserver(recorder))
	lockPath := filepath.Join(cfg.Paths.WorkDir, LockFileName)
	d := &Daemon{
		cfg:    cfg,
		logger: logger,
		store:  store,
		workflow: workflow.NewManager(cfg, store, fetcher, logging.NewComponentLogger(logger, "workflow"),
			workflow.WithObserver(recorder)),
		delivery: svc,
		janitor:  delivery.NewJanitor(svc, cfg.Retention(), cfg.SweepInterval()),
		metrics:  recorder,
		streamer: progress.Streamer{Store: store, Interval: cfg.ProgressInterval()},
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logging.NewComponentLogger(logger, "api-server"))
	return d, nil
}

// Start acquires the daemon lock, clears leftovers from a previous run, and
// launches the workflow manager, the janitor and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(d.cfg.Paths.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediafetch daemon instance is already using this work directory")
	}

	if removed, err := d.janitor.PurgeOrphans(ctx); err != nil {
		logging.WarnWithContext(d.logger, "orphan purge failed", "orphan_purge_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the work directory"),
			logging.String(logging.FieldImpact, "stale job directories remain on disk"),
		)
	} else if removed > 0 {
		d.logger.Info("removed orphaned job directories", logging.Int("count", removed))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		_ = d.workflow.Stop(context.Background())
		d.abortStart()
		return err
	}

	d.bg.Add(1)
	go func() {
		defer d.bg.Done()
		d.janitor.Run(d.ctx)
	}()

	d.running.Store(true)
	d.logger.Info("mediafetch daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

func (d *Daemon) abortStart() {
	d.cancel()
	d.ctx, d.cancel = nil, nil
	_ = d.lock.Unlock()
}

// Stop cancels in-flight jobs, shuts down the API server, and releases the
// daemon lock. Jobs get up to the configured shutdown timeout to record their
// terminal state.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout())
	defer cancel()
	if err := d.workflow.Stop(stopCtx); err != nil {
		d.logger.Warn("workflow stop incomplete", logging.Error(err))
	}

	d.cancel()
	d.api.stop()
	d.bg.Wait()
	d.ctx, d.cancel = nil, nil

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("mediafetch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr reports the address the API server is listening on, or "" when it is
// not listening.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// Handler exposes the API routes without a listener.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Workflow returns the workflow manager.
func (d *Daemon) Workflow() *workflow.Manager {
	return d.workflow
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		WorkDir:      d.cfg.Paths.WorkDir,
		Store:        d.cfg.Jobs.Store,
		LockFilePath: d.lockPath,
		Workflow:     d.workflow.Status(),
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
}
