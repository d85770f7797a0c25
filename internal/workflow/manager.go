package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mediafetch/internal/config"
	"mediafetch/internal/fetch"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
)

// Manager supervises fetch workers.
type Manager struct {
	store   jobs.Store
	fetcher fetch.Fetcher
	logger  *slog.Logger

	workDir        string
	defaultBitrate string
	maxConcurrent  int
	maxQueued      int
	jobTimeout     time.Duration
	abandonGrace   time.Duration

	observer Observer
	slots    chan struct{}

	mu      sync.Mutex
	running bool
	baseCtx context.Context
	cancel  context.CancelCauseFunc
	tasks   map[string]*task
	wg      sync.WaitGroup
	lastErr error
}

type task struct {
	id       string
	kind     jobs.RequestKind
	cancel   context.CancelCauseFunc
	started  bool
	done     bool
	watchers int
	abandon  *time.Timer
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithObserver registers a lifecycle observer, typically the metrics recorder.
func WithObserver(observer Observer) ManagerOption {
	return func(m *Manager) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store jobs.Store, fetcher fetch.Fetcher, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:          store,
		fetcher:        fetcher,
		logger:         logging.NewComponentLogger(logger, "workflow"),
		workDir:        cfg.Paths.WorkDir,
		defaultBitrate: strings.TrimSpace(cfg.Fetcher.DefaultAudioBitrate),
		maxConcurrent:  cfg.Workflow.MaxConcurrent,
		maxQueued:      cfg.Workflow.MaxQueued,
		jobTimeout:     cfg.JobTimeout(),
		abandonGrace:   cfg.AbandonGrace(),
		observer:       nopObserver{},
		tasks:          make(map[string]*task),
	}
	if m.defaultBitrate == "" {
		m.defaultBitrate = DefaultAudioBitrate
	}
	if m.maxConcurrent > 0 {
		m.slots = make(chan struct{}, m.maxConcurrent)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start allows submissions. Workers inherit values from ctx and are canceled
// when ctx ends or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	m.baseCtx, m.cancel = context.WithCancelCause(ctx)
	m.running = true
	m.logger.Info("workflow started",
		logging.Int("max_concurrent", m.maxConcurrent),
		logging.Int("max_queued", m.maxQueued),
		logging.Duration("job_timeout", m.jobTimeout),
		logging.Duration("abandon_grace", m.abandonGrace),
	)
	return nil
}

// Stop rejects new submissions, cancels in-flight workers, and waits for them
// to record their terminal state or for ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel := m.cancel
	for _, t := range m.tasks {
		if t.abandon != nil {
			t.abandon.Stop()
			t.abandon = nil
		}
	}
	m.mu.Unlock()

	cancel(errShutdown)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("workflow stopped")
		return nil
	case <-ctx.Done():
		logging.WarnWithContext(m.logger, "workflow stop timed out; workers still running", "workflow_stop_timeout",
			logging.String(logging.FieldErrorHint, "raise workflow.shutdown_timeout_seconds"),
			logging.String(logging.FieldImpact, "in-flight jobs may leave partial files in the work directory"),
		)
		return ctx.Err()
	}
}

// Cancel stops a running job. The job ends in error with a cancellation detail.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	t, ok := m.tasks[id]
	m.mu.Unlock()
	if ok {
		t.cancel(errCanceledByRequest)
		return nil
	}
	record, err := m.store.Get(context.Background(), id)
	if err != nil {
		return err
	}
	if record == nil {
		return jobs.ErrNotFound
	}
	return ErrJobFinished
}

// Attach registers a progress watcher for id and returns the function that
// detaches it. When abandonment is enabled and the last watcher detaches, the
// job is canceled unless a watcher re-attaches within the grace period.
func (m *Manager) Attach(id string) func() {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return func() {}
	}
	t.watchers++
	if t.abandon != nil {
		t.abandon.Stop()
		t.abandon = nil
	}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { m.detach(t) })
	}
}

func (m *Manager) detach(t *task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.watchers--
	if t.watchers > 0 || t.done || m.abandonGrace <= 0 || !m.running {
		return
	}
	t.abandon = time.AfterFunc(m.abandonGrace, func() {
		m.mu.Lock()
		abandoned := t.watchers == 0 && !t.done
		m.mu.Unlock()
		if abandoned {
			m.logger.Info("canceling abandoned job",
				logging.String(logging.FieldJobID, t.id),
				logging.Duration("grace", m.abandonGrace),
			)
			t.cancel(errAbandoned)
		}
	})
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
