package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
)

var (
	// ErrNotFound indicates the job is unknown or was already delivered.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady indicates the job exists but has not completed.
	ErrNotReady = errors.New("job not ready")
	// ErrMissingArtifact indicates a complete job whose file is gone. Callers
	// report it as not found.
	ErrMissingArtifact = errors.New("artifact missing")
)

// Observer receives delivery events. Implementations must be safe for
// concurrent use.
type Observer interface {
	ArtifactDelivered(bytes int64)
	CleanupFailed()
	JobsSwept(count int)
}

type nopObserver struct{}

func (nopObserver) ArtifactDelivered(int64) {}
func (nopObserver) CleanupFailed() {}
func (nopObserver) JobsSwept(int) {}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers a delivery observer.
func WithObserver(observer Observer) Option {
	return func(s *Service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// Service grants consume-once access to completed artifacts.
type Service struct {
	store    jobs.Store
	workDir  string
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewService constructs a delivery service for artifacts under workDir.
func NewService(store jobs.Store, workDir string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		workDir:  workDir,
		logger:   logging.NewComponentLogger(logger, "delivery"),
		observer: nopObserver{},
		claimed:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Artifact is an open, claimed result file. Read it once, then Close it to
// purge the job.
type Artifact struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64

	file    *os.File
	path    string
	service *Service
	read    int64
	once    sync.Once
}

// Read implements io.Reader.
func (a *Artifact) Read(p []byte) (int, error) {
	n, err := a.file.Read(p)
	a.read += int64(n)
	return n, err
}

// WriteTo implements io.WriterTo so io.Copy can use the file's fast path.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := io.Copy(w, a.file)
	a.read += n
	return n, err
}

// Close releases the file and purges the record, the file, and the job
// directory. It always returns nil; cleanup failures are logged.
func (a *Artifact) Close() error {
	a.once.Do(func() {
		if err := a.file.Close(); err != nil {
			a.service.cleanupFailed(a.ID, "close artifact", err)
		}
		a.service.observer.ArtifactDelivered(a.read)
		a.service.purge(context.Background(), a.ID, a.path)
		a.service.release(a.ID)
		a.service.logger.Info("artifact delivered",
			logging.String(logging.FieldJobID, a.ID),
			logging.String(logging.FieldEventType, "artifact_delivered"),
			logging.String("filename", a.Filename),
			logging.Int64("bytes", a.read),
		)
	})
	return nil
}

// Claim opens the artifact for a complete job. Only one claim per job is ever
// granted; concurrent or later callers get ErrNotFound.
func (s *Service) Claim(ctx context.Context, id string) (*Artifact, error) {
	if !s.reserve(id) {
		return nil, ErrNotFound
	}
	granted := false
	defer func() {
		if !granted {
			s.release(id)
		}
	}()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if record.Status != jobs.StatusComplete {
		return nil, ErrNotReady
	}

	file, err := os.Open(record.ResultPath)
	if err != nil {
		logging.WarnWithContext(s.logger, "complete job has no artifact", "artifact_missing",
			logging.String(logging.FieldJobID, id),
			logging.String("path", record.ResultPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the work directory was modified outside mediafetch"),
			logging.String(logging.FieldImpact, "job is purged and reported as not found"),
		)
		s.purge(ctx, id, record.ResultPath)
		return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, id)
	}
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		_ = file.Close()
		s.purge(ctx, id, record.ResultPath)
		return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, id)
	}

	granted = true
	filename := record.ResultFilename
	if filename == "" {
		filename = filepath.Base(record.ResultPath)
	}
	return &Artifact{
		ID:          id,
		Filename:    filename,
		ContentType: ContentType(filename),
		Size:        info.Size(),
		file:        file,
		path:        record.ResultPath,
		service:     s,
	}, nil
}

// IsClaimed reports whether an artifact for id is currently being delivered.
func (s *Service) IsClaimed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.claimed[id]
	return ok
}

func (s *Service) reserve(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claimed[id]; ok {
		return false
	}
	s.claimed[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.claimed, id)
	s.mu.Unlock()
}

// purge deletes the record, the artifact, and the job directory. Each step is
// attempted regardless of earlier failures.
func (s *Service) purge(ctx context.Context, id, path string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.cleanupFailed(id, "delete record", err)
	}
	if path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.cleanupFailed(id, "delete artifact", err)
		}
	}
	if dir := jobs.JobDir(s.workDir, id); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			s.cleanupFailed(id, "delete job directory", err)
		}
	}
}

func (s *Service) cleanupFailed(id, step string, err error) {
	s.observer.CleanupFailed()
	logging.WarnWithContext(s.logger, "cleanup failed", "cleanup_failed",
		logging.String(logging.FieldJobID, id),
		logging.String("step", step),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check permissions on the work directory"),
		logging.String(logging.FieldImpact, "disk space is not reclaimed until the janitor runs"),
	)
}

// ContentType maps an artifact name to its media type.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
