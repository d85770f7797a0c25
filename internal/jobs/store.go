package jobs

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the single source of truth for job records. Implementations must be
// safe for concurrent use and must never expose a partially written record.
type Store interface {
	// Create inserts a new record in the starting status.
	Create(ctx context.Context, req Request) (*Record, error)
	// Get returns a snapshot of the record, or nil when the id is absent.
	Get(ctx context.Context, id string) (*Record, error)
	// Update applies mutate to a copy of the record and commits it atomically
	// after validating the result against the state machine.
	Update(ctx context.Context, id string, mutate func(*Record) error) (*Record, error)
	// Delete removes the record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// List returns snapshots ordered by creation time, optionally filtered by status.
	List(ctx context.Context, statuses ...Status) ([]*Record, error)
	Close() error
}

// NewID returns a random 128-bit identifier rendered as text.
func NewID() string {
	return uuid.NewString()
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.URL) == "" {
		return fmt.Errorf("create job: url is required")
	}
	if req.Kind != KindAudio && req.Kind != KindVideo {
		return fmt.Errorf("create job: unsupported kind %q", req.Kind)
	}
	return nil
}

// MemoryStore keeps records in a map guarded by a RWMutex. Store access is
// serialized; the mutation callback must not perform I/O.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	closed  bool
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, req Request) (*Record, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStoreClosed
	}
	id := NewID()
	for s.records[id] != nil {
		id = NewID()
	}
	record := newRecord(id, req, s.now())
	s.records[id] = record
	return record.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id].Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, mutate func(*Record) error) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if current.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTerminal, id, current.Status)
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := applyMutation(current, next, s.now()); err != nil {
		return nil, err
	}
	s.records[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, statuses ...Status) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if len(statuses) > 0 && !slices.Contains(statuses, record.Status) {
			continue
		}
		out = append(out, record.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Close releases all records. Later calls to Create fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = make(map[string]*Record)
	return nil
}
