package data

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"neighborgrid/internal/model"
)

// ErrRunNotFound is returned for unknown or expired run IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is a completed simulation kept for later retrieval.
type Run struct {
	ID        string
	Mode      string
	Policy    string
	CreatedAt time.Time

	FairRatePerKWh float64
	Homes          []model.Home
	Records        []model.HourRecord
}

type runEntry struct {
	run       *Run
	expiresAt time.Time
}

// RunStore keeps completed runs in memory for a fixed TTL.
type RunStore struct {
	mu    sync.RWMutex
	store map[string]*runEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewRunStore(ttl time.Duration) *RunStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RunStore{
		store: make(map[string]*runEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put assigns a fresh ID to run, stores it and returns the ID.
func (s *RunStore) Put(run *Run) string {
	run.ID = uuid.NewString()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[run.ID] = &runEntry{run: run, expiresAt: s.now().Add(s.ttl)}
	return run.ID
}

// Get retrieves a run if present and not expired.
func (s *RunStore) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.store[id]
	if !ok || s.now().After(e.expiresAt) {
		return nil, ErrRunNotFound
	}
	return e.run, nil
}

// Len counts stored runs, expired ones included until the next sweep.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}

// Sweep removes expired entries.
func (s *RunStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.store {
		if now.After(e.expiresAt) {
			delete(s.store, id)
		}
	}
}

// StartJanitor sweeps every interval until ctx is done.
func (s *RunStore) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
