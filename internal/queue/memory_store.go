package queue

import (
	"context"
	"sync"

	"github.com/nadmax/pulse/internal/job"
)

const DefaultMaxRecords = 10000

// MemoryStore keeps job records in process. Once more than maxRecords are held,
// the oldest completed or failed records are evicted; waiting and active records are never dropped.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]*job.Job
	order      []string
	maxRecords int
}

func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}

	return &MemoryStore{
		records:    make(map[string]*job.Job),
		maxRecords: maxRecords,
	}
}

func (s *MemoryStore) Save(_ context.Context, j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[j.ID]; !exists {
		s.order = append(s.order, j.ID)
	}
	s.records[j.ID] = j.Clone()
	s.evict()

	return nil
}

func (s *MemoryStore) evict() {
	for i := 0; len(s.records) > s.maxRecords && i < len(s.order); {
		id := s.order[i]
		if s.records[id].Terminal() {
			delete(s.records, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			continue
		}
		i++
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.records[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*job.Job, 0, len(s.order))
	for _, id := range s.order {
		jobs = append(jobs, s.records[id].Clone())
	}
	return jobs, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error {
	return nil
}
