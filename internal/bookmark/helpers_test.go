package bookmark

import (
	"context"
	"errors"
	"sync"

	"github.com/maauso/jobfeed/internal/job"
	"github.com/maauso/jobfeed/internal/storage"
)

var errBoom = errors.New("boom")

// flakyStore wraps a MemoryStore and fails on demand.
type flakyStore struct {
	*storage.MemoryStore

	mu      sync.Mutex
	failGet bool
	failSet bool
	sets    int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return "", errBoom
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	fail := s.failSet
	s.sets++
	s.mu.Unlock()
	if fail {
		return errBoom
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *flakyStore) setFailures(get, set bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = get
	s.failSet = set
}

func (s *flakyStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func testJob(id, title string) job.Job {
	return job.Job{ID: id, Title: title, Company: "Acme", Tags: []job.Tag{}}
}
