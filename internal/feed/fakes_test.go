package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maauso/jobfeed/internal/bookmark"
	"github.com/maauso/jobfeed/internal/job"
	"github.com/maauso/jobfeed/internal/storage"
)

var errWrite = errors.New("disk full")

func rawJob(id, title string) job.Raw {
	return job.Raw{"id": json.Number(id), "title": title}
}

// pageFetcher serves fixed pages and counts calls. Pages beyond the
// configured ones are empty.
type pageFetcher struct {
	mu    sync.Mutex
	pages map[int][]job.Raw
	errs  map[int]error
	calls []int
}

func newPageFetcher(pages ...[]job.Raw) *pageFetcher {
	f := &pageFetcher{pages: make(map[int][]job.Raw), errs: make(map[int]error)}
	for i, p := range pages {
		f.pages[i+1] = p
	}
	return f
}

func (f *pageFetcher) FetchPage(_ context.Context, page int) ([]job.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)
	if err := f.errs[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *pageFetcher) failPage(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[page] = err
}

func (f *pageFetcher) callLog() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.calls))
	copy(out, f.calls)
	return out
}

// fetchCall is one FetchPage call held open until the test replies.
type fetchCall struct {
	page  int
	reply chan fetchReply
}

type fetchReply struct {
	records []job.Raw
	err     error
}

// gatedFetcher blocks every FetchPage until the test answers it.
type gatedFetcher struct {
	calls chan fetchCall
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan fetchCall)}
}

func (f *gatedFetcher) FetchPage(ctx context.Context, page int) ([]job.Raw, error) {
	c := fetchCall{page: page, reply: make(chan fetchReply, 1)}
	select {
	case f.calls <- c:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	r := <-c.reply
	return r.records, r.err
}

func (f *gatedFetcher) next(t *testing.T) fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fetch")
		return fetchCall{}
	}
}

// async runs fn on a goroutine and returns a channel closed when it ends.
func async(fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	return done
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for operation")
	}
}

// switchStore is a MemoryStore whose writes can be made to fail.
type switchStore struct {
	*storage.MemoryStore

	mu        sync.Mutex
	failWrite bool
}

func (s *switchStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	fail := s.failWrite
	s.mu.Unlock()
	if fail {
		return errWrite
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *switchStore) setFailWrite(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = v
}

type harness struct {
	ctrl  *Controller
	repo  *bookmark.Repository
	cache *bookmark.Cache
	store *switchStore
}

func newHarness(t *testing.T, fetcher PageFetcher) *harness {
	t.Helper()
	store := &switchStore{MemoryStore: storage.NewMemoryStore()}
	repo := bookmark.NewRepository(store, "", nil)
	require.NoError(t, repo.Init(context.Background()))
	cache := bookmark.NewCache(repo, 2, nil)
	return &harness{
		ctrl:  NewController(fetcher, repo, cache, nil),
		repo:  repo,
		cache: cache,
		store: store,
	}
}

func titles(jobs []job.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Title
	}
	return out
}

func jobIDs(jobs []job.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}
