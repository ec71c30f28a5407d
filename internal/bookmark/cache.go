package bookmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/jobfeed/internal/job"
)

// DefaultConcurrency bounds parallel existence checks.
const DefaultConcurrency = 4

// Cache maps job ids to their bookmark state. Entries are filled from the
// Store and changed only after the Store confirms a write.
type Cache struct {
	store  Store
	limit  int
	logger *slog.Logger

	mu    sync.RWMutex
	marks map[string]bool
}

// NewCache creates an empty Cache. concurrency < 1 selects DefaultConcurrency.
func NewCache(store Store, concurrency int, logger *slog.Logger) *Cache {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  store,
		limit:  concurrency,
		logger: logger,
		marks:  make(map[string]bool),
	}
}

// Refresh checks the ids of jobs that are not cached yet and merges the
// results. Cached entries are never evicted or overwritten. Failed checks
// are returned joined; the successful ones are still merged.
func (c *Cache) Refresh(ctx context.Context, jobs []job.Job) error {
	c.mu.RLock()
	ids := uniqueIDs(jobs, func(id string) bool {
		_, cached := c.marks[id]
		return !cached
	})
	c.mu.RUnlock()

	return c.check(ctx, ids, false)
}

// Resync re-checks every id in jobs and overwrites the cached state.
func (c *Cache) Resync(ctx context.Context, jobs []job.Job) error {
	return c.check(ctx, uniqueIDs(jobs, nil), true)
}

func (c *Cache) check(ctx context.Context, ids []string, overwrite bool) error {
	if len(ids) == 0 {
		return nil
	}

	results := make([]bool, len(ids))
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, id := range ids {
		g.Go(func() error {
			ok, err := c.store.Exists(ctx, id)
			if err != nil {
				errs[i] = fmt.Errorf("check bookmark %s: %w", id, err)
				return nil
			}
			results[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	merged := 0
	for i, id := range ids {
		if errs[i] != nil {
			continue
		}
		if _, cached := c.marks[id]; cached && !overwrite {
			continue
		}
		c.marks[id] = results[i]
		merged++
	}
	c.mu.Unlock()

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warn("bookmark check failed",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
	}
	c.logger.Debug("bookmark cache updated",
		slog.Int("checked", len(ids)),
		slog.Int("merged", merged),
		slog.Bool("overwrite", overwrite),
	)
	return err
}

// Toggle removes j if it is cached as bookmarked and saves it otherwise.
// The cached state flips only after the Store write succeeds; on failure
// the previous state is returned with the error.
func (c *Cache) Toggle(ctx context.Context, j job.Job) (bool, error) {
	current := c.IsBookmarked(j.ID)

	var err error
	if current {
		err = c.store.Remove(ctx, j.ID)
	} else {
		err = c.store.Save(ctx, j)
	}
	if err != nil {
		return current, err
	}

	c.Set(j.ID, !current)
	return !current, nil
}

// Set records a state change made outside Toggle.
func (c *Cache) Set(id string, bookmarked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marks[id] = bookmarked
}

// IsBookmarked reports the cached state; unknown ids are not bookmarked.
func (c *Cache) IsBookmarked(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.marks[id]
}

// Known reports whether id has a cached state.
func (c *Cache) Known(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.marks[id]
	return ok
}

// Snapshot returns a copy of the cached states.
func (c *Cache) Snapshot() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.marks))
	for id, v := range c.marks {
		out[id] = v
	}
	return out
}

// uniqueIDs returns the non-empty ids of jobs in order, once each,
// keeping only those accepted by keep (all when keep is nil).
func uniqueIDs(jobs []job.Job, keep func(string) bool) []string {
	seen := make(map[string]struct{}, len(jobs))
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if j.ID == "" {
			continue
		}
		if _, dup := seen[j.ID]; dup {
			continue
		}
		seen[j.ID] = struct{}{}
		if keep != nil && !keep(j.ID) {
			continue
		}
		ids = append(ids, j.ID)
	}
	return ids
}
