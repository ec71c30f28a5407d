package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maauso/jobfeed/internal/bookmark"
	"github.com/maauso/jobfeed/internal/job"
)

// BookmarkRepository is the bookmark persistence the Controller reads
// from and removes through.
type BookmarkRepository interface {
	List(ctx context.Context) ([]bookmark.Bookmark, error)
	Find(ctx context.Context, id string) (bookmark.Bookmark, bool, error)
	Remove(ctx context.Context, id string) error
}

// Controller composes the paginator, the search filter and the bookmark
// cache into one observable feed.
//
// Methods are safe for concurrent use. Each blocks its caller for the
// duration of its I/O; no lock is held across a fetch or a store call,
// except that bookmark mutations are serialised with each other.
type Controller struct {
	paginator *Paginator
	filter    *Filter
	cache     *bookmark.Cache
	repo      BookmarkRepository
	logger    *slog.Logger

	// bookmarkMu serialises bookmark writes and cache resyncs.
	bookmarkMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewController creates a Controller. Call Initialize to load the first page.
func NewController(fetcher PageFetcher, repo BookmarkRepository, cache *bookmark.Cache, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		filter: NewFilter(),
		cache:  cache,
		repo:   repo,
		logger: logger,
		subs:   make(map[int]func(State)),
	}
	c.paginator = NewPaginator(fetcher, logger, c.notify)
	return c
}

// Initialize loads the first page and seeds the bookmark cache for it.
func (c *Controller) Initialize(ctx context.Context) error {
	res, err := c.paginator.Refresh(ctx)
	if err != nil || res.Stale {
		return err
	}
	c.seed(ctx, res, false)
	return nil
}

// LoadMore appends the next page and seeds the bookmark cache for the new
// jobs. It returns nil without fetching while a fetch is in flight or the
// feed is exhausted.
func (c *Controller) LoadMore(ctx context.Context) error {
	res, err := c.paginator.LoadNext(ctx)
	if err != nil || res.Skipped || res.Stale {
		return err
	}
	c.seed(ctx, res, false)
	return nil
}

// Refresh replaces the list with page 1 and re-checks its bookmark state.
// A LoadMore still in flight is discarded when it returns.
func (c *Controller) Refresh(ctx context.Context) error {
	res, err := c.paginator.Refresh(ctx)
	if err != nil || res.Stale {
		return err
	}
	c.seed(ctx, res, true)
	return nil
}

// seed updates the bookmark cache for a fetched page. Check failures are
// logged and leave the feed state untouched.
func (c *Controller) seed(ctx context.Context, res PageResult, resync bool) {
	var err error
	switch {
	case resync:
		c.bookmarkMu.Lock()
		err = c.cache.Resync(ctx, res.Fetched)
		c.bookmarkMu.Unlock()
	case res.Replaced:
		err = c.cache.Refresh(ctx, res.Fetched)
	default:
		err = c.cache.Refresh(ctx, res.Appended)
	}
	if err != nil {
		c.logger.Warn("bookmark state incomplete", slog.String("error", err.Error()))
	}
	c.notify()
}

// SetQuery changes the search text. It never performs I/O.
func (c *Controller) SetQuery(q string) {
	c.filter.SetQuery(q)
	c.logger.Debug("query changed", slog.String("query", q))
	c.notify()
}

// ToggleBookmark flips the bookmark state of id and returns the new state.
// The job is looked up in the feed first and then among the bookmarks.
// On a store failure the state is unchanged and the error is returned; the
// accumulated list is never modified.
func (c *Controller) ToggleBookmark(ctx context.Context, id string) (bool, error) {
	c.bookmarkMu.Lock()
	defer c.bookmarkMu.Unlock()

	j, ok := c.paginator.Find(id)
	if !ok {
		b, found, err := c.repo.Find(ctx, id)
		if err != nil {
			return c.cache.IsBookmarked(id), err
		}
		if !found {
			return false, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		j = b.Job
		// Known bookmark outside the feed: make sure Toggle removes it.
		c.cache.Set(id, true)
	}

	on, err := c.cache.Toggle(ctx, j)
	if err != nil {
		c.logger.Error("bookmark toggle failed",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)
		return on, err
	}

	c.logger.Info("bookmark toggled",
		slog.String("job_id", id),
		slog.Bool("bookmarked", on),
	)
	c.notify()
	return on, nil
}

// Bookmarks lists the saved snapshots in insertion order and marks them as
// bookmarked in the cache.
func (c *Controller) Bookmarks(ctx context.Context) ([]bookmark.Bookmark, error) {
	list, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range list {
		c.cache.Set(b.ID, true)
	}
	return list, nil
}

// RemoveBookmark deletes id from the bookmarks and clears its cached state
// so the feed agrees. Removing an unknown id is a no-op.
func (c *Controller) RemoveBookmark(ctx context.Context, id string) error {
	c.bookmarkMu.Lock()
	defer c.bookmarkMu.Unlock()

	if err := c.repo.Remove(ctx, id); err != nil {
		c.logger.Error("bookmark remove failed",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	c.cache.Set(id, false)
	c.notify()
	return nil
}

// Job returns the job with id from the feed, falling back to the saved
// bookmark snapshot.
func (c *Controller) Job(ctx context.Context, id string) (job.Job, error) {
	if j, ok := c.paginator.Find(id); ok {
		return j, nil
	}
	b, found, err := c.repo.Find(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	if !found {
		return job.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return b.Job, nil
}

// IsBookmarked reports the cached bookmark state of id.
func (c *Controller) IsBookmarked(id string) bool {
	return c.cache.IsBookmarked(id)
}

// State returns a snapshot of the observable state.
func (c *Controller) State() State {
	p := c.paginator.Progress()
	return State{
		Count:      len(p.Jobs),
		Query:      c.filter.Query(),
		Jobs:       c.filter.Apply(p.Jobs, p.Version),
		Bookmarked: c.cache.Snapshot(),
		Page:       p.Page,
		Loading:    p.Loading,
		Exhausted:  p.Exhausted,
		Err:        p.Err,
		ErrMessage: UserMessage(p.Err),
	}
}

// Subscribe registers fn to receive the state after every change.
// fn runs on the goroutine that made the change and must not block.
// The returned func unregisters fn.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) notify() {
	c.subMu.Lock()
	if len(c.subs) == 0 {
		c.subMu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	s := c.State()
	for _, fn := range fns {
		fn(s)
	}
}
