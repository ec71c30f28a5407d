package feed

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/maauso/jobfeed/internal/job"
)

// PageResult describes what a LoadNext or Refresh call did.
type PageResult struct {
	// Fetched is the normalised page, empty when nothing was fetched.
	Fetched []job.Job
	// Appended is the part of Fetched added to the list by LoadNext.
	Appended []job.Job
	// Replaced is true when Refresh replaced the list with Fetched.
	Replaced bool
	// Skipped is true when no fetch was made: one was already in flight or
	// the feed is exhausted.
	Skipped bool
	// Stale is true when the result arrived after a newer Refresh and was discarded.
	Stale bool
}

// Progress is a point-in-time view of a Paginator.
type Progress struct {
	Jobs       []job.Job
	Page       int // pages loaded into Jobs
	Loading    bool
	Exhausted  bool
	Generation uint64
	Version    uint64 // bumped on every change to Jobs
	Err        error
}

// Paginator fetches pages in order and accumulates them.
//
// At most one fetch of the current generation is outstanding: LoadNext is a
// no-op while one is in flight and once a page comes back empty. Refresh is
// never suppressed. It starts a new generation, so results of older fetches
// are dropped when they arrive. A failed fetch leaves the list and cursor
// unchanged.
type Paginator struct {
	fetcher  PageFetcher
	logger   *slog.Logger
	onChange func()

	mu         sync.Mutex
	jobs       []job.Job
	next       int
	exhausted  bool
	inFlight   bool
	generation uint64
	version    uint64
	err        error
}

// NewPaginator creates a Paginator positioned before page 1.
// onChange, if non-nil, is called after every state transition without
// any lock held.
func NewPaginator(fetcher PageFetcher, logger *slog.Logger, onChange func()) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &Paginator{
		fetcher:  fetcher,
		logger:   logger,
		onChange: onChange,
		next:     1,
	}
}

// LoadNext fetches the page after the last one loaded and appends it.
func (p *Paginator) LoadNext(ctx context.Context) (PageResult, error) {
	p.mu.Lock()
	if p.inFlight || p.exhausted {
		inFlight, exhausted := p.inFlight, p.exhausted
		p.mu.Unlock()
		p.logger.Debug("load next skipped",
			slog.Bool("in_flight", inFlight),
			slog.Bool("exhausted", exhausted),
		)
		return PageResult{Skipped: true}, nil
	}
	p.inFlight = true
	p.err = nil
	gen, page := p.generation, p.next
	p.mu.Unlock()
	p.onChange()

	records, err := p.fetcher.FetchPage(ctx, page)
	jobs := p.normalize(records, page)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug("stale page discarded",
			slog.Int("page", page),
			slog.Uint64("generation", gen),
		)
		return PageResult{Stale: true}, nil
	}

	p.inFlight = false
	if err != nil {
		p.err = err
		p.mu.Unlock()
		p.logger.Error("page fetch failed",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		p.onChange()
		return PageResult{}, err
	}

	if len(jobs) == 0 {
		p.exhausted = true
	} else {
		p.jobs = append(p.jobs, jobs...)
		p.next++
		p.version++
	}
	total, exhausted := len(p.jobs), p.exhausted
	p.mu.Unlock()

	p.logger.Info("page loaded",
		slog.Int("page", page),
		slog.Int("count", len(jobs)),
		slog.Int("total", total),
		slog.Bool("exhausted", exhausted),
	)
	p.onChange()
	return PageResult{Fetched: jobs, Appended: jobs}, nil
}

// Refresh fetches page 1 and replaces the list with it.
func (p *Paginator) Refresh(ctx context.Context) (PageResult, error) {
	p.mu.Lock()
	p.generation++
	p.inFlight = true
	p.err = nil
	gen := p.generation
	p.mu.Unlock()
	p.onChange()

	records, err := p.fetcher.FetchPage(ctx, 1)
	jobs := p.normalize(records, 1)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug("stale refresh discarded", slog.Uint64("generation", gen))
		return PageResult{Stale: true}, nil
	}

	p.inFlight = false
	if err != nil {
		p.err = err
		p.mu.Unlock()
		p.logger.Error("refresh failed",
			slog.Uint64("generation", gen),
			slog.String("error", err.Error()),
		)
		p.onChange()
		return PageResult{}, err
	}

	p.jobs = jobs
	p.exhausted = len(jobs) == 0
	p.next = 2
	if p.exhausted {
		p.next = 1
	}
	p.version++
	p.mu.Unlock()

	p.logger.Info("feed refreshed",
		slog.Uint64("generation", gen),
		slog.Int("count", len(jobs)),
	)
	p.onChange()
	return PageResult{Fetched: jobs, Replaced: true}, nil
}

// Progress returns a snapshot. Jobs is a copy.
func (p *Paginator) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Progress{
		Jobs:       slices.Clone(p.jobs),
		Page:       p.next - 1,
		Loading:    p.inFlight,
		Exhausted:  p.exhausted,
		Generation: p.generation,
		Version:    p.version,
		Err:        p.err,
	}
}

// Find returns the first accumulated job with id.
func (p *Paginator) Find(id string) (job.Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, j := range p.jobs {
		if j.ID == id {
			return j.Clone(), true
		}
	}
	return job.Job{}, false
}

func (p *Paginator) normalize(records []job.Raw, page int) []job.Job {
	jobs := job.NormalizeAll(records)
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			p.logger.Warn("job failed validation",
				slog.Int("page", page),
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return jobs
}
