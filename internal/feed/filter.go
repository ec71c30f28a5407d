package feed

import (
	"strings"
	"sync"

	"github.com/maauso/jobfeed/internal/job"
)

// Filter narrows the accumulated list to titles containing the query.
// Matching is case-insensitive on the trimmed query; a blank query keeps
// every job. The last result is memoised on (list version, length, query).
type Filter struct {
	mu    sync.Mutex
	query string

	memo struct {
		valid   bool
		version uint64
		length  int
		query   string
		result  []job.Job
	}
	computed int
}

// NewFilter creates a Filter with an empty query.
func NewFilter() *Filter {
	return &Filter{}
}

// SetQuery replaces the query. It never performs I/O.
func (f *Filter) SetQuery(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = q
}

// Query returns the query as set.
func (f *Filter) Query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

// Apply filters jobs, which must be the list identified by version.
// The returned slice must not be modified.
func (f *Filter) Apply(jobs []job.Job, version uint64) []job.Job {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := normalizeQuery(f.query)
	m := &f.memo
	if m.valid && m.version == version && m.length == len(jobs) && m.query == q {
		return m.result
	}

	result := FilterJobs(jobs, q)
	f.computed++
	m.valid, m.version, m.length, m.query, m.result = true, version, len(jobs), q, result
	return result
}

// FilterJobs returns the jobs whose title contains query, in order.
func FilterJobs(jobs []job.Job, query string) []job.Job {
	q := normalizeQuery(query)
	if q == "" {
		return jobs
	}
	out := make([]job.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Matches(q) {
			out = append(out, j)
		}
	}
	return out
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
