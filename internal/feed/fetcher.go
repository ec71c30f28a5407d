// Package feed drives the paginated job feed: fetching pages, filtering
// them by title and tracking which jobs are bookmarked.
package feed

import (
	"context"

	"github.com/maauso/jobfeed/internal/job"
)

// PageFetcher retrieves one page of raw job records.
// Pages are numbered from 1. An empty result means there are no more pages.
// Errors are ErrNetworkUnavailable, a *ServerError or ErrMalformedResponse.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]job.Raw, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, page int) ([]job.Raw, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, page int) ([]job.Raw, error) {
	return f(ctx, page)
}
