// Package server provides the HTTP API over the job feed.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"github.com/maauso/jobfeed/internal/bookmark"
	"github.com/maauso/jobfeed/internal/feed"
	"github.com/maauso/jobfeed/internal/job"
)

// SetQueryRequest is the HTTP request body for changing the search text.
type SetQueryRequest struct {
	// Query is matched against job titles; empty shows every job.
	Query string `json:"query" validate:"max=200"`
}

// JobView is a job with its bookmark state.
type JobView struct {
	Job        job.Job `json:"job"`
	Bookmarked bool    `json:"bookmarked"`
}

// FeedResponse is the HTTP response describing the feed state.
type FeedResponse struct {
	// Count is the number of jobs loaded before filtering.
	Count int `json:"count"`
	// Query is the current search text.
	Query string `json:"query"`
	// Page is the number of pages loaded.
	Page      int  `json:"page"`
	Loading   bool `json:"loading"`
	Exhausted bool `json:"exhausted"`
	// Error is the user-facing message of the last failed fetch.
	Error string `json:"error,omitempty"`
	// Jobs is the filtered list in feed order.
	Jobs []JobView `json:"jobs"`
}

// JobDetailResponse is the HTTP response for a single job.
type JobDetailResponse struct {
	Job        job.Job     `json:"job"`
	Bookmarked bool        `json:"bookmarked"`
	Contact    job.Contact `json:"contact"`
}

// BookmarkToggleResponse is the HTTP response after toggling a bookmark.
type BookmarkToggleResponse struct {
	ID         string `json:"id"`
	Bookmarked bool   `json:"bookmarked"`
}

// BookmarksResponse is the HTTP response listing saved bookmarks.
type BookmarksResponse struct {
	Count     int                 `json:"count"`
	Bookmarks []bookmark.Bookmark `json:"bookmarks"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}

func newFeedResponse(s feed.State) FeedResponse {
	jobs := make([]JobView, len(s.Jobs))
	for i, j := range s.Jobs {
		jobs[i] = JobView{Job: j, Bookmarked: s.Bookmarked[j.ID]}
	}
	return FeedResponse{
		Count:     s.Count,
		Query:     s.Query,
		Page:      s.Page,
		Loading:   s.Loading,
		Exhausted: s.Exhausted,
		Error:     s.ErrMessage,
		Jobs:      jobs,
	}
}
