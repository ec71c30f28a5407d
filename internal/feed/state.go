package feed

import "github.com/maauso/jobfeed/internal/job"

// State is the observable view of a Controller.
type State struct {
	// Count is the size of the accumulated list before filtering.
	Count int `json:"count"`
	// Query is the current search text.
	Query string `json:"query"`
	// Jobs is the filtered list in feed order.
	Jobs []job.Job `json:"jobs"`
	// Bookmarked holds the known bookmark state per job id.
	Bookmarked map[string]bool `json:"bookmarked"`
	// Page is the number of pages loaded.
	Page      int  `json:"page"`
	Loading   bool `json:"loading"`
	Exhausted bool `json:"exhausted"`
	// Err is the last fetch error, nil after a successful fetch.
	Err error `json:"-"`
	// ErrMessage is UserMessage(Err).
	ErrMessage string `json:"error,omitempty"`
}
