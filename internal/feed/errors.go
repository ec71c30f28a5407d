package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/maauso/jobfeed/internal/bookmark"
)

var (
	// ErrNetworkUnavailable is returned when the upstream cannot be reached.
	ErrNetworkUnavailable = errors.New("feed: network unavailable")

	// ErrServer matches every *ServerError.
	ErrServer = errors.New("feed: server error")

	// ErrMalformedResponse is returned when the upstream envelope is not a list of records.
	ErrMalformedResponse = errors.New("feed: malformed response")

	// ErrJobNotFound is returned when a bookmark toggle names an id that is
	// neither in the feed nor bookmarked.
	ErrJobNotFound = errors.New("feed: job not found")
)

// ServerError is a non-2xx upstream response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("feed: server error (status %d)", e.Status)
	}
	return fmt.Sprintf("feed: server error (status %d): %s", e.Status, e.Message)
}

// Is reports whether target is ErrServer.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// User-facing messages.
const (
	MsgNetwork      = "No response from server. Please check your internet connection."
	MsgServer       = "Server error"
	MsgMalformed    = "Unexpected data received from the server. Please try again."
	MsgStoreRead    = "Could not load your bookmarks. Please try again."
	MsgStoreWrite   = "Could not update your bookmarks. Please try again."
	MsgJobNotFound  = "Job not found"
	MsgFetchGeneric = "Failed to fetch jobs. Please try again."
)

// UserMessage maps err to text that tells apart missing connectivity, a
// server problem and unexpected data. A nil error yields "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var serverErr *ServerError
	switch {
	case errors.Is(err, ErrNetworkUnavailable), errors.Is(err, context.DeadlineExceeded):
		return MsgNetwork
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return MsgServer
	case errors.Is(err, ErrMalformedResponse):
		return MsgMalformed
	case errors.Is(err, bookmark.ErrStoreWrite):
		return MsgStoreWrite
	case errors.Is(err, bookmark.ErrStoreRead):
		return MsgStoreRead
	case errors.Is(err, ErrJobNotFound):
		return MsgJobNotFound
	default:
		return MsgFetchGeneric
	}
}
