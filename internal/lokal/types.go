// Package lokal provides an HTTP client for the Lokal jobs API.
package lokal

// DefaultBaseURL is the public Lokal API host.
const DefaultBaseURL = "https://testapi.getlokalapp.com"

// jobsPath is the paginated job listing, queried with ?page=N.
const jobsPath = "/common/jobs"

// errorResponse is the body of a failed request. Only message is used.
type errorResponse struct {
	Message string `json:"message"`
}
