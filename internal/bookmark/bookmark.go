// Package bookmark persists job snapshots the user saved and keeps an
// in-memory view of which ids are bookmarked.
package bookmark

import (
	"encoding/json"

	"github.com/maauso/jobfeed/internal/job"
	"github.com/maauso/jobfeed/internal/job/id"
)

// Bookmark is a snapshot of a job taken when it was saved.
// The snapshot is never refreshed from later feed pages.
type Bookmark struct {
	ID  string  `json:"id"`
	Job job.Job `json:"jobData"`
}

// New snapshots j.
func New(j job.Job) Bookmark {
	return Bookmark{ID: j.ID, Job: j.Clone()}
}

// UnmarshalJSON accepts numeric ids written by older clients.
func (b *Bookmark) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID  any     `json:"id"`
		Job job.Job `json:"jobData"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	b.ID = id.Canonical(aux.ID)
	b.Job = aux.Job
	if b.ID == "" {
		b.ID = b.Job.ID
	}
	return nil
}
