// Package job provides the Job entity shown in the feed and the normaliser
// that builds it from raw upstream records. A normalised Job has a defined
// value for every field, so callers never branch on absence.
package job

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/jobfeed/internal/job/id"
)

// Tag is a coloured label attached to a posting.
type Tag struct {
	// Value is the label text.
	Value string `json:"value"`
	// ForegroundColor is the text colour, e.g. "#666".
	ForegroundColor string `json:"text_color"`
	// BackgroundColor is the badge colour, e.g. "#f0f0f0".
	BackgroundColor string `json:"bg_color"`
}

// ContactPreference is the employer's hint on how to be contacted.
type ContactPreference struct {
	// Preference is the upstream preference code (0 when unset).
	Preference int `json:"preference"`
	// WhatsAppLink is a deep link opening a chat with the employer.
	WhatsAppLink string `json:"whatsapp_link"`
	// CallStartTime is the start of the preferred call window.
	CallStartTime string `json:"preferred_call_start_time"`
	// CallEndTime is the end of the preferred call window.
	CallEndTime string `json:"preferred_call_end_time"`
}

// Job is a normalised job posting. It is treated as an immutable value:
// the feed and bookmarks hold copies, never pointers into each other.
type Job struct {
	// ID is the upstream identifier, stable across pages.
	ID string `json:"id" validate:"required"`
	// Title is the posting headline.
	Title string `json:"title" validate:"required"`
	// Company is the employer's display name.
	Company string `json:"company"`
	// Location is the place of work.
	Location string `json:"location"`
	// Salary is a display string, either upstream-provided or a min-max composite.
	Salary string `json:"salary"`
	// Phone is the contact number.
	Phone string `json:"phone"`
	// Description is the free-form posting body.
	Description string `json:"description"`
	// Requirements lists what the employer asks for.
	Requirements string `json:"requirements"`
	// EmploymentType is the working-hours category, e.g. "Full time".
	EmploymentType string `json:"type"`
	// Experience is the required experience level.
	Experience string `json:"experience"`
	// JobType is the contract or work-mode category.
	JobType string `json:"jobType"`
	// Qualification is the minimum education.
	Qualification string `json:"qualification"`
	// VacancyCount is the number of openings, never negative.
	VacancyCount int `json:"vacancies" validate:"min=0"`
	// CreatedAt is when the posting was created upstream.
	CreatedAt time.Time `json:"createdOn"`
	// UpdatedAt is when the posting was last changed upstream.
	UpdatedAt time.Time `json:"updatedOn"`
	// Category is the upstream job category.
	Category string `json:"jobCategory"`
	// Role is the upstream job role.
	Role string `json:"jobRole"`
	// ImageURL is the first creative, empty when none.
	ImageURL string `json:"image"`
	// Tags are ordered display labels, never nil.
	Tags []Tag `json:"tags"`
	// ContactPreference is the structured contact hint.
	ContactPreference ContactPreference `json:"contactPreference"`
}

var validate = validator.New()

// Validate reports whether the required fields are present.
// Normalize never fails, so records with a missing id or title reach the
// feed unchanged; Validate lets callers notice them.
func (j Job) Validate() error {
	return validate.Struct(j)
}

// Matches reports whether the title contains query, case-insensitively.
// The query is expected to be trimmed and lower-cased by the caller.
func (j Job) Matches(lowerQuery string) bool {
	return strings.Contains(strings.ToLower(j.Title), lowerQuery)
}

// Clone returns a copy that shares no slices with j.
func (j Job) Clone() Job {
	c := j
	c.Tags = make([]Tag, len(j.Tags))
	copy(c.Tags, j.Tags)
	return c
}

// UnmarshalJSON accepts blobs written by older clients, where the id may be
// a number and timestamps may lack a zone.
func (j *Job) UnmarshalJSON(data []byte) error {
	type alias Job
	aux := struct {
		ID        any `json:"id"`
		CreatedAt any `json:"createdOn"`
		UpdatedAt any `json:"updatedOn"`
		*alias
	}{alias: (*alias)(j)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	j.ID = id.Canonical(aux.ID)
	j.CreatedAt = parseTime(aux.CreatedAt)
	j.UpdatedAt = parseTime(aux.UpdatedAt)
	if j.Tags == nil {
		j.Tags = []Tag{}
	}
	return nil
}
