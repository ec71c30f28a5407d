package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/maauso/jobfeed/internal/job/id"
)

// Placeholders used when the upstream record lacks a display field.
const (
	DefaultCompany        = "Company not specified"
	DefaultLocation       = "Location not specified"
	DefaultPhone          = "Phone not available"
	DefaultDescription    = "No description available"
	DefaultRequirements   = "No requirements specified"
	DefaultEmploymentType = "Full time"
	DefaultExperience     = "Experience not specified"
	DefaultNotSpecified   = "Not specified"

	DefaultTagForeground = "#666"
	DefaultTagBackground = "#f0f0f0"

	// undefinedNumber is what the composite salary shows for a missing bound.
	undefinedNumber = "undefined"
)

// ErrMalformedEnvelope is returned when a response body is not an object
// holding a "results" list of records.
var ErrMalformedEnvelope = errors.New("job: malformed response envelope")

// FieldRule maps one upstream path to one Job field.
type FieldRule struct {
	// Field is the Job field name.
	Field string
	// Path is the upstream location, see Raw.Lookup.
	Path string
	// Default documents what the field holds when the path is missing.
	Default string

	apply func(j *Job, v any, present bool, r Raw)
}

// fieldRules is the complete normalisation table, evaluated top to bottom.
var fieldRules = []FieldRule{
	{Field: "ID", Path: "id", apply: func(j *Job, v any, _ bool, _ Raw) { j.ID = id.Canonical(v) }},
	{Field: "Title", Path: "title", apply: func(j *Job, v any, _ bool, _ Raw) { j.Title = stringify(v) }},
	text("Company", "company_name", DefaultCompany, func(j *Job) *string { return &j.Company }),
	text("Location", "primary_details.Place", DefaultLocation, func(j *Job) *string { return &j.Location }),
	{Field: "Salary", Path: "primary_details.Salary", Default: "₹<salary_min> - ₹<salary_max>", apply: applySalary},
	text("Phone", "whatsapp_no", DefaultPhone, func(j *Job) *string { return &j.Phone }),
	text("Description", "other_details", DefaultDescription, func(j *Job) *string { return &j.Description }),
	text("Requirements", "contentV3.V3.[field_key=Other details].field_value", DefaultRequirements,
		func(j *Job) *string { return &j.Requirements }),
	text("EmploymentType", "job_hours", DefaultEmploymentType, func(j *Job) *string { return &j.EmploymentType }),
	text("Experience", "primary_details.Experience", DefaultExperience, func(j *Job) *string { return &j.Experience }),
	text("JobType", "primary_details.Job_Type", DefaultNotSpecified, func(j *Job) *string { return &j.JobType }),
	text("Qualification", "primary_details.Qualification", DefaultNotSpecified,
		func(j *Job) *string { return &j.Qualification }),
	{Field: "VacancyCount", Path: "openings_count", Default: "0", apply: func(j *Job, v any, ok bool, _ Raw) {
		if ok {
			j.VacancyCount = max(toInt(v), 0)
		}
	}},
	{Field: "CreatedAt", Path: "created_on", Default: "zero time", apply: func(j *Job, v any, _ bool, _ Raw) {
		j.CreatedAt = parseTime(v)
	}},
	{Field: "UpdatedAt", Path: "updated_on", Default: "zero time", apply: func(j *Job, v any, _ bool, _ Raw) {
		j.UpdatedAt = parseTime(v)
	}},
	text("Category", "job_category", DefaultNotSpecified, func(j *Job) *string { return &j.Category }),
	text("Role", "job_role", DefaultNotSpecified, func(j *Job) *string { return &j.Role }),
	text("ImageURL", "creatives.0.file", "", func(j *Job) *string { return &j.ImageURL }),
	{Field: "Tags", Path: "job_tags", Default: "[]", apply: applyTags},
	{Field: "ContactPreference", Path: "contact_preference", Default: "{}", apply: applyContact},
}

func text(field, path, def string, dst func(*Job) *string) FieldRule {
	return FieldRule{
		Field:   field,
		Path:    path,
		Default: def,
		apply: func(j *Job, v any, ok bool, _ Raw) {
			if ok {
				*dst(j) = stringify(v)
				return
			}
			*dst(j) = def
		},
	}
}

// FieldRules returns a copy of the normalisation table for inspection.
func FieldRules() []FieldRule {
	out := make([]FieldRule, len(fieldRules))
	copy(out, fieldRules)
	return out
}

// Normalize builds a Job from one upstream record. Missing optional fields
// take their documented default; missing id or title stay empty.
func Normalize(r Raw) Job {
	j := Job{Tags: []Tag{}}
	for _, rule := range fieldRules {
		v, found := r.Lookup(rule.Path)
		rule.apply(&j, v, found && truthy(v), r)
	}
	return j
}

// NormalizeAll normalises records in order.
func NormalizeAll(records []Raw) []Job {
	out := make([]Job, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r))
	}
	return out
}

// applySalary prefers the upstream display string and otherwise composes
// "₹min - ₹max". A missing bound renders as "undefined"; callers rely on
// that exact text.
func applySalary(j *Job, v any, ok bool, r Raw) {
	if ok {
		j.Salary = stringify(v)
		return
	}
	j.Salary = fmt.Sprintf("₹%s - ₹%s", bound(r, "salary_min"), bound(r, "salary_max"))
}

func bound(r Raw, key string) string {
	v, found := r.Lookup(key)
	switch {
	case !found:
		return undefinedNumber
	case v == nil:
		return "null"
	default:
		return stringify(v)
	}
}

func applyTags(j *Job, v any, ok bool, _ Raw) {
	list, isList := v.([]any)
	if !ok || !isList {
		return
	}
	for _, item := range list {
		obj, isObj := item.(map[string]any)
		if !isObj {
			continue
		}
		tag := Tag{
			Value:           stringify(obj["value"]),
			ForegroundColor: DefaultTagForeground,
			BackgroundColor: DefaultTagBackground,
		}
		if c := obj["text_color"]; truthy(c) {
			tag.ForegroundColor = stringify(c)
		}
		if c := obj["bg_color"]; truthy(c) {
			tag.BackgroundColor = stringify(c)
		}
		j.Tags = append(j.Tags, tag)
	}
}

func applyContact(j *Job, v any, ok bool, _ Raw) {
	obj, isObj := v.(map[string]any)
	if !ok || !isObj {
		return
	}
	j.ContactPreference = ContactPreference{
		Preference:    toInt(obj["preference"]),
		WhatsAppLink:  stringify(obj["whatsapp_link"]),
		CallStartTime: stringify(obj["preferred_call_start_time"]),
		CallEndTime:   stringify(obj["preferred_call_end_time"]),
	}
}

// DecodeEnvelope reads a page response of the form {"results": [...]}.
// Individual records are never rejected for missing fields; only a body
// that is not an object with a results list of objects fails.
func DecodeEnvelope(body io.Reader) ([]Raw, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	results, ok := envelope["results"]
	if !ok || results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrMalformedEnvelope)
	}

	list, ok := results.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: results is %T, not a list", ErrMalformedEnvelope, results)
	}

	records := make([]Raw, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: results[%d] is %T, not an object", ErrMalformedEnvelope, i, item)
		}
		records = append(records, Raw(obj))
	}
	return records, nil
}
