package models

import "time"

// JobStatus is the lifecycle state of an async generation job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobTypeVideo is the only job type tracked asynchronously today.
const JobTypeVideo = "video"

// IsTerminal reports whether the status absorbs all further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Progress maps a status to the fixed percentage shown to pollers.
// These are display constants, not measured progress from the provider.
func Progress(s JobStatus) int {
	switch s {
	case JobStatusPending:
		return 10
	case JobStatusProcessing:
		return 50
	case JobStatusCompleted:
		return 100
	default:
		return 0
	}
}

// VideoParams is the immutable copy of a video request as it was sent upstream,
// i.e. after duration snapping.
type VideoParams struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	TenantID        string `json:"tenant_id"`
}

// JobResult is the structured payload of a completed job. Exactly one field is set.
type JobResult struct {
	VideoURL          string `json:"video_url,omitempty"`
	ProviderReference string `json:"provider_reference,omitempty"`
}

// Job tracks one async video generation. The API returns job_id on
// POST /v1/generate/video; the client polls GET /v1/jobs/{job_id} until
// status is completed or failed.
type Job struct {
	ID           string      `db:"id"            json:"id"`
	TenantID     string      `db:"tenant_id"     json:"tenant_id"`
	Type         string      `db:"type"          json:"type"`
	Status       JobStatus   `db:"status"        json:"status"`
	Params       VideoParams `db:"-"             json:"params"`
	WebhookURL   string      `db:"webhook_url"   json:"webhook_url,omitempty"`
	Result       *JobResult  `db:"result"        json:"result,omitempty"`
	ErrorMessage *string     `db:"error_message" json:"error_message,omitempty"`
	StatusText   *string     `db:"status_text"   json:"status_text,omitempty"`
	StartedAt    *time.Time  `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time  `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time   `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"    json:"updated_at"`
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	c.ErrorMessage = cloneString(j.ErrorMessage)
	c.StatusText = cloneString(j.StatusText)
	c.StartedAt = cloneTime(j.StartedAt)
	c.CompletedAt = cloneTime(j.CompletedAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
