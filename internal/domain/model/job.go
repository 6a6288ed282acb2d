package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType names the handler a queued job is routed to.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a queued job.
type JobStatus string

const (
	// JobTypePublish runs the court list publish pipeline.
	JobTypePublish JobType = "court_list_publish"

	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates a job has finished.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job exhausted its retries.
	JobStatusFailed JobStatus = "failed"
)

// ErrNoJobsAvailable is returned when no jobs are available for reservation.
var ErrNoJobsAvailable = errors.New("no jobs available")

// UnmarshalText accepts any case and surrounding whitespace.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

func (t JobType) Valid() bool {
	return t == JobTypePublish
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a queued unit of work.
type Job struct {
	ID             string          `json:"id"                         db:"id"`
	Type           JobType         `json:"type"                       db:"type"`
	Status         JobStatus       `json:"status"                     db:"status"`
	Priority       int             `json:"priority"                   db:"priority"`
	Payload        json.RawMessage `json:"payload"                    db:"payload"`
	Metadata       json.RawMessage `json:"metadata"                   db:"metadata"`
	CourtListID    *string         `json:"court_list_id,omitempty"    db:"court_list_id"`
	ScheduledAt    time.Time       `json:"scheduled_at"               db:"scheduled_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"       db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"     db:"completed_at"`
	RetryCount     int             `json:"retry_count"                db:"retry_count"`
	MaxRetries     int             `json:"max_retries"                db:"max_retries"`
	LastError      *string         `json:"last_error,omitempty"       db:"last_error"`
	LeaseExpiresAt *time.Time      `json:"lease_expires_at,omitempty" db:"lease_expires_at"`
	CreatedAt      time.Time       `json:"created_at"                 db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"                 db:"updated_at"`
}

// CreateJobRequest represents a request to enqueue a job.
type CreateJobRequest struct {
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Priority    int             `json:"priority,omitempty"`
	CourtListID *string         `json:"court_list_id,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	MaxRetries  int             `json:"max_retries"`
}

// MaxJobPriority is the highest priority a job may carry.
const MaxJobPriority = 100

// Validate checks the request before it is enqueued.
func (r *CreateJobRequest) Validate() error {
	switch {
	case !r.Type.Valid():
		return fmt.Errorf("invalid job type %q", r.Type)
	case len(r.Payload) == 0:
		return errors.New("payload is required")
	case r.Priority < 0 || r.Priority > MaxJobPriority:
		return fmt.Errorf("priority must be between 0 and %d", MaxJobPriority)
	case r.MaxRetries < 0:
		return errors.New("max retries must be >= 0")
	}
	return nil
}

// DecodePublishPayload decodes a publish job descriptor from a queued job.
func (j *Job) DecodePublishPayload() (PublishJobPayload, error) {
	var p PublishJobPayload
	if j == nil {
		return p, errors.New("job is nil")
	}
	if j.Type != JobTypePublish {
		return p, fmt.Errorf("unexpected job type %q", j.Type)
	}
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return p, fmt.Errorf("decode publish payload: %w", err)
	}
	return p, nil
}
