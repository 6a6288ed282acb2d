package core

import (
	"context"
	"time"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on the data layer.

// PublishStatusRepository persists court list status records.
type PublishStatusRepository interface {
	// Upsert creates a record for the natural key or resets the existing one to REQUESTED.
	// It reports whether a new record was inserted.
	Upsert(ctx context.Context, params model.UpsertPublishStatusParams) (*model.PublishStatusRecord, bool, error)
	GetByID(ctx context.Context, courtListID string) (*model.PublishStatusRecord, error)
	FindByCentreAndDate(ctx context.Context, params FindByCentreAndDateParams) ([]*model.PublishStatusRecord, error)
	// The milestone writes return the updated record, or nil when courtListId is unknown.
	MarkPublishCompleted(ctx context.Context, params MarkPublishParams) (*model.PublishStatusRecord, error)
	MarkFileUploaded(ctx context.Context, params MarkFileParams) (*model.PublishStatusRecord, error)
	RecordFileError(ctx context.Context, params RecordFileErrorParams) (*model.PublishStatusRecord, error)
}

// FindByCentreAndDateParams groups filters for a range lookup.
type FindByCentreAndDateParams struct {
	CourtCentreID string
	PublishDate   string
	CourtListType *model.CourtListType
}

// MarkPublishParams records the end of the publish branch.
type MarkPublishParams struct {
	CourtListID  string
	ErrorMessage *string
	Now          time.Time
}

// MarkFileParams records a successful upload of the rendered file.
type MarkFileParams struct {
	CourtListID string
	FileURL     string
	Now         time.Time
}

// RecordFileErrorParams records a PDF branch failure without touching file_status.
type RecordFileErrorParams struct {
	CourtListID  string
	ErrorMessage string
	Now          time.Time
}

// JobRepository defines the interface for job queue operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ReserveNext(ctx context.Context, jobType model.JobType, leaseSeconds int) (*model.Job, error)
	WaitForNotification(ctx context.Context, jobType model.JobType) error
	Heartbeat(ctx context.Context, jobID string, leaseSeconds int) (bool, error)
	Complete(ctx context.Context, id string) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
}

// DeleteOldJobsParams groups parameters for DeleteOldJobs to keep param count ≤3.
type DeleteOldJobsParams struct {
	Status    model.JobStatus
	MaxAge    time.Duration
	BatchSize int
}

// ReaperRepository defines the interface for job cleanup operations.
type ReaperRepository interface {
	// FailStalePendingJobs marks pending jobs older than maxAge as failed, at most batchSize per call.
	FailStalePendingJobs(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)

	// DeleteOldJobs deletes jobs with the given status older than maxAge.
	DeleteOldJobs(ctx context.Context, params DeleteOldJobsParams) (int64, error)
}
