package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// QueueBackend names the Postgres job queue in job handles and metrics.
const QueueBackend = "postgres"

// TaskTriggerOptions groups dependencies for TaskTrigger.
type TaskTriggerOptions struct {
	Submitter            core.JobSubmitter // Required: executor entry point
	DefaultExternalCalls bool              // Used when a request omits makeExternalCalls
	Logger               *slog.Logger      // Optional: structured logger
}

// TaskTrigger turns an accepted publish request into a pipeline job. It never waits for the
// pipeline to run.
type TaskTrigger struct {
	submitter   core.JobSubmitter
	defaultCall bool
	logger      *slog.Logger
}

// NewTaskTrigger constructs a new TaskTrigger.
func NewTaskTrigger(opts TaskTriggerOptions) (*TaskTrigger, error) {
	if opts.Submitter == nil {
		return nil, errors.New("JobSubmitter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskTrigger{
		submitter:   opts.Submitter,
		defaultCall: opts.DefaultExternalCalls,
		logger:      logger.With("component", "task_trigger"),
	}, nil
}

// Trigger submits a publish job for rec. The request supplies the external-calls switch.
func (t *TaskTrigger) Trigger(
	ctx context.Context,
	rec *model.PublishStatusRecord,
	req *model.PublishRequest,
) (core.JobHandle, error) {
	if rec == nil {
		return core.JobHandle{}, errors.New("trigger: status record is required")
	}

	payload := model.PublishJobPayload{
		CourtListID:       rec.CourtListID,
		CourtCentreID:     rec.CourtCentreID,
		CourtListType:     rec.CourtListType,
		PublishDate:       rec.PublishDate,
		MakeExternalCalls: req.ExternalCalls(t.defaultCall),
	}

	handle, err := t.submitter.Submit(ctx, payload)
	if err != nil {
		return core.JobHandle{}, fmt.Errorf("submit publish job for %s: %w", rec.CourtListID, err)
	}

	t.logger.InfoContext(ctx, "publish job submitted",
		"court_list_id", rec.CourtListID,
		"job_id", handle.ID,
		"backend", handle.Backend,
		"make_external_calls", payload.MakeExternalCalls,
	)
	return handle, nil
}

// QueueSubmitter implements core.JobSubmitter on the Postgres job queue.
type QueueSubmitter struct {
	jobs       *JobService
	maxRetries int
}

var _ core.JobSubmitter = (*QueueSubmitter)(nil)

// NewQueueSubmitter returns a submitter that enqueues through jobs. maxRetries <= 0 keeps the
// queue default.
func NewQueueSubmitter(jobs *JobService, maxRetries int) *QueueSubmitter {
	return &QueueSubmitter{jobs: jobs, maxRetries: maxRetries}
}

// Submit inserts a court_list_publish job. Idle runners are woken by pg_notify.
func (s *QueueSubmitter) Submit(ctx context.Context, job model.PublishJobPayload) (core.JobHandle, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return core.JobHandle{}, fmt.Errorf("encode publish job: %w", err)
	}

	courtListID := job.CourtListID
	created, err := s.jobs.Create(ctx, &model.CreateJobRequest{
		Type:        model.JobTypePublish,
		Payload:     raw,
		CourtListID: &courtListID,
		MaxRetries:  s.maxRetries,
	})
	if err != nil {
		return core.JobHandle{}, err
	}

	return core.JobHandle{
		ID:          created.ID,
		Backend:     QueueBackend,
		SubmittedAt: created.CreatedAt,
	}, nil
}
