package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/courtlist-publisher/internal/core"
	domainjob "github.com/target/courtlist-publisher/internal/domain/job"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo            core.JobRepository        // Required: job repository
	DefaultLease    time.Duration             // Required unless LeasePolicy is set
	Logger          *slog.Logger              // Optional: structured logger
	LeasePolicy     *domainjob.LeasePolicy    // Optional: override default lease policy
	Notifier        domainjob.Notifier        // Optional: custom job availability notifier
	NotifierOptions domainjob.NotifierOptions // Optional: configure default notifier behaviour
}

// JobService drives the Postgres publish queue: enqueue, reservation with leases,
// completion and wake-up notifications for idle workers.
type JobService struct {
	repo        core.JobRepository
	leasePolicy *domainjob.LeasePolicy
	notifier    domainjob.Notifier
	logger      *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var leasePolicy *domainjob.LeasePolicy
	switch {
	case opts.LeasePolicy != nil:
		leasePolicy = opts.LeasePolicy
	case opts.DefaultLease > 0:
		var err error
		leasePolicy, err = domainjob.NewLeasePolicy(opts.DefaultLease)
		if err != nil {
			return nil, fmt.Errorf("create lease policy: %w", err)
		}
	default:
		return nil, errors.New("DefaultLease must be positive")
	}

	notifier := opts.Notifier
	if notifier == nil {
		options := opts.NotifierOptions
		if options.Waiter == nil {
			options.Waiter = opts.Repo
		}
		var err error
		notifier, err = domainjob.NewNotifier(options)
		if err != nil {
			return nil, fmt.Errorf("create job notifier: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "job_service")
	logger.Debug("JobService initialized", "default_lease", leasePolicy.Default())

	return &JobService{
		repo:        opts.Repo,
		leasePolicy: leasePolicy,
		notifier:    notifier,
		logger:      logger,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// LeasePolicy exposes the lease policy so runners can size heartbeats.
func (s *JobService) LeasePolicy() *domainjob.LeasePolicy {
	return s.leasePolicy
}

// Create enqueues a job and wakes local subscribers.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.notifier.Poke(job.Type)
	s.logger.DebugContext(ctx, "job created", "job_id", job.ID, "type", job.Type, "status", job.Status)

	return job, nil
}

// ReserveNext reserves the next available job of the given type for processing.
// It returns model.ErrNoJobsAvailable when the queue is empty.
func (s *JobService) ReserveNext(
	ctx context.Context,
	jobType model.JobType,
	lease time.Duration,
) (*model.Job, error) {
	seconds := s.leasePolicy.Seconds(lease)

	job, err := s.repo.ReserveNext(ctx, jobType, seconds)
	if err != nil {
		return nil, fmt.Errorf("reserve next job: %w", err)
	}

	s.logger.DebugContext(ctx, "job reserved", "job_id", job.ID, "type", jobType, "lease_seconds", seconds)
	return job, nil
}

// Subscribe creates a subscription for job notifications of the given type.
// Returns an unsubscribe function and a channel that receives notifications.
func (s *JobService) Subscribe(jobType model.JobType) (func(), <-chan struct{}) {
	return s.notifier.Subscribe(jobType)
}

// Heartbeat extends the lease on a running job.
func (s *JobService) Heartbeat(ctx context.Context, id string, extend time.Duration) (bool, error) {
	seconds := s.leasePolicy.Seconds(extend)
	updated, err := s.repo.Heartbeat(ctx, id, seconds)
	if err != nil {
		return false, fmt.Errorf("heartbeat job %s: %w", id, err)
	}
	if updated {
		s.logger.DebugContext(ctx, "job heartbeat updated", "job_id", id, "extend_seconds", seconds)
	}
	return updated, nil
}

// Complete marks a job as completed.
func (s *JobService) Complete(ctx context.Context, id string) (bool, error) {
	completed, err := s.repo.Complete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("complete job %s: %w", id, err)
	}
	if completed {
		s.logger.DebugContext(ctx, "job completed", "job_id", id)
	}
	return completed, nil
}

// Fail records errMsg and either requeues the job or fails it once retries are spent.
func (s *JobService) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	if errMsg == "" {
		return false, errors.New("error message required")
	}

	failed, err := s.repo.Fail(ctx, id, errMsg)
	if err != nil {
		return false, fmt.Errorf("fail job %s: %w", id, err)
	}
	if failed {
		s.logger.InfoContext(ctx, "job failed", "job_id", id, "error", errMsg)
	}
	return failed, nil
}

// GetByID returns a job by its ID.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job by id %s: %w", id, err)
	}
	return job, nil
}

// StopAllListeners stops all active job notification listeners.
// Call it during graceful shutdown to release listener goroutines.
func (s *JobService) StopAllListeners() {
	s.logger.Info("stopping all job listeners")
	s.notifier.StopAll()
}
