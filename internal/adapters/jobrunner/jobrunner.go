// Package jobrunner executes queued court list publish jobs from the Postgres job queue.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/observability/metrics"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
	"github.com/target/courtlist-publisher/internal/pipeline"
	"github.com/target/courtlist-publisher/internal/service"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPollInterval = 30 * time.Second
	finalizeTimeout     = 10 * time.Second
)

// Executor runs one publish job to completion.
type Executor interface {
	Execute(ctx context.Context, job model.PublishJobPayload) pipeline.Execution
}

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	Jobs     *service.JobService // Required
	Pipeline Executor            // Required
	Logger   *slog.Logger
	Metrics  statsd.Sink

	// Job processing settings
	Lease        time.Duration // per-job lease duration; defaults to the queue's lease policy
	Concurrency  int           // number of worker goroutines; defaults to 1
	PollInterval time.Duration // fallback poll when no notification arrives; defaults to 30s
}

// Runner pulls publish jobs and runs the pipeline for each.
type Runner struct {
	jobs     *service.JobService
	pipeline Executor
	logger   *slog.Logger
	metrics  statsd.Sink
	lease    time.Duration
	workers  int
	poll     time.Duration
}

// NewRunner constructs a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job service is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lease := opts.Lease
	if lease <= 0 {
		lease = opts.Jobs.LeasePolicy().Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &Runner{
		jobs:     opts.Jobs,
		pipeline: opts.Pipeline,
		logger:   logger.With("component", "publish_runner"),
		metrics:  opts.Metrics,
		lease:    lease,
		workers:  workers,
		poll:     poll,
	}, nil
}

// Run starts worker goroutines and processes jobs until the context is cancelled.
// The first worker error stops every worker.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting publish runner", "workers", r.workers, "lease", r.lease)

	unsub, notify := r.jobs.Subscribe(model.JobTypePublish)
	defer unsub()

	g, gctx := errgroup.WithContext(ctx)
	for range r.workers {
		g.Go(func() error { return r.workerLoop(gctx, notify) })
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

func (r *Runner) workerLoop(ctx context.Context, notify <-chan struct{}) error {
	for ctx.Err() == nil {
		processed, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		if !processed && !r.wait(ctx, notify) {
			return nil
		}
	}
	return nil
}

// RunOnce reserves and processes at most one job. It reports whether a job was processed.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	job, err := r.jobs.ReserveNext(ctx, model.JobTypePublish, r.lease)
	switch {
	case err == nil && job != nil:
		r.processJob(ctx, job)
		return true, nil
	case err == nil, errors.Is(err, model.ErrNoJobsAvailable):
		return false, nil
	case ctx.Err() != nil:
		return false, nil
	default:
		return false, fmt.Errorf("reserve next: %w", err)
	}
}

func (r *Runner) wait(ctx context.Context, notify <-chan struct{}) bool {
	timer := time.NewTimer(r.poll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-notify:
		return true
	case <-timer.C:
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, job *model.Job) {
	start := time.Now()
	logger := r.logger.With("job_id", job.ID, "retry_count", job.RetryCount)
	emit := func(transition, result string, err error) {
		metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
			JobType:    string(job.Type),
			Backend:    service.QueueBackend,
			Transition: transition,
			Result:     result,
			Duration:   time.Since(start),
			Err:        err,
		})
	}
	emit(metrics.TransitionReserved, metrics.ResultSuccess, nil)

	payload, err := job.DecodePublishPayload()
	if err != nil {
		logger.ErrorContext(ctx, "undecodable publish job", "error", err)
		fctx, cancel := finalizeContext(ctx)
		defer cancel()
		if _, ferr := r.jobs.Fail(fctx, job.ID, err.Error()); ferr != nil {
			logger.ErrorContext(ctx, "fail job error", "error", ferr, "original_error", err)
		}
		emit(metrics.TransitionFailed, metrics.ResultError, err)
		return
	}

	stop := r.startHeartbeat(ctx, job.ID, logger)
	exec := r.pipeline.Execute(ctx, payload)
	stop()

	logger.InfoContext(ctx, "publish job executed",
		"court_list_id", exec.CourtListID,
		"aborted", exec.Aborted,
		"fetch", exec.Fetch.Outcome,
		"publish", exec.Publish.Outcome,
		"file", exec.File.Outcome,
		"interrupted", exec.Interrupted,
		"duration", time.Since(start),
	)

	fctx, cancel := finalizeContext(ctx)
	defer cancel()
	if exec.Interrupted {
		// The lease is released through Fail so the job is retried within max_retries.
		reason := fmt.Errorf("publish run interrupted: %w", context.Cause(ctx))
		logger.WarnContext(ctx, "publish job interrupted, returning it to the queue", "error", reason)
		if _, ferr := r.jobs.Fail(fctx, job.ID, reason.Error()); ferr != nil {
			logger.ErrorContext(ctx, "fail job error", "error", ferr, "original_error", reason)
		}
		emit(metrics.TransitionFailed, metrics.ResultError, reason)
		return
	}

	completed, err := r.jobs.Complete(fctx, job.ID)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "complete job error", "error", err)
		emit(metrics.TransitionCompleted, metrics.ResultError, err)
	case completed:
		emit(metrics.TransitionCompleted, metrics.ResultSuccess, nil)
	default:
		emit(metrics.TransitionCompleted, metrics.ResultNoop, nil)
	}
}

// startHeartbeat extends the job lease while the pipeline runs. The returned func stops it.
func (r *Runner) startHeartbeat(ctx context.Context, jobID string, logger *slog.Logger) func() {
	interval := r.jobs.LeasePolicy().HeartbeatInterval(r.lease)
	if interval <= 0 {
		return func() {}
	}
	hctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-hctx.Done():
				return
			case <-ticker.C:
				ok, err := r.jobs.Heartbeat(hctx, jobID, r.lease)
				switch {
				case err != nil && hctx.Err() == nil:
					logger.WarnContext(hctx, "job heartbeat failed", "error", err)
				case err == nil && !ok:
					logger.WarnContext(hctx, "job lease lost")
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// finalizeContext lets queue bookkeeping finish after shutdown has been requested.
func finalizeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}
