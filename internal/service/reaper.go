package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
	obserrors "github.com/target/courtlist-publisher/internal/observability/errors"
	"github.com/target/courtlist-publisher/internal/observability/metrics"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository // Required: reaper repository
	Config  config.ReaperConfig   // Required: reaper configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// ReaperService keeps the publish queue small. It fails pending jobs no worker picked up
// and deletes finished jobs past their retention. Status records are never touched.
type ReaperService struct {
	repo    core.ReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reaper_service")
	logger.Debug("ReaperService initialized",
		"interval", opts.Config.Interval,
		"pending_max_age", opts.Config.PendingMaxAge,
		"completed_max_age", opts.Config.CompletedMaxAge,
		"failed_max_age", opts.Config.FailedMaxAge,
	)

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run performs a cleanup pass after a short jitter and then once per interval.
// It returns nil when ctx is cancelled.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logCleanupError(ctx, s.RunOnce(ctx), "initial cleanup")

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.logCleanupError(ctx, s.RunOnce(ctx), "cleanup")
		}
	}
}

// waitWithJitter sleeps up to 10% of the interval so replicas started together spread out.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// cleanupStep is one batched operation of a cleanup pass.
type cleanupStep struct {
	operation string
	maxAge    time.Duration
	batch     func(ctx context.Context) (int64, error)
}

// RunOnce performs a single cleanup pass and returns the joined step errors.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	start := time.Now()
	steps := []cleanupStep{
		{
			operation: "fail_pending",
			maxAge:    s.config.PendingMaxAge,
			batch: func(ctx context.Context) (int64, error) {
				return s.repo.FailStalePendingJobs(ctx, s.config.PendingMaxAge, s.config.BatchSize)
			},
		},
		s.deleteStep("delete_completed", model.JobStatusCompleted, s.config.CompletedMaxAge),
		s.deleteStep("delete_failed", model.JobStatusFailed, s.config.FailedMaxAge),
	}

	var (
		errs     []error
		total    int64
		canceled = true
	)
	for _, step := range steps {
		count, err := s.drain(ctx, step)
		total += count
		s.emitOperationMetric(step.operation, count, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.operation, err))
			canceled = canceled && isContextCancellation(err)
		}
	}

	joined := errors.Join(errs...)
	s.emitPassMetrics(total, joined, time.Since(start))

	switch {
	case joined == nil:
		return nil
	case canceled:
		return context.Canceled
	default:
		return fmt.Errorf("cleanup failed: %w", joined)
	}
}

func (s *ReaperService) deleteStep(operation string, status model.JobStatus, maxAge time.Duration) cleanupStep {
	return cleanupStep{
		operation: operation,
		maxAge:    maxAge,
		batch: func(ctx context.Context) (int64, error) {
			return s.repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
				Status:    status,
				MaxAge:    maxAge,
				BatchSize: s.config.BatchSize,
			})
		},
	}
}

// drain repeats a batched step until it affects no rows.
func (s *ReaperService) drain(ctx context.Context, step cleanupStep) (int64, error) {
	var total int64
	for {
		count, err := step.batch(ctx)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}

	if total > 0 {
		s.logger.InfoContext(ctx, "reaper step finished",
			"operation", step.operation,
			"count", total,
			"max_age", step.maxAge,
		)
	}
	return total, nil
}

func (s *ReaperService) emitPassMetrics(total int64, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}

	tags := map[string]string{"result": resultFor(total, err)}
	if class := obserrors.Classify(suppressContextCancellation(err)); class != "" {
		tags["error_class"] = class
	}

	s.metrics.Count("reaper.cleanup", 1, tags)
	if elapsed > 0 {
		s.metrics.Timing("reaper.cleanup_duration", elapsed, metrics.CloneTags(tags))
	}
	if err == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *ReaperService) emitOperationMetric(operation string, count int64, err error) {
	if s.metrics == nil {
		return
	}

	err = suppressContextCancellation(err)
	tags := map[string]string{
		"operation": operation,
		"result":    resultFor(count, err),
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}

	s.metrics.Count("reaper.cleanup_operation", 1, tags)
	if err == nil && count > 0 {
		s.metrics.Count("reaper.jobs_processed", count, metrics.CloneTags(tags))
	}
}

func resultFor(count int64, err error) string {
	switch {
	case err != nil:
		return metrics.ResultError
	case count == 0:
		return metrics.ResultNoop
	default:
		return metrics.ResultSuccess
	}
}

func (s *ReaperService) logCleanupError(ctx context.Context, err error, label string) {
	if err == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.DebugContext(ctx, label+" cancelled by context", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
