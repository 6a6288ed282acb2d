package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/adapters/amqpexec"
	"github.com/target/courtlist-publisher/internal/adapters/jobrunner"
	"github.com/target/courtlist-publisher/internal/adapters/reaper"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
	"github.com/target/courtlist-publisher/internal/pipeline"
	"github.com/target/courtlist-publisher/internal/service"
)

// PublishRunnerConfig contains configuration for the publish executor.
type PublishRunnerConfig struct {
	Backend     config.ExecutorBackend
	Jobs        *service.JobService // postgres backend
	Broker      *amqpexec.Broker    // amqp backend
	Pipeline    *pipeline.Pipeline
	Lease       time.Duration
	Concurrency int
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// RunPublishRunner consumes publish jobs from the configured backend until ctx is cancelled.
func RunPublishRunner(ctx context.Context, cfg PublishRunnerConfig) error {
	if cfg.Pipeline == nil {
		return errors.New("publish pipeline is required")
	}

	switch cfg.Backend {
	case config.ExecutorAMQP:
		return runAMQPConsumer(ctx, cfg)
	default:
		return runQueueRunner(ctx, cfg)
	}
}

func runQueueRunner(ctx context.Context, cfg PublishRunnerConfig) error {
	runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
		Jobs:        cfg.Jobs,
		Pipeline:    cfg.Pipeline,
		Logger:      cfg.Logger,
		Metrics:     cfg.Metrics,
		Lease:       cfg.Lease,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("create publish runner: %w", err)
	}

	if runErr := runner.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run publish runner: %w", runErr)
	}
	return nil
}

func runAMQPConsumer(ctx context.Context, cfg PublishRunnerConfig) error {
	if cfg.Broker == nil {
		return errors.New("amqp broker is required")
	}
	ch, err := cfg.Broker.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	consumer, err := amqpexec.NewConsumer(amqpexec.ConsumerOptions{
		Channel:     ch,
		Topology:    cfg.Broker.Topology(),
		Pipeline:    cfg.Pipeline,
		Concurrency: cfg.Concurrency,
		Logger:      cfg.Logger,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create amqp consumer: %w", err)
	}

	if runErr := consumer.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run amqp consumer: %w", runErr)
	}
	return nil
}

// ReaperConfig contains configuration for reaper.
type ReaperConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics statsd.Sink
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	if runErr := runner.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
