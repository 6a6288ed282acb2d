package amqpexec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/observability/metrics"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
	"github.com/target/courtlist-publisher/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// ErrDeliveriesClosed is returned when the broker closes the delivery channel.
var ErrDeliveriesClosed = errors.New("amqp delivery channel closed")

// Executor runs one publish job to completion.
type Executor interface {
	Execute(ctx context.Context, job model.PublishJobPayload) pipeline.Execution
}

// ConsumerOptions configures a Consumer.
type ConsumerOptions struct {
	Channel     Channel  // Required
	Topology    Topology // Required
	Pipeline    Executor // Required
	Concurrency int      // prefetch and worker count; defaults to 1
	Tag         string   // consumer tag; broker-generated when empty
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// Consumer drains the publish queue and runs the pipeline for each message.
type Consumer struct {
	ch       Channel
	topology Topology
	pipeline Executor
	workers  int
	tag      string
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewConsumer constructs a Consumer.
func NewConsumer(opts ConsumerOptions) (*Consumer, error) {
	if opts.Channel == nil {
		return nil, errors.New("amqp channel is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if err := opts.Topology.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		ch:       opts.Channel,
		topology: opts.Topology,
		pipeline: opts.Pipeline,
		workers:  workers,
		tag:      opts.Tag,
		logger:   logger.With("component", "amqp_consumer"),
		metrics:  opts.Metrics,
	}, nil
}

// Run consumes until ctx is cancelled or the broker closes the channel.
// Messages are acknowledged manually once the pipeline has run.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.workers, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := c.ch.Consume(c.topology.Queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topology.Queue, err)
	}
	c.logger.InfoContext(ctx, "consuming publish jobs", "queue", c.topology.Queue, "workers", c.workers)

	g, gctx := errgroup.WithContext(ctx)
	for range c.workers {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case msg, ok := <-deliveries:
					if !ok {
						return ErrDeliveriesClosed
					}
					c.handle(gctx, msg)
				}
			}
		})
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery) {
	start := time.Now()
	logger := c.logger.With("message_id", msg.MessageId, "redelivered", msg.Redelivered)
	emit := func(transition, result string, err error) {
		metrics.EmitJobLifecycle(c.metrics, metrics.JobMetric{
			JobType:    string(model.JobTypePublish),
			Backend:    Backend,
			Transition: transition,
			Result:     result,
			Duration:   time.Since(start),
			Err:        err,
		})
	}
	emit(metrics.TransitionReserved, metrics.ResultSuccess, nil)

	var payload model.PublishJobPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logger.ErrorContext(ctx, "undecodable publish message", "error", err)
		if nerr := msg.Nack(false, false); nerr != nil {
			logger.ErrorContext(ctx, "nack failed", "error", nerr)
		}
		emit(metrics.TransitionFailed, metrics.ResultError, fmt.Errorf("decode publish payload: %w", err))
		return
	}

	exec := c.pipeline.Execute(ctx, payload)
	logger.InfoContext(ctx, "publish job executed",
		"court_list_id", exec.CourtListID,
		"aborted", exec.Aborted,
		"fetch", exec.Fetch.Outcome,
		"publish", exec.Publish.Outcome,
		"file", exec.File.Outcome,
		"interrupted", exec.Interrupted,
		"duration", time.Since(start),
	)

	if exec.Interrupted {
		reason := fmt.Errorf("publish run interrupted: %w", context.Cause(ctx))
		logger.WarnContext(ctx, "publish job interrupted, requeueing", "error", reason)
		if err := msg.Nack(false, true); err != nil {
			logger.ErrorContext(ctx, "nack failed", "error", err)
		}
		emit(metrics.TransitionFailed, metrics.ResultError, reason)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.ErrorContext(ctx, "ack failed", "error", err)
		emit(metrics.TransitionCompleted, metrics.ResultError, err)
		return
	}
	emit(metrics.TransitionCompleted, metrics.ResultSuccess, nil)
}
