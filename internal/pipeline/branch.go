package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/target/courtlist-publisher/internal/observability/metrics"
	"github.com/target/courtlist-publisher/internal/observability/tracing"
	"go.opentelemetry.io/otel/trace"
)

type branch struct {
	r    *run
	name string
}

func (r *run) branch(name string) branch {
	return branch{r: r, name: name}
}

// runBranch executes fn in its own span. Errors and panics become the stage's Err.
func runBranch[T any](ctx context.Context, b branch, fn func(ctx context.Context) (T, error)) Result[T] {
	start := time.Now()
	var res Result[T]

	err := tracing.Run(ctx, b.r.tracer, "pipeline."+b.name, func(ctx context.Context, _ trace.Span) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				b.r.logger.ErrorContext(ctx, "panic in pipeline stage",
					"branch", b.name, "panic", rec, "stack", string(debug.Stack()))
				err = fmt.Errorf("panic in %s stage: %v", b.name, rec)
			}
		}()
		res.Value, err = fn(ctx)
		return err
	},
		tracing.AttrBranch.String(b.name),
		tracing.AttrCourtListID.String(b.r.courtListID),
	)

	res.Duration = time.Since(start)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = err
		b.r.logger.WarnContext(ctx, "pipeline stage failed", "branch", b.name, "error", err)
	} else {
		res.Outcome = OutcomeSuccess
		b.r.logger.DebugContext(ctx, "pipeline stage succeeded", "branch", b.name, "duration", res.Duration)
	}
	b.emit(res.Outcome, res.Duration, res.Err)
	return res
}

// skip records a stage that did not run. reason, when set, names the upstream failure.
func skip[T any](ctx context.Context, b branch, reason error) Result[T] {
	b.r.logger.DebugContext(ctx, "pipeline stage skipped", "branch", b.name, "reason", reason)
	b.emit(OutcomeSkipped, 0, reason)
	return skipped[T](reason)
}

func (b branch) emit(outcome Outcome, d time.Duration, err error) {
	metrics.EmitBranch(b.r.metrics, metrics.BranchMetric{
		Branch:        b.name,
		Outcome:       string(outcome),
		CourtListType: string(b.r.job.CourtListType),
		Duration:      d,
		Err:           err,
	})
}
