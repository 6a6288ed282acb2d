package pipeline

import (
	"time"

	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/observability/metrics"
	"github.com/target/courtlist-publisher/internal/transform"
)

// State is the externally observable state of an execution.
type State string

const (
	StateStarted   State = "STARTED"
	StateCompleted State = "COMPLETED"
)

// Outcome is how a stage ended. Values double as metric tags.
type Outcome string

const (
	OutcomeSuccess Outcome = metrics.ResultSuccess
	OutcomeError   Outcome = metrics.ResultError
	OutcomeSkipped Outcome = "skipped"
)

// Result is the outcome of one stage. Err may be set on a skipped stage to carry the reason
// an upstream failure prevented it from running.
type Result[T any] struct {
	Value    T
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// OK reports whether the stage ran and succeeded.
func (r Result[T]) OK() bool { return r.Outcome == OutcomeSuccess }

func skipped[T any](reason error) Result[T] {
	return Result[T]{Outcome: OutcomeSkipped, Err: reason}
}

// Execution aggregates the stage results of one run. State is always COMPLETED once Execute
// returns; callers inspect the individual results instead.
type Execution struct {
	CourtListID string
	State       State
	// Aborted is set when the job carried no usable courtListId and nothing ran.
	Aborted bool
	Fetch   Result[*model.CourtListPayload]
	Publish Result[transform.Document]
	File    Result[string]
	// StatusUpdates counts milestone writes that matched a record.
	StatusUpdates int
	// Interrupted is set when the caller's context ended while a stage was still running.
	// The stage results are then partial and the job should be handed back for another attempt.
	Interrupted bool
}

// incomplete reports whether any stage failed, or was skipped because an upstream stage did.
// Adapters do not always keep the context error in the chain, so the error kind is not checked.
func (e Execution) incomplete() bool {
	return e.Fetch.Err != nil || e.Publish.Err != nil || e.File.Err != nil
}
