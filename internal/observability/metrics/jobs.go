// Package metrics holds the metric names and tag conventions shared by runners and the pipeline.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/courtlist-publisher/internal/observability/errors"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Job lifecycle transitions.
const (
	TransitionReserved  = "reserved"
	TransitionCompleted = "completed"
	TransitionFailed    = "failed"
)

// JobMetric captures one job lifecycle event.
type JobMetric struct {
	JobType    string
	Backend    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits job.transition and, when a duration is known, job.duration.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type":   in.JobType,
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Backend != "" {
		tags["backend"] = in.Backend
	}
	addErrorClass(tags, in.Result, in.Err)

	sink.Count("job.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags returns a shallow copy of src, or nil when src is empty.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

func addErrorClass(tags map[string]string, result string, err error) {
	if err == nil || result != ResultError {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}
