package metrics

import (
	"time"

	"github.com/target/courtlist-publisher/internal/observability/statsd"
)

// BranchMetric captures the outcome of one pipeline stage.
type BranchMetric struct {
	Branch        string
	Outcome       string
	CourtListType string
	Duration      time.Duration
	Err           error
}

// EmitBranch emits pipeline.branch and pipeline.branch_duration.
func EmitBranch(sink statsd.Sink, in BranchMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"branch":  in.Branch,
		"outcome": in.Outcome,
	}
	if in.CourtListType != "" {
		tags["court_list_type"] = in.CourtListType
	}
	addErrorClass(tags, in.Outcome, in.Err)

	sink.Count("pipeline.branch", 1, tags)
	if in.Duration > 0 {
		sink.Timing("pipeline.branch_duration", in.Duration, CloneTags(tags))
	}
}
