// Package pipeline runs the publish workflow for one court list: fetch the listing, transform
// and validate it, send it to the publication hub, render and store the PDF, and record each
// milestone on the status record. Stages fail independently and Execute always completes.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
	"github.com/target/courtlist-publisher/internal/observability/tracing"
	"github.com/target/courtlist-publisher/internal/transform"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stage names used for spans, logs and metrics.
const (
	BranchFetch   = "fetch"
	BranchPublish = "publish"
	BranchFile    = "file"
)

const (
	pdfContentType   = "application/pdf"
	milestoneTimeout = 10 * time.Second
)

// ErrNoPayload marks document stages skipped because the listing fetch produced nothing.
var ErrNoPayload = errors.New("no listing payload")

// DocumentValidator checks a document against the schema of its variant.
type DocumentValidator interface {
	Validate(doc any, variant model.CourtListType) error
}

// Options groups dependencies for Pipeline.
type Options struct {
	Listing   core.ListingClient       // Required
	RefData   core.ReferenceDataClient // Optional: venue address enrichment
	Hub       core.PublicationClient   // Required
	Renderer  core.DocumentRenderer    // Required
	Blobs     core.BlobStore           // Required
	Status    core.StatusMilestones    // Required
	Validator DocumentValidator        // Required
	Config    config.PipelineConfig
	Clock     func() time.Time // Optional: publication timestamps
	Tracer    trace.Tracer     // Optional: defaults to the global tracer
	Metrics   statsd.Sink      // Optional
	Logger    *slog.Logger     // Optional
}

// Pipeline executes publish jobs. It is safe for concurrent use.
type Pipeline struct {
	listing   core.ListingClient
	refData   core.ReferenceDataClient
	hub       core.PublicationClient
	renderer  core.DocumentRenderer
	blobs     core.BlobStore
	status    core.StatusMilestones
	validator DocumentValidator
	cfg       config.PipelineConfig
	clock     func() time.Time
	tracer    trace.Tracer
	metrics   statsd.Sink
	logger    *slog.Logger
}

// New constructs a Pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Listing == nil:
		return nil, errors.New("listing client is required")
	case opts.Hub == nil:
		return nil, errors.New("publication client is required")
	case opts.Renderer == nil:
		return nil, errors.New("document renderer is required")
	case opts.Blobs == nil:
		return nil, errors.New("blob store is required")
	case opts.Status == nil:
		return nil, errors.New("status milestones are required")
	case opts.Validator == nil:
		return nil, errors.New("document validator is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Tracer()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		listing:   opts.Listing,
		refData:   opts.RefData,
		hub:       opts.Hub,
		renderer:  opts.Renderer,
		blobs:     opts.Blobs,
		status:    opts.Status,
		validator: opts.Validator,
		cfg:       opts.Config,
		clock:     clock,
		tracer:    tracer,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "publish_pipeline"),
	}, nil
}

// MustNew constructs a Pipeline and panics on error.
func MustNew(opts Options) *Pipeline {
	p, err := New(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create publish pipeline: %v", err))
	}
	return p
}

// Execute runs every stage for job. The publish stage always finishes before the file stage
// starts. Stage failures are captured in the returned Execution and on the status record.
func (p *Pipeline) Execute(ctx context.Context, job model.PublishJobPayload) Execution {
	id, err := job.ParsedCourtListID()
	if err != nil {
		p.logger.WarnContext(ctx, "publish job has no usable court list id, nothing to do", "error", err)
		return Execution{CourtListID: job.CourtListID, State: StateCompleted, Aborted: true}
	}

	r := &run{
		Pipeline:    p,
		job:         job,
		courtListID: id.String(),
		logger: p.logger.With(
			"court_list_id", id.String(),
			"court_centre_id", job.CourtCentreID,
			"court_list_type", job.CourtListType,
		),
	}
	exec := Execution{CourtListID: r.courtListID, State: StateStarted}

	_ = tracing.Run(ctx, p.tracer, "pipeline.execute", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Bool("make_external_calls", job.MakeExternalCalls))
		r.logger.InfoContext(ctx, "publish pipeline started", "make_external_calls", job.MakeExternalCalls)

		exec.Fetch = r.fetch(ctx)
		exec.Publish = r.publish(ctx, exec.Fetch)
		if r.markPublishCompleted(ctx, exec.Publish.Err) {
			exec.StatusUpdates++
		}

		exec.File = r.file(ctx, exec.Publish)
		if r.recordFile(ctx, exec.File) {
			exec.StatusUpdates++
		}
		return nil
	},
		tracing.AttrCourtListID.String(r.courtListID),
		tracing.AttrCourtCentreID.String(job.CourtCentreID),
		tracing.AttrCourtListType.String(string(job.CourtListType)),
	)

	exec.State = StateCompleted
	exec.Interrupted = ctx.Err() != nil && exec.incomplete()
	r.logger.InfoContext(ctx, "publish pipeline completed",
		"fetch", exec.Fetch.Outcome,
		"publish", exec.Publish.Outcome,
		"file", exec.File.Outcome,
		"interrupted", exec.Interrupted,
	)
	return exec
}

// run carries the state of one Execute call.
type run struct {
	*Pipeline
	job         model.PublishJobPayload
	courtListID string
	logger      *slog.Logger
}

func (r *run) fetch(ctx context.Context) Result[*model.CourtListPayload] {
	if !r.job.MakeExternalCalls {
		return skip[*model.CourtListPayload](ctx, r.branch(BranchFetch), nil)
	}
	centre := strings.TrimSpace(r.job.CourtCentreID)
	date := strings.TrimSpace(r.job.PublishDate)
	if centre == "" || date == "" {
		reason := errors.New("court centre and publish date are required to fetch a listing")
		return skip[*model.CourtListPayload](ctx, r.branch(BranchFetch), reason)
	}

	return runBranch(ctx, r.branch(BranchFetch), func(ctx context.Context) (*model.CourtListPayload, error) {
		payload, err := r.listing.FetchCourtList(ctx, core.CourtListQuery{
			CourtCentreID: centre,
			ListType:      r.job.CourtListType,
			Date:          date,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch court list: %w", err)
		}
		if payload == nil {
			return nil, errors.New("listing service returned an empty payload")
		}
		if payload.ListDate == "" {
			payload.ListDate = date
		}
		r.enrichVenue(ctx, payload)
		return payload, nil
	})
}

// enrichVenue fills a missing venue address from reference data. Failures are logged only.
func (r *run) enrichVenue(ctx context.Context, payload *model.CourtListPayload) {
	if r.refData == nil || !payload.CourtCentreAddress.IsZero() {
		return
	}
	centreID := payload.CourtCentreID
	if centreID == "" {
		centreID = r.job.CourtCentreID
	}
	centre, err := r.refData.CourtCentre(ctx, centreID)
	if err != nil || centre == nil {
		r.logger.WarnContext(ctx, "venue enrichment skipped", "error", err)
		return
	}
	payload.CourtCentreAddress = centre.Address
	if payload.CourtCentreName == "" {
		payload.CourtCentreName = centre.Name
	}
	if payload.OUCode == "" {
		payload.OUCode = centre.OUCode
	}
	tracing.AddEvent(ctx, "venue address enriched from reference data")
}

func (r *run) publish(ctx context.Context, fetched Result[*model.CourtListPayload]) Result[transform.Document] {
	if fetched.Value == nil {
		var reason error
		if fetched.Err != nil {
			reason = fmt.Errorf("%w: %w", ErrNoPayload, fetched.Err)
		}
		return skip[transform.Document](ctx, r.branch(BranchPublish), reason)
	}

	var validated transform.Document
	res := runBranch(ctx, r.branch(BranchPublish), func(ctx context.Context) (transform.Document, error) {
		fn, err := transform.For(r.job.CourtListType, transform.WithClock(r.clock))
		if err != nil {
			return nil, err
		}
		doc := fn(fetched.Value)
		if err := r.validator.Validate(doc, r.job.CourtListType); err != nil {
			return nil, err
		}
		validated = doc

		body, err := json.Marshal(doc)
		if err != nil {
			return doc, fmt.Errorf("encode document: %w", err)
		}
		if err := r.hub.Publish(ctx, core.Publication{
			CourtListID:   r.courtListID,
			CourtCentreID: r.job.CourtCentreID,
			CourtListType: r.job.CourtListType,
			ContentDate:   r.job.PublishDate,
			Body:          body,
		}); err != nil {
			return doc, fmt.Errorf("publish to hub: %w", err)
		}
		return doc, nil
	})
	// A hub failure does not invalidate the document for the file stage.
	res.Value = validated
	return res
}

func (r *run) file(ctx context.Context, published Result[transform.Document]) Result[string] {
	if !r.job.MakeExternalCalls {
		return runBranch(ctx, r.branch(BranchFile), func(context.Context) (string, error) {
			return r.offlineFileURL()
		})
	}

	return runBranch(ctx, r.branch(BranchFile), func(ctx context.Context) (string, error) {
		if published.Value == nil {
			if published.Err != nil {
				return "", fmt.Errorf("no validated document to render: %w", published.Err)
			}
			return "", errors.New("no validated document to render")
		}

		data, err := json.Marshal(published.Value)
		if err != nil {
			return "", fmt.Errorf("encode document: %w", err)
		}
		pdf, err := r.renderer.Render(ctx, core.RenderRequest{TemplateName: r.cfg.TemplateName, Data: data})
		if err != nil {
			return "", fmt.Errorf("render pdf: %w", err)
		}
		if len(pdf) == 0 {
			return "", errors.New("render pdf: document generator returned no content")
		}

		url, err := r.blobs.Upload(ctx, core.UploadParams{
			Name:        FileName(r.courtListID),
			Data:        pdf,
			ContentType: pdfContentType,
		})
		if err != nil {
			return "", fmt.Errorf("upload pdf: %w", err)
		}
		return url, nil
	})
}

func (r *run) offlineFileURL() (string, error) {
	tmpl := strings.TrimSpace(r.cfg.OfflineFileURL)
	if tmpl == "" {
		return "", errors.New("offline file url is not configured")
	}
	return strings.ReplaceAll(tmpl, "{courtListId}", r.courtListID), nil
}

// FileName is the blob name of a court list's rendered PDF.
func FileName(courtListID string) string {
	return courtListID + ".pdf"
}

// markPublishCompleted records the publish milestone whatever the stage outcome.
func (r *run) markPublishCompleted(ctx context.Context, branchErr error) bool {
	mctx, cancel := milestoneContext(ctx)
	defer cancel()

	if branchErr != nil {
		r.logger.WarnContext(ctx, "publish stage failed, marking publish successful", "error", branchErr)
	}
	updated, err := r.status.MarkPublishCompleted(mctx, r.courtListID, branchErr)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to record publish milestone", "error", err)
		return false
	}
	return updated
}

// recordFile flips fileStatus only on success. A failure keeps the prior fileStatus and
// stores the error text.
func (r *run) recordFile(ctx context.Context, res Result[string]) bool {
	mctx, cancel := milestoneContext(ctx)
	defer cancel()

	var (
		updated bool
		err     error
	)
	if res.OK() {
		updated, err = r.status.MarkFileUploaded(mctx, r.courtListID, res.Value)
	} else {
		cause := res.Err
		if cause == nil {
			cause = errors.New("file stage did not run")
		}
		r.logger.WarnContext(ctx, "file stage failed, file status left unchanged", "error", cause)
		updated, err = r.status.RecordFileFailure(mctx, r.courtListID, cause)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to record file milestone", "error", err)
		return false
	}
	return updated
}

// milestoneContext detaches status writes from job cancellation and gives them their own deadline.
func milestoneContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), milestoneTimeout)
}
