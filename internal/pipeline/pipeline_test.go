package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
	"github.com/target/courtlist-publisher/internal/mocks"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
	"github.com/target/courtlist-publisher/internal/schema"
	"github.com/target/courtlist-publisher/internal/testutil"
	"github.com/target/courtlist-publisher/internal/transform"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

const (
	courtListID = "0c7d2c44-6a0e-4f8c-8d6c-3e7f2b1a9c55"
	blobURL     = "https://blob.example/court-lists/0c7d2c44-6a0e-4f8c-8d6c-3e7f2b1a9c55.pdf?sig=x"
)

var pdfBytes = []byte("%PDF-1.7 court list")

type fixture struct {
	listing  *mocks.MockListingClient
	refData  *mocks.MockReferenceDataClient
	hub      *mocks.MockPublicationClient
	renderer *mocks.MockDocumentRenderer
	blobs    *mocks.MockBlobStore
	status   *mocks.MockStatusMilestones
	metrics  *statsd.Recorder
	spans    *tracetest.SpanRecorder
	pipeline *Pipeline
}

type fixtureOption func(*Options)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := &fixture{
		listing:  mocks.NewMockListingClient(ctrl),
		refData:  mocks.NewMockReferenceDataClient(ctrl),
		hub:      mocks.NewMockPublicationClient(ctrl),
		renderer: mocks.NewMockDocumentRenderer(ctrl),
		blobs:    mocks.NewMockBlobStore(ctrl),
		status:   mocks.NewMockStatusMilestones(ctrl),
		metrics:  &statsd.Recorder{},
		spans:    spans,
	}
	o := Options{
		Listing:   f.listing,
		RefData:   f.refData,
		Hub:       f.hub,
		Renderer:  f.renderer,
		Blobs:     f.blobs,
		Status:    f.status,
		Validator: schema.New(),
		Config: config.PipelineConfig{
			OfflineFileURL: "https://courtlist.invalid/offline/{courtListId}.pdf",
			TemplateName:   "CourtList",
		},
		Clock:   testutil.TestTime,
		Tracer:  provider.Tracer("test"),
		Metrics: f.metrics,
	}
	for _, opt := range opts {
		opt(&o)
	}
	f.pipeline = MustNew(o)
	return f
}

func job(external bool) model.PublishJobPayload {
	return model.PublishJobPayload{
		CourtListID:       courtListID,
		CourtCentreID:     testutil.CourtCentreID,
		CourtListType:     model.CourtListTypeStandard,
		PublishDate:       testutil.PublishDate,
		MakeExternalCalls: external,
	}
}

func (f *fixture) expectFetch(payload *model.CourtListPayload, err error) {
	f.listing.EXPECT().FetchCourtList(gomock.Any(), core.CourtListQuery{
		CourtCentreID: testutil.CourtCentreID,
		ListType:      model.CourtListTypeStandard,
		Date:          testutil.PublishDate,
	}).Return(payload, err)
}

func (f *fixture) expectRenderAndUpload() {
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req core.RenderRequest) ([]byte, error) {
			if req.TemplateName != "CourtList" || !json.Valid(req.Data) {
				return nil, errors.New("unexpected render request")
			}
			return pdfBytes, nil
		})
	f.blobs.EXPECT().Upload(gomock.Any(), core.UploadParams{
		Name:        courtListID + ".pdf",
		Data:        pdfBytes,
		ContentType: "application/pdf",
	}).Return(blobURL, nil)
}

func (f *fixture) branchOutcomes() map[string]string {
	out := map[string]string{}
	for _, s := range f.metrics.Find("pipeline.branch") {
		out[s.Tags["branch"]] = s.Tags["outcome"]
	}
	return out
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Panics(t, func() { MustNew(Options{}) })
}

func TestExecute_MalformedCourtListIDAborts(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"", "not-a-uuid"} {
		j := job(true)
		j.CourtListID = id
		exec := f.pipeline.Execute(context.Background(), j)

		assert.Equal(t, StateCompleted, exec.State)
		assert.True(t, exec.Aborted)
	}
	assert.Empty(t, f.metrics.Samples())
}

func TestExecute_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.expectFetch(testutil.NewCourtListPayload().Build(), nil)
	f.hub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, pub core.Publication) error {
			assert.Equal(t, courtListID, pub.CourtListID)
			assert.Equal(t, testutil.PublishDate, pub.ContentDate)
			var doc transform.StandardDocument
			require.NoError(t, json.Unmarshal(pub.Body, &doc))
			assert.Equal(t, model.CourtListTypeStandard, doc.Document.ListType)
			return nil
		})
	f.expectRenderAndUpload()

	gomock.InOrder(
		f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(true, nil),
		f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID, blobURL).Return(true, nil),
	)

	exec := f.pipeline.Execute(context.Background(), job(true))

	assert.Equal(t, StateCompleted, exec.State)
	assert.False(t, exec.Aborted)
	assert.True(t, exec.Fetch.OK())
	assert.True(t, exec.Publish.OK())
	require.NotNil(t, exec.Publish.Value)
	assert.Equal(t, model.CourtListTypeStandard, exec.Publish.Value.Variant())
	assert.Equal(t, blobURL, exec.File.Value)
	assert.Equal(t, 2, exec.StatusUpdates)

	assert.Equal(t, map[string]string{"fetch": "success", "publish": "success", "file": "success"}, f.branchOutcomes())

	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"pipeline.fetch", "pipeline.publish", "pipeline.file", "pipeline.execute"}, names)
}

func TestExecute_EmptyDayUsesPublishDate(t *testing.T) {
	f := newFixture(t)
	empty := testutil.NewCourtListPayload().Build()
	empty.ListDate = ""
	empty.HearingDates = nil
	f.expectFetch(empty, nil)
	f.hub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, pub core.Publication) error {
			var doc transform.StandardDocument
			require.NoError(t, json.Unmarshal(pub.Body, &doc))
			assert.Equal(t, testutil.PublishDate, doc.Document.ListDate)
			assert.Empty(t, doc.Sessions)
			return nil
		})
	f.expectRenderAndUpload()
	gomock.InOrder(
		f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(true, nil),
		f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID, blobURL).Return(true, nil),
	)

	exec := f.pipeline.Execute(context.Background(), job(true))

	assert.True(t, exec.Publish.OK())
	assert.Equal(t, StateCompleted, exec.State)
}

func TestExecute_ExternalCallsDisabledUsesOfflineURL(t *testing.T) {
	f := newFixture(t)
	gomock.InOrder(
		f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(true, nil),
		f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID,
			"https://courtlist.invalid/offline/"+courtListID+".pdf").Return(true, nil),
	)

	exec := f.pipeline.Execute(context.Background(), job(false))

	assert.Equal(t, OutcomeSkipped, exec.Fetch.Outcome)
	assert.Equal(t, OutcomeSkipped, exec.Publish.Outcome)
	assert.NoError(t, exec.Publish.Err)
	assert.True(t, exec.File.OK())
	assert.Equal(t, StateCompleted, exec.State)
}

func TestExecute_HubFailureStillMarksPublishSuccessful(t *testing.T) {
	f := newFixture(t)
	hubErr := errors.New("hub returned 500")
	f.expectFetch(testutil.NewCourtListPayload().Build(), nil)
	f.hub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(hubErr)
	f.expectRenderAndUpload()

	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, branchErr error) (bool, error) {
			require.ErrorIs(t, branchErr, hubErr)
			return true, nil
		})
	f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID, blobURL).Return(true, nil)

	exec := f.pipeline.Execute(context.Background(), job(true))

	assert.Equal(t, OutcomeError, exec.Publish.Outcome)
	assert.NotNil(t, exec.Publish.Value, "validated document survives a hub failure")
	assert.True(t, exec.File.OK())
	assert.Equal(t, "error", f.branchOutcomes()["publish"])
}

func TestExecute_FetchFailureSkipsDocumentStages(t *testing.T) {
	f := newFixture(t)
	fetchErr := errors.New("listing unavailable")
	f.expectFetch(nil, fetchErr)

	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, branchErr error) (bool, error) {
			assert.ErrorIs(t, branchErr, ErrNoPayload)
			assert.ErrorIs(t, branchErr, fetchErr)
			return true, nil
		})
	f.status.EXPECT().RecordFileFailure(gomock.Any(), courtListID, gomock.Not(gomock.Nil())).Return(true, nil)

	exec := f.pipeline.Execute(context.Background(), job(true))

	assert.Equal(t, OutcomeError, exec.Fetch.Outcome)
	assert.Equal(t, OutcomeSkipped, exec.Publish.Outcome)
	assert.Equal(t, OutcomeError, exec.File.Outcome)
	assert.Equal(t, StateCompleted, exec.State)
}

type rejectingValidator struct{}

func (rejectingValidator) Validate(any, model.CourtListType) error {
	return &schema.ValidationError{Variant: model.CourtListTypeStandard, Messages: []string{"/venue/venueName: length must be >= 1"}}
}

func TestExecute_SchemaFailureStopsDocumentBoundStages(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Validator = rejectingValidator{} })
	f.expectFetch(testutil.NewCourtListPayload().Build(), nil)

	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, branchErr error) (bool, error) {
			assert.True(t, schema.IsValidationError(branchErr))
			return true, nil
		})
	f.status.EXPECT().RecordFileFailure(gomock.Any(), courtListID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, branchErr error) (bool, error) {
			assert.Contains(t, branchErr.Error(), "no validated document")
			return true, nil
		})

	exec := f.pipeline.Execute(context.Background(), job(true))

	assert.Equal(t, OutcomeError, exec.Publish.Outcome)
	assert.Nil(t, exec.Publish.Value)
	assert.Equal(t, OutcomeError, exec.File.Outcome)
}

func TestExecute_PanicInStageIsContained(t *testing.T) {
	f := newFixture(t)
	f.expectFetch(testutil.NewCourtListPayload().Build(), nil)
	f.hub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, core.RenderRequest) ([]byte, error) { panic("renderer exploded") })
	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(true, nil)
	f.status.EXPECT().RecordFileFailure(gomock.Any(), courtListID, gomock.Any()).Return(true, nil)

	var exec Execution
	require.NotPanics(t, func() { exec = f.pipeline.Execute(context.Background(), job(true)) })
	assert.Equal(t, OutcomeError, exec.File.Outcome)
	assert.ErrorContains(t, exec.File.Err, "renderer exploded")
}

func TestExecute_EmptyPDFIsAFileFailure(t *testing.T) {
	f := newFixture(t)
	f.expectFetch(testutil.NewCourtListPayload().Build(), nil)
	f.hub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(true, nil)
	f.status.EXPECT().RecordFileFailure(gomock.Any(), courtListID, gomock.Any()).Return(true, nil)

	exec := f.pipeline.Execute(context.Background(), job(true))
	assert.ErrorContains(t, exec.File.Err, "no content")
}

func TestExecute_EnrichesMissingVenueAddress(t *testing.T) {
	f := newFixture(t)
	payload := testutil.NewCourtListPayload().WithAddress(model.Address{}).Build()
	f.expectFetch(payload, nil)
	f.refData.EXPECT().CourtCentre(gomock.Any(), testutil.CourtCentreID).Return(&model.CourtCentre{
		ID:      testutil.CourtCentreID,
		Name:    "Lavender Hill Magistrates' Court",
		Address: model.Address{Address1: "176A Lavender Hill", Postcode: "SW11 1JU"},
	}, nil)
	f.hub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	f.expectRenderAndUpload()
	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(true, nil)
	f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID, blobURL).Return(true, nil)

	exec := f.pipeline.Execute(context.Background(), job(true))

	doc, ok := exec.Publish.Value.(*transform.StandardDocument)
	require.True(t, ok)
	assert.Equal(t, []string{"176A Lavender Hill"}, doc.Venue.Address.Lines)
	assert.Equal(t, "SW11 1JU", doc.Venue.Address.Postcode)
}

func TestExecute_EnrichmentFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.expectFetch(testutil.NewCourtListPayload().WithAddress(model.Address{}).Build(), nil)
	f.refData.EXPECT().CourtCentre(gomock.Any(), testutil.CourtCentreID).Return(nil, errors.New("refdata down"))
	f.hub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	f.expectRenderAndUpload()
	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(true, nil)
	f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID, blobURL).Return(true, nil)

	exec := f.pipeline.Execute(context.Background(), job(true))
	assert.True(t, exec.Fetch.OK())
	assert.True(t, exec.Publish.OK())
}

func TestExecute_StatusWriteProblemsDoNotFailTheRun(t *testing.T) {
	f := newFixture(t)
	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).Return(false, nil)
	f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID, gomock.Any()).Return(false, errors.New("db down"))

	exec := f.pipeline.Execute(context.Background(), job(false))

	assert.Equal(t, StateCompleted, exec.State)
	assert.Equal(t, 0, exec.StatusUpdates)
}

func TestExecute_MilestonesSurviveCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Nil()).DoAndReturn(
		func(ctx context.Context, _ string, _ error) (bool, error) {
			return true, ctx.Err()
		})
	f.status.EXPECT().MarkFileUploaded(gomock.Any(), courtListID, gomock.Any()).Return(true, nil)

	exec := f.pipeline.Execute(ctx, job(false))
	assert.Equal(t, 2, exec.StatusUpdates)
	assert.False(t, exec.Interrupted, "every stage finished before the cancellation mattered")
}

func TestExecute_CancelledFetchIsInterrupted(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.listing.EXPECT().FetchCourtList(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ core.CourtListQuery) (*model.CourtListPayload, error) {
			cancel()
			return nil, ctx.Err()
		})
	f.status.EXPECT().MarkPublishCompleted(gomock.Any(), courtListID, gomock.Not(gomock.Nil())).Return(true, nil)
	f.status.EXPECT().RecordFileFailure(gomock.Any(), courtListID, gomock.Not(gomock.Nil())).Return(true, nil)

	exec := f.pipeline.Execute(ctx, job(true))

	assert.Equal(t, OutcomeError, exec.Fetch.Outcome)
	assert.True(t, exec.Interrupted)
}
