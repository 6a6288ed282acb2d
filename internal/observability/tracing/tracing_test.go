package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer(t *testing.T) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer(InstrumentationName), rec
}

func TestRun(t *testing.T) {
	t.Run("success ends span with ok status", func(t *testing.T) {
		tracer, rec := newRecordingTracer(t)

		err := Run(context.Background(), tracer, "pipeline.fetch", func(ctx context.Context, span trace.Span) error {
			assert.True(t, span.IsRecording())
			AddEvent(ctx, "fetched %d rooms", 3)
			return nil
		}, AttrCourtListID.String("abc"))
		require.NoError(t, err)

		spans := rec.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "pipeline.fetch", spans[0].Name())
		assert.Equal(t, codes.Ok, spans[0].Status().Code)
		assert.Contains(t, spans[0].Attributes(), AttrCourtListID.String("abc"))
		require.Len(t, spans[0].Events(), 1)
		assert.Equal(t, "fetched 3 rooms", spans[0].Events()[0].Name)
	})

	t.Run("error is recorded and returned", func(t *testing.T) {
		tracer, rec := newRecordingTracer(t)
		boom := errors.New("hub unavailable")

		err := Run(context.Background(), tracer, "pipeline.publish", func(context.Context, trace.Span) error {
			return boom
		})
		require.ErrorIs(t, err, boom)

		spans := rec.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, "hub unavailable", spans[0].Status().Description)
		require.NotEmpty(t, spans[0].Events())
		assert.Equal(t, "exception", spans[0].Events()[0].Name)
	})

	t.Run("nil tracer uses the global provider", func(t *testing.T) {
		called := false
		err := Run(context.Background(), nil, "noop", func(context.Context, trace.Span) error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
	})
}

func TestRecordError_NilSafe(t *testing.T) {
	RecordError(nil, errors.New("x"))
	RecordError(trace.SpanFromContext(context.Background()), nil)
}

func TestSetup(t *testing.T) {
	t.Run("disabled keeps the global provider", func(t *testing.T) {
		before := otel.GetTracerProvider()

		shutdown, err := Setup(config.ObservabilityTracingConfig{Enabled: false}, nil)
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
		assert.Equal(t, before, otel.GetTracerProvider())
	})

	t.Run("enabled installs an sdk provider", func(t *testing.T) {
		before := otel.GetTracerProvider()
		t.Cleanup(func() { otel.SetTracerProvider(before) })

		shutdown, err := Setup(config.ObservabilityTracingConfig{
			Enabled:     true,
			ServiceName: "courtlist-publisher",
			Endpoint:    "127.0.0.1:4317",
			Insecure:    true,
			SampleRatio: 1,
		}, nil)
		require.NoError(t, err)

		_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
		assert.True(t, ok)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	})
}
