package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory span recorder for the test.
func setupTracingTest(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
	})

	return recorder
}

func TestRunAndStepSpans(t *testing.T) {
	recorder := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, runSpan := sm.StartRunSpan(context.Background(), "trip-planning", "trip-1")
	_, stepSpan := sm.StartStepSpan(ctx, "generate-plan")
	sm.EndSpanWithError(stepSpan, nil)
	sm.EndSpanWithError(runSpan, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	// Step span ends first and is a child of the run span.
	assert.Equal(t, "tripflow.step.generate-plan", spans[0].Name())
	assert.Equal(t, "tripflow.run", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())

	attrs := spans[1].Attributes()
	assert.Contains(t, attrs, attribute.String("workflow.name", "trip-planning"))
	assert.Contains(t, attrs, attribute.String("instance.id", "trip-1"))
}

func TestEndSpanWithErrorRecordsFailure(t *testing.T) {
	recorder := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartStepSpan(context.Background(), "store-trip")
	sm.EndSpanWithError(span, errors.New("append conflict"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestEndSpanWithErrorNilSpanIsSafe(t *testing.T) {
	sm := NewSpanManager()
	assert.NotPanics(t, func() {
		sm.EndSpanWithError(nil, errors.New("boom"))
	})
}

func TestAddSpanEvent(t *testing.T) {
	recorder := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartStepSpan(context.Background(), "generate-plan")
	sm.AddSpanEvent(ctx, "retry", attribute.Int("attempt", 2))
	sm.EndSpanWithError(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "retry", spans[0].Events()[0].Name)
}
