package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider for the test.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown meter provider: %v", err)
		}
	})

	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum data for %s", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordStepExecution(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordStepExecution(ctx, "generate-plan", 120*time.Millisecond, nil)
	m.RecordStepExecution(ctx, "generate-plan", 80*time.Millisecond, errors.New("timeout"))

	rm := collectMetrics(t, reader)

	executions := findMetric(rm, "tripflow.step.executions")
	require.NotNil(t, executions)
	assert.Equal(t, int64(2), counterValue(t, executions))

	stepErrors := findMetric(rm, "tripflow.step.errors")
	require.NotNil(t, stepErrors)
	assert.Equal(t, int64(1), counterValue(t, stepErrors))

	assert.NotNil(t, findMetric(rm, "tripflow.step.latency_ms"))
}

func TestRecordWorkflowRun(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordWorkflowRun(ctx, "trip-planning", true, 2*time.Second)
	m.RecordWorkflowRun(ctx, "trip-planning", false, time.Second)

	rm := collectMetrics(t, reader)

	runs := findMetric(rm, "tripflow.workflow.runs")
	require.NotNil(t, runs)
	assert.Equal(t, int64(2), counterValue(t, runs))

	assert.NotNil(t, findMetric(rm, "tripflow.workflow.latency_ms"))
}

func TestRecordStepRetryAndPersist(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordStepRetry(ctx, "generate-plan")
	m.RecordStepRetry(ctx, "generate-plan")
	m.RecordPersist(ctx, "store-trip", 256)

	rm := collectMetrics(t, reader)

	retries := findMetric(rm, "tripflow.step.retries")
	require.NotNil(t, retries)
	assert.Equal(t, int64(2), counterValue(t, retries))

	persist := findMetric(rm, "tripflow.persist.size_bytes")
	require.NotNil(t, persist)
	hist, ok := persist.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, int64(256), hist.DataPoints[0].Sum)
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "expected a real metrics recorder")
}
