package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"student-records/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := New(provider.Meter("student-records-test"), logger.Discard())
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_DomainCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordStudentCreated(ctx)
	m.RecordStudentCreated(ctx)
	m.RecordStudentUpdated(ctx)
	m.RecordStudentDeleted(ctx)
	m.RecordStudentViewed(ctx)
	m.RecordStudentsListViewed(ctx)
	m.RecordStudentsSearched(ctx)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["student_records.students.created"]))
	assert.Equal(t, int64(1), sumOf(t, data["student_records.students.updated"]))
	assert.Equal(t, int64(1), sumOf(t, data["student_records.students.deleted"]))
	assert.Equal(t, int64(1), sumOf(t, data["student_records.students.viewed"]))
	assert.Equal(t, int64(1), sumOf(t, data["student_records.students.list_viewed"]))
	assert.Equal(t, int64(1), sumOf(t, data["student_records.students.searched"]))
}

func TestDatabaseMetrics_RecordQueryCountsErrors(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.Database.RecordQuery(ctx, "select", "students", 3*time.Millisecond, nil)
	m.Database.RecordQuery(ctx, "insert", "students", 2*time.Millisecond, errors.New("duplicate key"))

	data := collect(t, reader)
	hist, ok := data["db.query.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
	assert.Equal(t, int64(1), sumOf(t, data["db.query.errors"]))
}

func TestMessagingMetrics_RecordPublish(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.Messaging.RecordPublish(ctx, "nats", "student.created", time.Millisecond, nil)
	m.Messaging.RecordPublish(ctx, "kafka", "student.deleted", time.Millisecond, errors.New("broker down"))

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["messaging.events.published"]))
	assert.Equal(t, int64(1), sumOf(t, data["messaging.event.errors"]))
}

func TestNewMock_IgnoresRecords(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordStudentCreated(ctx)
		m.RecordStudentsSearched(ctx)
		m.Database.RecordQuery(ctx, "select", "students", time.Millisecond, errors.New("boom"))
		m.Messaging.RecordPublish(ctx, "nats", "student.created", time.Millisecond, nil)
		m.Health.RecordDependencyCheck(ctx, "database", time.Millisecond, nil)
	})

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordStudentViewed(ctx) })
}

func TestRegisterRuntime(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	require.NoError(t, RegisterRuntime(provider.Meter("runtime-test")))

	data := collect(t, reader)
	gauge, ok := data["runtime.go.goroutines"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Positive(t, gauge.DataPoints[0].Value)
	assert.Contains(t, data, "service.uptime")
	assert.Contains(t, data, "runtime.go.gc.count")
}
