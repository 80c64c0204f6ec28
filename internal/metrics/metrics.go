package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

// Metrics groups the domain counters with the database, messaging and
// health instruments. Every Record* method is safe on a zero value.
type Metrics struct {
	studentsCreated    metric.Int64Counter
	studentsUpdated    metric.Int64Counter
	studentsDeleted    metric.Int64Counter
	studentsViewed     metric.Int64Counter
	studentsListViewed metric.Int64Counter
	studentsSearched   metric.Int64Counter

	Database  *DatabaseMetrics
	Messaging *MessagingMetrics
	Health    *HealthMetrics
}

func New(meter metric.Meter, logger *slog.Logger) (*Metrics, error) {
	m := &Metrics{}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.studentsCreated, "student_records.students.created", "Total number of students created", "{student}"},
		{&m.studentsUpdated, "student_records.students.updated", "Total number of student updates", "{student}"},
		{&m.studentsDeleted, "student_records.students.deleted", "Total number of students deleted", "{student}"},
		{&m.studentsViewed, "student_records.students.viewed", "Total number of single student views", "{view}"},
		{&m.studentsListViewed, "student_records.students.list_viewed", "Total number of times the student list was viewed", "{view}"},
		{&m.studentsSearched, "student_records.students.searched", "Total number of student searches", "{search}"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	if m.Database, err = NewDatabaseMetrics(meter); err != nil {
		return nil, err
	}
	if m.Messaging, err = NewMessagingMetrics(meter); err != nil {
		return nil, err
	}
	if m.Health, err = NewHealthMetrics(meter); err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized successfully")
	return m, nil
}

func add(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStudentCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsCreated)
	}
}

func (m *Metrics) RecordStudentUpdated(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsUpdated)
	}
}

func (m *Metrics) RecordStudentDeleted(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsDeleted)
	}
}

func (m *Metrics) RecordStudentViewed(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsViewed)
	}
}

func (m *Metrics) RecordStudentsListViewed(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsListViewed)
	}
}

func (m *Metrics) RecordStudentsSearched(ctx context.Context) {
	if m != nil {
		add(ctx, m.studentsSearched)
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database:  &DatabaseMetrics{},
		Messaging: &MessagingMetrics{},
		Health:    &HealthMetrics{},
	}
}
