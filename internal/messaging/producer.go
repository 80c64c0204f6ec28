package messaging

import (
	"context"
	"log/slog"
	"time"

	"student-records/internal/events"
	"student-records/internal/metrics"

	"github.com/nats-io/nats.go"
)

// Producer publishes student events to a NATS subject as JSON.
type Producer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
	metrics *metrics.MessagingMetrics
}

func NewProducer(url string, subject string, logger *slog.Logger, m *metrics.MessagingMetrics) (*Producer, error) {
	nc, err := nats.Connect(url,
		nats.Name("student-records"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &Producer{
		conn:    nc,
		subject: subject,
		logger:  logger,
		metrics: m,
	}, nil
}

func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	start := time.Now()
	err := p.publish(event)
	p.metrics.RecordPublish(ctx, "nats", string(event.Type), time.Since(start), err)
	return err
}

func (p *Producer) publish(event events.Event) error {
	data, err := event.Marshal()
	if err != nil {
		p.logger.Error("failed to marshal event", "error", err)
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set("event_type", string(event.Type))
	msg.Header.Set("event_id", event.ID.String())

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Error("failed to send event to NATS", "error", err, "event_type", event.Type)
		return err
	}

	p.logger.Info("event sent to NATS", "subject", p.subject, "event_type", event.Type, "student_id", event.StudentID)
	return nil
}

// Close flushes buffered messages and closes the connection.
func (p *Producer) Close() error {
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("failed to flush NATS connection", "error", err)
	}
	p.conn.Close()
	return nil
}
