package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"student-records/internal/events"
	"student-records/internal/metrics"

	"github.com/IBM/sarama"
)

// Producer writes student events to a Kafka topic, keyed by student id so
// every change to one record lands on the same partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.MessagingMetrics
}

func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = "student-records"
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	return config
}

func NewProducer(brokers []string, topic string, logger *slog.Logger, m *metrics.MessagingMetrics) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, err
	}

	logger.Info("kafka producer initialized", "brokers", brokers, "topic", topic)
	return NewProducerFromClient(producer, topic, logger, m), nil
}

// NewProducerFromClient wraps an existing sync producer.
func NewProducerFromClient(producer sarama.SyncProducer, topic string, logger *slog.Logger, m *metrics.MessagingMetrics) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger,
		metrics:  m,
	}
}

func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	start := time.Now()
	err := p.send(event)
	p.metrics.RecordPublish(ctx, "kafka", string(event.Type), time.Since(start), err)
	return err
}

func (p *Producer) send(event events.Event) error {
	valueBytes, err := event.Marshal()
	if err != nil {
		p.logger.Error("failed to marshal event", "error", err)
		return err
	}

	key := strconv.Itoa(event.StudentID)
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(valueBytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("failed to send event to kafka", "error", err, "event_type", event.Type)
		return err
	}

	p.logger.Info("event sent to kafka", "topic", p.topic, "partition", partition, "offset", offset, "key", key)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
