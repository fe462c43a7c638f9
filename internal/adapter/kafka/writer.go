// Package kafka publishes finished impact reports to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/export"
	kafkago "github.com/segmentio/kafka-go"
)

// Write retry policy: start at 200ms, double each attempt, cap at 5s.
const (
	maxAttempts     = 5
	writeBackoffMin = 200 * time.Millisecond
	writeBackoffMax = 5 * time.Second
)

// Writer produces report messages to the configured topic.
// It implements simulation.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
}

// NewWriter creates a Kafka producer for the report topic.
func NewWriter(cfg *config.Config) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		MaxAttempts:            maxAttempts,
		WriteBackoffMin:        writeBackoffMin,
		WriteBackoffMax:        writeBackoffMax,
	}
	return &Writer{writer: w}
}

// PublishReport writes r as its JSON export document, keyed by report ID.
func (w *Writer) PublishReport(ctx context.Context, r domain.Report) error {
	msg, err := serializeToMessage(r)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message.
func serializeToMessage(r domain.Report) (kafkago.Message, error) {
	data, err := export.JSON(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "report_source", Value: []byte(r.Source)},
			{Key: "generated_at", Value: []byte(r.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
