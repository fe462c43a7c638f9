//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/export"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/report"
	"github.com/couchcryptid/meteor-impact-service/internal/simulation"
	"github.com/couchcryptid/meteor-impact-service/internal/timeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testReportTopic = "test-impact-reports"

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafkatc.Run(ctx, "confluentinc/confluent-local:7.5.0", kafkatc.WithClusterID("meteor-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestReportPublishedToKafka runs a full simulation against a real broker and
// checks the applied report arrives on the topic as its JSON export document.
func TestReportPublishedToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaReportTopic: testReportTopic}
	writer := kafka.NewWriter(cfg)
	t.Cleanup(func() { _ = writer.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	fc := clockwork.NewFakeClock()
	sim := simulation.New(timeline.New(fc, logger, metrics), report.NewSynthesizer(nil, logger, metrics), writer, logger, metrics)
	t.Cleanup(sim.Close)

	params, err := domain.NewImpactorParameters(20000, 100, 1e9, 45, "iron")
	require.NoError(t, err)
	loc, err := domain.NewImpactLocation(48.8566, 2.3522, "Paris")
	require.NoError(t, err)

	_, err = sim.Start(ctx, params, loc, "")
	require.NoError(t, err)
	for range timeline.Schedule[1:] {
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		fc.Advance(2 * time.Second)
	}

	var applied domain.Report
	require.Eventually(t, func() bool {
		var ok bool
		applied, ok = sim.Report()
		return ok
	}, 10*time.Second, 10*time.Millisecond)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	assert.Equal(t, applied.ID, string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "fallback", headers["report_source"])

	doc, err := export.DecodeDocument(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, applied.Metrics, doc.Metrics)
	assert.Equal(t, applied.Narrative, doc.Analysis)
	assert.Equal(t, "Paris", doc.Metadata.Location.Name)
}
