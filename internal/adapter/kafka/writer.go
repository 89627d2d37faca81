package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/config"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes dashboard snapshots to a Kafka topic. One Writer is
// shared by every dashboard pipeline; it implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
// Messages are keyed by dashboard so each dashboard's snapshots stay ordered
// within one partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Sink names this loader in metrics and logs.
func (w *Writer) Sink() string { return config.SinkKafka }

// Load serializes and publishes one snapshot.
func (w *Writer) Load(ctx context.Context, snap domain.Snapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.ID, err)
	}
	w.logger.Debug("snapshot published", "dashboard", snap.Dashboard, "cycle", snap.Cycle, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Snapshot into a Kafka message.
func serializeToMessage(snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snap.Dashboard),
		Value: data,
		Time:  snap.TakenAt,
		Headers: []kafkago.Header{
			{Key: "dashboard", Value: []byte(snap.Dashboard)},
			{Key: "cycle", Value: []byte(strconv.FormatUint(snap.Cycle, 10))},
			{Key: "source", Value: []byte(snap.Source)},
			{Key: "taken_at", Value: []byte(snap.TakenAt.Format(time.RFC3339))},
		},
	}, nil
}
