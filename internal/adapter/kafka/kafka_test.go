package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/config"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 10, 0, 0, time.UTC)
	snap := domain.Snapshot{
		ID:        "3f0c7a52-4d1e-4b8a-9a57-1b2c3d4e5f60",
		Dashboard: "wa-monitor",
		Title:     "Washington Live Flood Monitor",
		Cycle:     12,
		Source:    domain.SourceLive,
		TakenAt:   now,
		Regions:   []domain.Region{{ID: "king", Name: "King County", AtRisk: 45000}},
	}

	msg, err := serializeToMessage(snap)
	require.NoError(t, err)

	assert.Equal(t, []byte("wa-monitor"), msg.Key)
	assert.Equal(t, now, msg.Time)
	assert.Contains(t, string(msg.Value), `"dashboard":"wa-monitor"`)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, map[string]string{
		"dashboard": "wa-monitor",
		"cycle":     "12",
		"source":    "live",
		"taken_at":  "2026-10-19T15:10:00Z",
	}, headers)

	var back domain.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, snap.ID, back.ID)
	assert.Equal(t, 45000, back.Regions[0].AtRisk)
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker-1:9092", "broker-2:9092"}, KafkaSnapshotTopic: "flood-dashboard-snapshots"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "flood-dashboard-snapshots", w.writer.Topic)
	assert.IsType(t, &kafkago.Hash{}, w.writer.Balancer)
	assert.Equal(t, config.SinkKafka, w.Sink())
}
