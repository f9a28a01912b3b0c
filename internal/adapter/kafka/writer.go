package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/covid-stats-service/internal/config"
	"github.com/couchcryptid/covid-stats-service/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// SnapshotWriter publishes every country of a snapshot to a Kafka topic.
// It implements pipeline.Publisher.
type SnapshotWriter struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewSnapshotWriter creates a Kafka producer for the configured snapshot topic.
func NewSnapshotWriter(cfg *config.Config, logger *slog.Logger) *SnapshotWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &SnapshotWriter{writer: w, topic: cfg.KafkaSnapshotTopic, logger: logger}
}

// PublishSnapshot writes one message per country, keyed by country name, in a
// single WriteMessages call.
func (w *SnapshotWriter) PublishSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || len(snap.Stats) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Stats))
	for i := range snap.Stats {
		msg, err := serializeToMessage(snap, snap.Stats[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return eris.Wrapf(err, "publish cycle %d to %s", snap.Cycle, w.topic)
	}
	w.logger.Debug("snapshot published to kafka", "topic", w.topic, "cycle", snap.Cycle, "messages", len(msgs))
	return nil
}

func (w *SnapshotWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one CountryStat into a Kafka message.
func serializeToMessage(snap *domain.Snapshot, stat domain.CountryStat) (kafkago.Message, error) {
	data, err := json.Marshal(stat)
	if err != nil {
		return kafkago.Message{}, eris.Wrapf(err, "serialize %s", stat.CountryRegion)
	}
	return kafkago.Message{
		Key:   []byte(stat.CountryRegion),
		Value: data,
		Time:  snap.FetchedAt,
		Headers: []kafkago.Header{
			{Key: "cycle", Value: []byte(strconv.FormatUint(snap.Cycle, 10))},
			{Key: "fetched_at", Value: []byte(snap.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
