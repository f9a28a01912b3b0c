//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/covid-stats-service/internal/adapter/kafka"
	"github.com/couchcryptid/covid-stats-service/internal/adapter/odata"
	"github.com/couchcryptid/covid-stats-service/internal/config"
	"github.com/couchcryptid/covid-stats-service/internal/domain"
	"github.com/couchcryptid/covid-stats-service/internal/observability"
	"github.com/couchcryptid/covid-stats-service/internal/pipeline"
	"github.com/couchcryptid/covid-stats-service/internal/snapshot"
)

const testSnapshotTopic = "test-country-case-stats"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("covid-stats-test"))
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
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// serveMockData serves data/mock/odata_<category>.json as the OData source.
func serveMockData(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := "odata_" + strings.ToLower(strings.TrimPrefix(r.URL.Path, "/")) + ".json"
		data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", name))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestPipelinePublishesSnapshotToKafka runs one cycle against the mock OData
// fixtures and reads the per-country messages back from the snapshot topic.
func TestPipelinePublishesSnapshotToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	cfg := &config.Config{
		KafkaEnabled:       true,
		KafkaBrokers:       []string{broker},
		KafkaSnapshotTopic: testSnapshotTopic,
	}
	writer := kafka.NewSnapshotWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	source := odata.NewClient(odata.Options{BaseURL: serveMockData(t).URL, Timeout: 5 * time.Second}, metrics, discardLogger())
	store := snapshot.NewStore()
	p := pipeline.New(source, domain.NewAggregator(domain.GeometryRunningAverage), store, discardLogger(), metrics,
		pipeline.WithPublisher(writer))

	res := p.RunCycle(ctx)
	require.NoError(t, res.Err)
	require.True(t, res.Applied)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSnapshotTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := make(map[string]domain.CountryStat, len(res.Snapshot.Stats))
	for range res.Snapshot.Stats {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from snapshot topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "1", headers["cycle"])
		_, err = time.Parse(time.RFC3339, headers["fetched_at"])
		assert.NoError(t, err, "fetched_at should be valid RFC3339")

		var stat domain.CountryStat
		require.NoError(t, json.Unmarshal(msg.Value, &stat))
		assert.Equal(t, string(msg.Key), stat.CountryRegion)
		got[stat.CountryRegion] = stat
	}

	require.Len(t, got, 5)
	assert.Equal(t, int64(115), got["China"].TotalActive)
	assert.Equal(t, int64(49), got["Vietnam"].TotalActive)
	assert.False(t, got["Kosovo"].HasGeometry(), "null lat decodes back to missing geometry")
}
