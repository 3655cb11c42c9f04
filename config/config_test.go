package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Minute, cfg.Business.PollInterval)
	assert.Equal(t, time.UTC, cfg.Business.Location())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("COURIER_BASE_URL", "https://courier.example.com/")
	t.Setenv("COURIER_RATE_PER_SECOND", "0.5")
	t.Setenv("POLL_BATCH_SIZE", "not-a-number")
	t.Setenv("REPORT_TIMEZONE", "Asia/Kolkata")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://courier.example.com", cfg.Courier.BaseURL)
	assert.Equal(t, 0.5, cfg.Courier.RatePerSecond)
	assert.Equal(t, 200, cfg.Business.PollBatchSize)
	assert.Equal(t, "Asia/Kolkata", cfg.Business.Location().String())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	b := BusinessConfig{ReportTimezone: "Mars/Olympus"}
	assert.Equal(t, time.UTC, b.Location())
}
