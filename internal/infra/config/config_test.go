package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, int64(1200), cfg.ServiceFeeBps)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.UseMongo())
	assert.False(t, cfg.UseKafka())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("SERVICE_FEE_BPS", "800")
	t.Setenv("SWEEP_INTERVAL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.UseMongo())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(800), cfg.ServiceFeeBps)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SERVICE_FEE_BPS", "20000")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SERVICE_FEE_BPS", "1200")
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")
	_, err = Load()
	assert.Error(t, err)
}
