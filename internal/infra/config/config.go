package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration loaded from environment
// variables. MongoURI empty means the in-memory stores are used, which keeps
// local demos and tests free of external dependencies.
type Config struct {
	Env      string
	HTTPAddr string

	MongoURI string
	MongoDB  string

	RedisURL   string
	SessionTTL time.Duration

	KafkaBrokers     []string
	KafkaTopicPrefix string

	ServiceFeeBps      int64
	SweepInterval      time.Duration
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool
}

// Load reads .env when present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "staybook"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "staybook"),
		S3Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "staybook-photos"),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	feeBps, err := parseInt64Env("SERVICE_FEE_BPS", 1200)
	if err != nil {
		return Config{}, err
	}
	if feeBps < 0 || feeBps > 10000 {
		return Config{}, fmt.Errorf("SERVICE_FEE_BPS out of range: %d", feeBps)
	}
	cfg.ServiceFeeBps = feeBps

	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}

	cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	return cfg, nil
}

// UseMongo reports whether persistent storage is configured.
func (c Config) UseMongo() bool {
	return c.MongoURI != ""
}

// UseKafka reports whether the outbox worker should publish to Kafka.
func (c Config) UseKafka() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseInt64Env(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	var v int64
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, fmt.Errorf("invalid %s integer: %q", key, raw)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
