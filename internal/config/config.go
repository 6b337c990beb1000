package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

type Config struct {
	Port        string
	Environment string

	StoreBackend   string
	StoreNamespace string
	RedisURL       string

	MaxArchiveBytes int64
	TickInterval    time.Duration
	RSAKeyBits      int

	Events EventConfig
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine, the process environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		StoreBackend:    getEnv("STORE_BACKEND", StoreBackendMemory),
		StoreNamespace:  getEnv("STORE_NAMESPACE", "quiz-cache"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		MaxArchiveBytes: getEnvInt64("MAX_ARCHIVE_BYTES", 50<<20),
		TickInterval:    getEnvDuration("TICK_INTERVAL", time.Second),
		RSAKeyBits:      int(getEnvInt64("RSA_KEY_BITS", 2048)),
		Events: EventConfig{
			Enabled:      getEnvBool("EVENTS_ENABLED", false),
			Publisher:    getEnv("EVENTS_PUBLISHER", "gochannel"),
			KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
			Topic:        getEnv("EVENTS_TOPIC", "quiz-session"),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
