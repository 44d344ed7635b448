// Package config holds tunable constants and the environment-driven runtime
// configuration of the service.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration assembled from the environment.
type Config struct {
	HTTPAddr string

	// RealtimeBackend selects the broker: "redis", "nats" or "memory".
	RealtimeBackend string
	Topic           string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	NatsURL         string

	// DBDriver is "postgres" or "sqlite".
	DBDriver string
	DBDSN    string

	JWTSecret string

	AMQPURL      string
	AMQPExchange string

	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

// Load reads an optional .env file and builds a Config from the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		RealtimeBackend: getEnv("REALTIME_BACKEND", "redis"),
		Topic:           getEnv("REALTIME_TOPIC", DefaultTopic),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6380"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		NatsURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DBDSN:           getEnv("DB_DSN", "host=localhost user=user password=password dbname=chatterbox port=5432 sslmode=disable"),
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "chatterbox.audit"),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:     getEnv("SERVICE_NAME", "chatterbox"),
		Environment:     getEnv("APP_ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, val, fallback)
		return fallback
	}
	return n
}
