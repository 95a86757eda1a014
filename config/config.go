package config

import (
	"fmt"
	"os"
	"time"
)

// UnknownFramePolicy controls how the store reacts to an inbound frame that
// matches none of the recognized shapes.
type UnknownFramePolicy string

const (
	// UnknownFrameLog logs the frame and continues.
	UnknownFrameLog UnknownFramePolicy = "log"

	// UnknownFrameFail logs the frame and terminates the client.
	UnknownFrameFail UnknownFramePolicy = "fail"
)

type Config struct {
	// Feed endpoint configuration
	FeedOrigin string // page origin, e.g. https://gobet.example.com
	FeedURL    string // explicit ws(s) URL; overrides FeedOrigin when set

	// Reconnect tuning
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
	ReconnectDecay       float64
	ConnectTimeout       time.Duration

	// Store behaviour
	InfoMessageTimeout time.Duration
	UnknownFrame       UnknownFramePolicy

	// Downstream HTTP/WebSocket surface
	Port      string
	StaticDir string

	// Optional raw-frame archive (disabled when empty)
	DatabaseURL string

	// Optional AMQP fan-out bridge (disabled when empty)
	AMQPURL      string
	AMQPExchange string

	Environment string
}

func Load() *Config {
	return &Config{
		FeedOrigin: getEnv("FEED_ORIGIN", "http://localhost:8090"),
		FeedURL:    getEnv("FEED_URL", ""),

		ReconnectInterval:    getEnvDuration("RECONNECT_INTERVAL", 1*time.Second),
		MaxReconnectInterval: getEnvDuration("MAX_RECONNECT_INTERVAL", 30*time.Second),
		ReconnectDecay:       getEnvFloat("RECONNECT_DECAY", 1.5),
		ConnectTimeout:       getEnvDuration("CONNECT_TIMEOUT", 2*time.Second),

		InfoMessageTimeout: getEnvDuration("INFO_MESSAGE_TIMEOUT", 60*time.Second),
		UnknownFrame:       getUnknownFramePolicy(),

		Port:      getEnv("PORT", "8080"),
		StaticDir: getEnv("STATIC_DIR", "./static"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "gobet.football"),

		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result float64
	fmt.Sscanf(value, "%f", &result)
	if result <= 0 {
		return defaultValue
	}
	return result
}

func getUnknownFramePolicy() UnknownFramePolicy {
	switch getEnv("UNKNOWN_FRAME_POLICY", "log") {
	case "fail":
		return UnknownFrameFail
	default:
		return UnknownFrameLog
	}
}
