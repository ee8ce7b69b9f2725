package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	FareEngine FareEngineConfig
	Retry      RetryConfig
	Geo        GeoConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// FareEngineConfig holds upstream fare engine configuration
type FareEngineConfig struct {
	BaseURL        string
	APIKey         string
	Market         string
	Currency       string
	CurrencySymbol string
	Locale         string
	PollDelay      time.Duration
	PrecallWait    time.Duration
	SessionTTL     time.Duration
}

// RetryConfig bounds the create/poll restart policy
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration
}

// GeoConfig holds the static place dataset configuration
type GeoConfig struct {
	DatasetPath string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		FareEngine: FareEngineConfig{
			BaseURL:        getEnv("FARE_ENGINE_URL", "http://localhost:9090"),
			APIKey:         getEnv("FARE_ENGINE_API_KEY", ""),
			Market:         getEnv("FARE_ENGINE_MARKET", "UK"),
			Currency:       getEnv("FARE_ENGINE_CURRENCY", "GBP"),
			CurrencySymbol: getEnv("FARE_ENGINE_CURRENCY_SYMBOL", "£"),
			Locale:         getEnv("FARE_ENGINE_LOCALE", "en-GB"),
			PollDelay:      getEnvAsDuration("FARE_ENGINE_POLL_DELAY", 5*time.Second),
			PrecallWait:    getEnvAsDuration("FARE_ENGINE_PRECALL_WAIT", 2*time.Second),
			SessionTTL:     getEnvAsDuration("FARE_ENGINE_SESSION_TTL", 30*time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts:     getEnvAsInt("SEARCH_RETRY_MAX_ATTEMPTS", 10),
			InitialDelay:    getEnvAsDuration("SEARCH_RETRY_INITIAL_DELAY", 500*time.Millisecond),
			MaxDelay:        getEnvAsDuration("SEARCH_RETRY_MAX_DELAY", 10*time.Second),
			BackoffFactor:   getEnvAsFloat("SEARCH_RETRY_BACKOFF_FACTOR", 2.0),
			MaxTotalTimeout: getEnvAsDuration("SEARCH_RETRY_TOTAL_TIMEOUT", 2*time.Minute),
		},
		Geo: GeoConfig{
			DatasetPath: getEnv("GEO_DATASET_PATH", "data/places.json"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "flight-search"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerAddr returns the HTTP listen address
func (c *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
