package common

import (
	"os"
	"strconv"
	"time"

	"github.com/swimline/heatsheet/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Redis    RedisConfig
	Renderer RendererConfig
	LLM      LLMConfig
	Extract  ExtractConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// RedisConfig holds the reservation store configuration. Addr may be empty,
// in which case the stampede guard is disabled.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RendererConfig points at the PDF rasterizer collaborator.
type RendererConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LLMConfig holds model-provider configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ExtractConfig holds batch/retry tuning for the image path.
type ExtractConfig struct {
	BatchPages   int
	BatchStagger time.Duration
	MaxAttempts  int
	RetryBase    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Renderer: RendererConfig{
			BaseURL: getEnv("RENDERER_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("RENDERER_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
		},
		Extract: ExtractConfig{
			BatchPages:   getEnvAsInt("EXTRACT_BATCH_PAGES", constants.DefaultBatchPages),
			BatchStagger: getEnvAsDuration("EXTRACT_BATCH_STAGGER", constants.DefaultBatchStagger),
			MaxAttempts:  getEnvAsInt("EXTRACT_MAX_ATTEMPTS", constants.DefaultMaxAttempts),
			RetryBase:    getEnvAsDuration("EXTRACT_RETRY_BASE", constants.DefaultRetryBase),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. Missing credentials are fatal
// at startup, never per-request.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_BASE_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
