package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `validate:"oneof=development testing production"`
	Server      ServerConfig
	RateLimit   RateLimitConfig
	Limits      LimitsConfig
	Processing  ProcessingConfig
	History     HistoryConfig
	Log         LogConfig
}

type ServerConfig struct {
	Host             string
	Port             string        `validate:"required,numeric"`
	ReadTimeout      time.Duration `validate:"gt=0"`
	WriteTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout  time.Duration `validate:"gt=0"`
	CORSAllowOrigins []string      `validate:"min=1,dive,required"`
}

type RateLimitConfig struct {
	PerSecond float64 `validate:"gte=0"`
	Burst     int     `validate:"gte=1"`
}

type LimitsConfig struct {
	MaxFileSize  int64 `validate:"gtfield=MinFileSize"`
	MinFileSize  int64 `validate:"gte=0"`
	MaxTextBytes int   `validate:"gt=0"`
}

type ProcessingConfig struct {
	ConfidenceThreshold float64 `validate:"gte=0,lte=2"`
	FallbackYear        int     `validate:"gte=2000,lte=2100"`
	Deduplicate         bool
	Pdftotext           bool
	OCR                 bool
}

type HistoryConfig struct {
	Driver string `validate:"omitempty,oneof=sqlite postgres"`
	DSN    string `validate:"required_with=Driver"`
}

type LogConfig struct {
	Level  string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `validate:"oneof=console json"`
}

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:             getEnv("SERVER_HOST", "0.0.0.0"),
			Port:             getEnv("SERVER_PORT", "8080"),
			ReadTimeout:      getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:     getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:  getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSAllowOrigins: getListEnv("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		RateLimit: RateLimitConfig{
			PerSecond: getFloatEnv("RATE_LIMIT_PER_SECOND", 2),
			Burst:     getIntEnv("RATE_LIMIT_BURST", 5),
		},
		Limits: LimitsConfig{
			MaxFileSize:  int64(getIntEnv("MAX_FILE_SIZE_BYTES", 50<<20)),
			MinFileSize:  int64(getIntEnv("MIN_FILE_SIZE_BYTES", 1024)),
			MaxTextBytes: getIntEnv("PROCESSING_MAX_TEXT_BYTES", 8<<20),
		},
		Processing: ProcessingConfig{
			ConfidenceThreshold: getFloatEnv("DETECTION_CONFIDENCE_THRESHOLD", 0.6),
			FallbackYear:        getIntEnv("FALLBACK_STATEMENT_YEAR", 2024),
			Deduplicate:         getBoolEnv("DEDUPLICATE_TRANSACTIONS", false),
			Pdftotext:           getBoolEnv("EXTRACT_WITH_PDFTOTEXT", true),
			OCR:                 getBoolEnv("EXTRACT_WITH_OCR", false),
		},
		History: HistoryConfig{
			Driver: getEnv("HISTORY_DRIVER", ""),
			DSN:    getEnv("HISTORY_DSN", ""),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	defaultFormat := "console"
	if cfg.IsProduction() {
		defaultFormat = "json"
	}
	cfg.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", defaultFormat))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// IsProduction reports whether APP_ENV is production, which switches the
// default log format to JSON.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) HistoryEnabled() bool {
	return c.History.Driver != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
