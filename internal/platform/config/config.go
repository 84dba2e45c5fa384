package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errMaxRecordsOutOfRange  = errors.New("config: MAX_RECORDS must be 1-1000000")
	errMaxSessionsOutOfRange = errors.New("config: MAX_SESSIONS must be 1-10000")
	errConcurrencyOutOfRange = errors.New("config: CAPTURE_CONCURRENCY must be 1-100")
	errRateOutOfRange        = errors.New("config: CAPTURE_RATE must be greater than 0")
	errTimeoutOutOfRange     = errors.New("config: CAPTURE_TIMEOUT must be 1s-10m")
	errMaxBytesOutOfRange    = errors.New("config: CAPTURE_MAX_BYTES must be 1KiB-100MiB")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port               string
	LogLevel           string
	LogFile            string
	MaxRecords         int
	MaxSessions        int
	CaptureConcurrency int
	CaptureRate        float64 // captures per second across a batch
	CaptureTimeout     time.Duration
	CaptureMaxBytes    int64
	PoolsFile          string
	Sanitize           bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "ERROR"),
		LogFile:            getEnv("LOG_FILE", ""),
		MaxRecords:         getEnvAsInt("MAX_RECORDS", 10000),
		MaxSessions:        getEnvAsInt("MAX_SESSIONS", 100),
		CaptureConcurrency: getEnvAsInt("CAPTURE_CONCURRENCY", 4),
		CaptureRate:        getEnvAsFloat("CAPTURE_RATE", 5),
		CaptureTimeout:     getEnvAsDuration("CAPTURE_TIMEOUT", 30*time.Second),
		CaptureMaxBytes:    int64(getEnvAsInt("CAPTURE_MAX_BYTES", 10<<20)),
		PoolsFile:          getEnv("POOLS_FILE", ""),
		Sanitize:           getEnvAsBool("SANITIZE", true),
	}

	return cfg, cfg.Validate()
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.MaxRecords < 1 || c.MaxRecords > 1_000_000 {
		return fmt.Errorf("%w: got %d", errMaxRecordsOutOfRange, c.MaxRecords)
	}

	if c.MaxSessions < 1 || c.MaxSessions > 10_000 {
		return fmt.Errorf("%w: got %d", errMaxSessionsOutOfRange, c.MaxSessions)
	}

	if c.CaptureConcurrency < 1 || c.CaptureConcurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.CaptureConcurrency)
	}

	if c.CaptureRate <= 0 {
		return fmt.Errorf("%w: got %g", errRateOutOfRange, c.CaptureRate)
	}

	if c.CaptureTimeout < time.Second || c.CaptureTimeout > 10*time.Minute {
		return fmt.Errorf("%w: got %s", errTimeoutOutOfRange, c.CaptureTimeout)
	}

	if c.CaptureMaxBytes < 1<<10 || c.CaptureMaxBytes > 100<<20 {
		return fmt.Errorf("%w: got %d", errMaxBytesOutOfRange, c.CaptureMaxBytes)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}
