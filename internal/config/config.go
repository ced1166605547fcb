package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// maxBatchRows is the bulk-write row-count ceiling of the backing store.
// The default batch size of 500 stays under it with margin.
const maxBatchRows = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL string
	CSVPath     string
	BatchSize   int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// StoreTimeout bounds each individual store call. Zero means no timeout,
	// which is acceptable for a manually-triggered batch job.
	StoreTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. DATABASE_URL is required; a missing value is a setup failure
// that must abort before any write occurs.
func Load() (*Config, error) {
	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	storeTimeout, err := parseDurationEnv("STORE_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CSVPath:         envOrDefault("CSV_PATH", "data/nation.csv"),
		BatchSize:       batchSize,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		StoreTimeout:    storeTimeout,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBatchSize() (int, error) {
	s := envOrDefault("BATCH_SIZE", "500")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid BATCH_SIZE %q", s)
	}
	if n > maxBatchRows {
		return 0, fmt.Errorf("BATCH_SIZE %d exceeds store row-count ceiling %d", n, maxBatchRows)
	}
	return n, nil
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}
