// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Market data provider (Financial Modeling Prep compatible API)
	FMPAPIKey  string
	FMPBaseURL string

	// Benchmark symbols for performance snapshots
	SP500Symbol  string
	NasdaqSymbol string

	// Cron expression for the daily performance snapshot job
	SnapshotSchedule string

	// Backup to S3-compatible object storage (disabled unless bucket is set)
	Backup BackupConfig
}

// BackupConfig holds object-storage backup configuration
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Endpoint  string // Optional custom endpoint (R2, MinIO, ...)
	Region    string
	AccessKey string
	SecretKey string
	Schedule  string // Cron expression
}

// Load reads configuration from environment variables.
// A .env file is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DATA_DIR to absolute path: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             port,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnv("DEV_MODE", "false") == "true",
		FMPAPIKey:        os.Getenv("FMP_API_KEY"),
		FMPBaseURL:       getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		SP500Symbol:      getEnv("BENCHMARK_SP500", "SPY"),
		NasdaqSymbol:     getEnv("BENCHMARK_NASDAQ", "QQQ"),
		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "5 21 * * 1-5"),
		Backup: BackupConfig{
			Bucket:    os.Getenv("BACKUP_BUCKET"),
			Endpoint:  os.Getenv("BACKUP_ENDPOINT"),
			Region:    getEnv("BACKUP_REGION", "auto"),
			AccessKey: os.Getenv("BACKUP_ACCESS_KEY"),
			SecretKey: os.Getenv("BACKUP_SECRET_KEY"),
			Schedule:  getEnv("BACKUP_SCHEDULE", "0 2 * * *"),
		},
	}
	cfg.Backup.Enabled = cfg.Backup.Bucket != ""

	return cfg, nil
}

// DatabasePath returns the path of the portfolio database file
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "portfolio.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
