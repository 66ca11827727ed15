package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	SwissPairerBucket         = "bucket"
	SwissPairerAvoidRematches = "avoid_rematches"
)

// Config holds the engine process settings.
type Config struct {
	StorageDriver string
	DatabaseURL   string
	ServerPort    int

	ReconcileInterval    time.Duration
	ReconcileConcurrency int
	SimulationRate       float64
	SwissPairer          string

	AnnualRankingFile  string
	OpsJWTSecret       string
	CORSAllowedOrigins []string

	R2 R2Config
}

// R2Config enables the placement archive when every field is set.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		SwissPairer:       strings.ToLower(getEnv("SWISS_PAIRER", SwissPairerBucket)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AnnualRankingFile: os.Getenv("ANNUAL_RANKING_FILE"),
		OpsJWTSecret:      os.Getenv("OPS_JWT_SECRET"),
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case StorageDriverMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, cfg.StorageDriver)
	}

	if cfg.SwissPairer != SwissPairerBucket && cfg.SwissPairer != SwissPairerAvoidRematches {
		return nil, fmt.Errorf("SWISS_PAIRER must be %q or %q, got %q", SwissPairerBucket, SwissPairerAvoidRematches, cfg.SwissPairer)
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	cfg.ReconcileInterval, err = time.ParseDuration(getEnv("RECONCILE_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_INTERVAL environment variable: %w", err)
	}
	if cfg.ReconcileInterval <= 0 {
		return nil, fmt.Errorf("RECONCILE_INTERVAL must be positive, got %s", cfg.ReconcileInterval)
	}

	cfg.ReconcileConcurrency, err = strconv.Atoi(getEnv("RECONCILE_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_CONCURRENCY environment variable: %w", err)
	}
	if cfg.ReconcileConcurrency < 1 {
		return nil, fmt.Errorf("RECONCILE_CONCURRENCY must be at least 1, got %d", cfg.ReconcileConcurrency)
	}

	cfg.SimulationRate, err = strconv.ParseFloat(getEnv("SIMULATION_RATE", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SIMULATION_RATE environment variable: %w", err)
	}
	if cfg.SimulationRate < 0 {
		return nil, fmt.Errorf("SIMULATION_RATE must not be negative, got %v", cfg.SimulationRate)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
