package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"STORAGE_DRIVER", "DATABASE_URL", "SERVER_PORT", "RECONCILE_INTERVAL",
	"RECONCILE_CONCURRENCY", "SIMULATION_RATE", "ANNUAL_RANKING_FILE", "OPS_JWT_SECRET",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
	"CORS_ALLOWED_ORIGINS", "SWISS_PAIRER",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/brackets")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 4, cfg.ReconcileConcurrency)
	assert.Equal(t, 10.0, cfg.SimulationRate)
	assert.False(t, cfg.R2.Enabled())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, SwissPairerBucket, cfg.SwissPairer)
}

func TestLoad_MemoryDriverNeedsNoDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("RECONCILE_INTERVAL", "5m")
	t.Setenv("SIMULATION_RATE", "0")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "placements")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://ops.example.com, ,http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
	assert.Zero(t, cfg.SimulationRate)
	assert.True(t, cfg.R2.Enabled())
	assert.Equal(t, []string{"https://ops.example.com", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database url", env: map[string]string{}},
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "port out of range", env: map[string]string{"STORAGE_DRIVER": "memory", "SERVER_PORT": "70000"}},
		{name: "port not a number", env: map[string]string{"STORAGE_DRIVER": "memory", "SERVER_PORT": "http"}},
		{name: "bad interval", env: map[string]string{"STORAGE_DRIVER": "memory", "RECONCILE_INTERVAL": "often"}},
		{name: "zero interval", env: map[string]string{"STORAGE_DRIVER": "memory", "RECONCILE_INTERVAL": "0s"}},
		{name: "zero concurrency", env: map[string]string{"STORAGE_DRIVER": "memory", "RECONCILE_CONCURRENCY": "0"}},
		{name: "negative rate", env: map[string]string{"STORAGE_DRIVER": "memory", "SIMULATION_RATE": "-1"}},
		{name: "unknown pairer", env: map[string]string{"STORAGE_DRIVER": "memory", "SWISS_PAIRER": "dutch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAnnualRanking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seasons:\n  2026: [101, 102, 103, 104, 105]\n  2025: [7, 8]\n"), 0o600))

	r, err := LoadAnnualRanking(path)
	require.NoError(t, err)

	top, err := r.TopTeams(context.Background(), 2026, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102, 103, 104}, top)

	short, err := r.TopTeams(context.Background(), 2025, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, short)

	_, err = r.TopTeams(context.Background(), 1999, 4)
	assert.ErrorIs(t, err, ErrSeasonNotRanked)

	_, err = LoadAnnualRanking(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseAnnualRanking_Rejects(t *testing.T) {
	for name, raw := range map[string]string{
		"duplicate team": "seasons:\n  2026: [1, 2, 1]\n",
		"zero team":      "seasons:\n  2026: [0, 2]\n",
		"not yaml":       "seasons: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAnnualRanking([]byte(raw))
			assert.Error(t, err)
		})
	}
}
