package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
env: dev
storage_path: postgres://localhost/booking
http_server:
  address: ":9090"
booking:
  location: UTC
  lead_time: 12h
  durations: [30, 60]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTPServer.Address)
	assert.Equal(t, 12*time.Hour, cfg.Booking.LeadTime)
	assert.Equal(t, []int{30, 60}, cfg.Booking.Durations)
	assert.Equal(t, 30, cfg.Booking.SlotStep)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)

	loc, err := cfg.Booking.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_UnknownLocation(t *testing.T) {
	path := writeConfig(t, `
storage_path: postgres://localhost/booking
booking:
  location: Nowhere/Atlantis
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingStorage(t *testing.T) {
	path := writeConfig(t, `
booking:
  location: UTC
`)

	_, err := Load(path)
	assert.Error(t, err)
}
