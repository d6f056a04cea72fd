package cmd_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fooddelivery/cmd"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("falls back to the default automation settings", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "secret")

		cfg, err := cmd.LoadConfig("")

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.Equal(t, cmd.LeaseBackendPostgres, cfg.LeaseBackend)
		assert.Equal(t, 5*time.Second, cfg.StepTimeout)
		assert.Equal(t, 15*time.Second, cfg.SettingsRefreshInterval)
		assert.Equal(t, automation.DefaultSettings(), cfg.Settings())
	})

	t.Run("environment overrides nested keys", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "secret")
		t.Setenv("LEASE_BACKEND", "redis")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("TIMEZONE", "Asia/Ho_Chi_Minh")
		t.Setenv("AUTOMATION_PREPARING_TO_READY", "20m")
		t.Setenv("AUTOMATION_SWEEP_INTERVALS_OVERDUE_CHECK", "1m")
		t.Setenv("AUTOMATION_BUSINESS_HOURS_START", "06:30")

		cfg, err := cmd.LoadConfig("")

		require.NoError(t, err)
		assert.Equal(t, cmd.LeaseBackendRedis, cfg.LeaseBackend)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		s := cfg.Settings()
		assert.Equal(t, 20*time.Minute, s.PreparingToReady)
		assert.Equal(t, time.Minute, s.SweepIntervals.OverdueCheck)
		assert.Equal(t, automation.ClockTime{Hour: 6, Minute: 30}, s.BusinessHours.Start)

		loc, err := cfg.Location()
		require.NoError(t, err)
		assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
	})

	t.Run("reads a yaml config file", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "secret")
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
http_port: "9090"
step_timeout: 2s
automation:
  delivery_timeout: 1h
  business_hours:
    end: "23:30"
`), 0o600))

		cfg, err := cmd.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.HTTPPort)
		assert.Equal(t, 2*time.Second, cfg.StepTimeout)
		assert.Equal(t, time.Hour, cfg.Settings().DeliveryTimeout)
		assert.Equal(t, automation.ClockTime{Hour: 23, Minute: 30}, cfg.Settings().BusinessHours.End)
	})

	t.Run("admin token is required", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "")

		_, err := cmd.LoadConfig("")

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("unknown lease backend is rejected", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "secret")
		t.Setenv("LEASE_BACKEND", "etcd")

		_, err := cmd.LoadConfig("")

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("malformed business hours are rejected", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "secret")
		t.Setenv("AUTOMATION_BUSINESS_HOURS_END", "25:00")

		_, err := cmd.LoadConfig("")

		assert.Error(t, err)
	})

	t.Run("a non-positive settings refresh interval is rejected", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "secret")
		t.Setenv("SETTINGS_REFRESH_INTERVAL", "0s")

		_, err := cmd.LoadConfig("")

		assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("unknown timezone is rejected", func(t *testing.T) {
		t.Setenv("ADMIN_TOKEN", "secret")
		t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

		_, err := cmd.LoadConfig("")

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestConfig_DSN(t *testing.T) {
	cfg := cmd.Config{
		DBHost: "db", DBPort: "5432", DBUser: "app", DBPassword: "pw", DBName: "orders", DBSslMode: "disable",
	}

	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=orders sslmode=disable", cfg.DSN())
}
