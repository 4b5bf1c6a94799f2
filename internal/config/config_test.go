package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/config"
)

func TestGetConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("SITEPULSE_ENV", "test")
		config.Reset()
		t.Cleanup(config.Reset)

		cfg := config.GetConfig()

		assert.Equal(t, "sitepulse", cfg.AppName)
		assert.Equal(t, config.Test, cfg.Environment)
		assert.Equal(t, 90, cfg.RetentionDays)
		assert.Equal(t, 90*24*time.Hour, cfg.RetentionPeriod())
		assert.Equal(t, 24*time.Hour, cfg.RetentionInterval())
		assert.Equal(t, 10*time.Second, cfg.StoreTimeout())
		assert.Equal(t, "sitepulse_sid", cfg.SessionCookieName)
		assert.Equal(t, "storage/sitepulse-test.db", cfg.DatabaseName)
		assert.True(t, cfg.IsTest())
		assert.False(t, cfg.IsProduction())
	})

	t.Run("reads environment overrides", func(t *testing.T) {
		t.Setenv("SITEPULSE_ENV", "test")
		t.Setenv("SITEPULSE_RETENTION_DAYS", "30")
		t.Setenv("SITEPULSE_SITE_HOSTNAME", "jane.dev")
		t.Setenv("SITEPULSE_STORE_TIMEOUT_SECONDS", "3")
		config.Reset()
		t.Cleanup(config.Reset)

		cfg := config.GetConfig()

		assert.Equal(t, 30, cfg.RetentionDays)
		assert.Equal(t, "jane.dev", cfg.SiteHostname)
		assert.Equal(t, 3*time.Second, cfg.StoreTimeout())
	})

	t.Run("caches the first load", func(t *testing.T) {
		t.Setenv("SITEPULSE_ENV", "test")
		config.Reset()
		t.Cleanup(config.Reset)

		first := config.GetConfig()
		second := config.GetConfig()

		assert.Same(t, first, second)
	})
}

func TestConnectionPoolDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantOpen int
		wantIdle int
	}{
		{"test environment", config.Config{Environment: config.Test}, 1, 1},
		{"production environment", config.Config{Environment: config.Production}, 10, 5},
		{"explicit values win", config.Config{Environment: config.Test, DatabaseMaxOpenConns: 4, DatabaseMaxIdleConns: 2}, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOpen, tt.cfg.GetMaxOpenConns())
			assert.Equal(t, tt.wantIdle, tt.cfg.GetMaxIdleConns())
		})
	}
}
