package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AEX_DATABASE_URL", "postgres://aex@localhost/aex")
	t.Setenv("AEX_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("AEX_ORDER_TIMEOUT", "3s")

	cfg, err := loadConfig([]string{})
	require.NoError(t, err)

	assert.Equal(t, "postgres://aex@localhost/aex", cfg.DatabaseURL)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "aex.orders.events", cfg.Kafka.Topic)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 3*time.Second, cfg.OrderTimeout)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "database_url: postgres://file@localhost/aex\noutbox:\n  batch_size: 25\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := loadConfig([]string{})
	require.NoError(t, err)

	assert.Equal(t, "postgres://file@localhost/aex", cfg.DatabaseURL)
	assert.Equal(t, 25, cfg.Outbox.BatchSize)
}

func TestApplyPlatformDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		env      map[string]string
		wantAddr string
		wantDB   string
	}{
		{
			name:     "platform port and database",
			cfg:      Config{Addr: defaultAddr},
			env:      map[string]string{"PORT": "9000", "DATABASE_URL": "postgres://platform"},
			wantAddr: "0.0.0.0:9000",
			wantDB:   "postgres://platform",
		},
		{
			name:     "explicit values win",
			cfg:      Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit"},
			env:      map[string]string{"PORT": "9000", "DATABASE_URL": "postgres://platform"},
			wantAddr: "127.0.0.1:7000",
			wantDB:   "postgres://explicit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := tt.cfg
			cfg.applyPlatformDefaults()

			assert.Equal(t, tt.wantAddr, cfg.Addr)
			assert.Equal(t, tt.wantDB, cfg.DatabaseURL)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseURL: "postgres://x",
			RateLimit:   RateLimitConfig{Max: 1, Window: time.Second},
			Outbox:      OutboxConfig{BatchSize: 1, MaxAttempts: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no database", func(c *Config) { c.DatabaseURL = "" }, "database URL is required"},
		{"negative timeout", func(c *Config) { c.OrderTimeout = -time.Second }, "order timeout"},
		{"zero rate limit", func(c *Config) { c.RateLimit.Max = 0 }, "rate limit"},
		{"zero batch", func(c *Config) { c.Outbox.BatchSize = 0 }, "outbox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
