package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Tasks.PageSize)
	assert.Equal(t, 300, cfg.Media.ProfileImageMax)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenDuration)
	assert.True(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.ValidateConfig())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("TIME_ZONE", "Europe/Istanbul")
	t.Setenv("JWT_ACCESS_TOKEN_DURATION", "1h")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Tasks.PageSize)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenDuration)
	assert.False(t, cfg.Server.AutoMigrate)
	assert.Equal(t, "debug", cfg.Server.LogLevel)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Istanbul", loc.String())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Tasks.PageSize = 0 },
			wantErr: "PAGE_SIZE",
		},
		{
			name:    "bad time zone",
			mutate:  func(c *Config) { c.Tasks.TimeZone = "Mars/Olympus" },
			wantErr: "load time zone",
		},
		{
			name:    "dev secrets in production",
			mutate:  func(c *Config) { c.Server.Environment = "production" },
			wantErr: "JWT secrets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.ValidateConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
