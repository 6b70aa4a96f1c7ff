package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "p95", cfg.Billing.Percentile)
				assert.Equal(t, "Traffic_xxx_xxx_25", cfg.Billing.DefaultOutputName)
				assert.Equal(t, int64(64<<20), cfg.Billing.MaxUploadBytes)
				assert.Equal(t, 2*time.Hour, cfg.Billing.SessionTTL)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.True(t, cfg.Security.RateLimit.Enabled)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"BILLING_SERVER_PORT":   "9090",
				"BILLING_PERCENTILE":    "0.99",
				"BILLING_SESSION_TTL":   "30m",
				"BILLING_LOGGING_LEVEL": "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "0.99", cfg.Billing.Percentile)
				assert.Equal(t, 30*time.Minute, cfg.Billing.SessionTTL)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout, "unset values keep defaults")
			},
		},
		{
			name: "file overlays defaults",
			file: "server:\n  port: 7070\nbilling:\n  percentile: p90\n  default_output_name: March\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "p90", cfg.Billing.Percentile)
				assert.Equal(t, "March", cfg.Billing.DefaultOutputName)
				assert.Equal(t, int64(64<<20), cfg.Billing.MaxUploadBytes)
			},
		},
		{
			name: "environment wins over file",
			env:  map[string]string{"BILLING_SERVER_PORT": "6060"},
			file: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
			},
		},
		{
			name:    "invalid percentile",
			env:     map[string]string{"BILLING_PERCENTILE": "p150"},
			wantErr: true,
		},
		{
			name:    "invalid port",
			env:     map[string]string{"BILLING_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid timezone",
			env:     map[string]string{"BILLING_TIMEZONE": "Mars/Olympus"},
			wantErr: true,
		},
		{
			name:    "malformed file",
			file:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				t.Setenv(ConfigFileEnv, writeConfigFile(t, tt.file))
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_BillingVariables(t *testing.T) {
	t.Setenv("BILLING_PERCENTILE", "p99")
	t.Setenv("BILLING_TIMEZONE", "UTC")
	t.Setenv("BILLING_DEFAULT_OUTPUT_NAME", "April")
	t.Setenv(ConfigFileEnv, writeConfigFile(t, "billing:\n  percentile: p90\n"))

	cfg, err := Load()
	require.NoError(t, err)

	level, err := cfg.Billing.Level()
	require.NoError(t, err)
	assert.InDelta(t, 0.99, level, 1e-12)
	assert.Equal(t, "UTC", cfg.Billing.Timezone)
	assert.Equal(t, "April", cfg.Billing.DefaultOutputName)
	assert.Equal(t, 2*time.Hour, cfg.Billing.SessionTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestBillingConfig_Level(t *testing.T) {
	level, err := BillingConfig{Percentile: "p95"}.Level()
	require.NoError(t, err)
	assert.InDelta(t, 0.95, level, 1e-12)

	level, err = BillingConfig{}.Level()
	require.NoError(t, err)
	assert.InDelta(t, 0.95, level, 1e-12)

	_, err = BillingConfig{Percentile: "high"}.Level()
	assert.Error(t, err)
}

func TestBillingConfig_Location(t *testing.T) {
	loc, err := BillingConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = BillingConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestValidate_LogFileDefault(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "logs/billing.log", cfg.Logging.FilePath)

	cfg.Logging.Output = "syslog"
	assert.Error(t, cfg.validate())
}
