package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/rangetrader/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "SPX", cfg.Instrument)
	assert.Equal(t, "reversal", cfg.Strategy.Name)
	assert.Equal(t, "upsert", cfg.Store.Policy)
	assert.Equal(t, "./trade_log.xlsx", cfg.Store.Path)
	assert.Empty(t, cfg.Store.Type)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	with := func(f func(c *Config)) *Config {
		c := Default()
		f(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  Default(),
			wantErr: false,
		},
		{
			name:    "missing instrument",
			config:  with(func(c *Config) { c.Instrument = "" }),
			wantErr: true,
			errMsg:  "instrument is required",
		},
		{
			name:    "unknown timezone",
			config:  with(func(c *Config) { c.Timezone = "Mars/Olympus" }),
			wantErr: true,
			errMsg:  "timezone",
		},
		{
			name:    "unknown strategy",
			config:  with(func(c *Config) { c.Strategy.Name = "ema-cross" }),
			wantErr: true,
			errMsg:  "unknown strategy",
		},
		{
			name: "bad window",
			config: with(func(c *Config) {
				c.Strategy.Window = &WindowConfig{ReferenceStart: "11:30", Split: "09:30", End: "16:00", MinReferenceBars: 8}
			}),
			wantErr: true,
			errMsg:  "strategy.window",
		},
		{
			name:    "bad from date",
			config:  with(func(c *Config) { c.Bars.From = "03/01/2024" }),
			wantErr: true,
			errMsg:  "bars.from",
		},
		{
			name: "to before from",
			config: with(func(c *Config) {
				c.Bars.From = "2024-03-10"
				c.Bars.To = "2024-03-01"
			}),
			wantErr: true,
			errMsg:  "bars.to is before bars.from",
		},
		{
			name:    "missing store path",
			config:  with(func(c *Config) { c.Store.Path = "" }),
			wantErr: true,
			errMsg:  "store.path is required",
		},
		{
			name:    "unknown store type",
			config:  with(func(c *Config) { c.Store.Type = "parquet" }),
			wantErr: true,
			errMsg:  "store.type must be",
		},
		{
			name:    "unknown policy",
			config:  with(func(c *Config) { c.Store.Policy = "merge" }),
			wantErr: true,
			errMsg:  "store.policy",
		},
		{
			name:    "unknown schema",
			config:  with(func(c *Config) { c.Store.Schema = "wide" }),
			wantErr: true,
			errMsg:  "store.schema",
		},
		{
			name:    "unknown log format",
			config:  with(func(c *Config) { c.Log.Format = "xml" }),
			wantErr: true,
			errMsg:  "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Strategy.Name = "momentum"
			cfg.Store.Policy = "incremental"
			cfg.Report.OrgPath = "./run.org"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			// Save
			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			// Verify file exists
			_, err = os.Stat(path)
			require.NoError(t, err)

			// Load
			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			// Compare
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy:\n  name: momentum\nstore:\n  path: ./log.csv\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "momentum", cfg.Strategy.Name)
	assert.Equal(t, "./log.csv", cfg.Store.Path)
	assert.Equal(t, "SPX", cfg.Instrument)
	assert.Equal(t, "America/New_York", cfg.Timezone)
}

func TestStoreKindFollowsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: ./trades.csv\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Store.Type)
	assert.Equal(t, "csv", cfg.StoreKind())

	cfg = Default()
	cfg.applyEnv(func(k string) (string, bool) {
		if k == "TRADER_STORE_PATH" {
			return "/var/lib/trader/runs.sqlite", true
		}
		return "", false
	})
	assert.Equal(t, "sqlite", cfg.StoreKind())

	assert.Equal(t, "xlsx", Default().StoreKind())

	cfg.Store.Type = "CSV"
	assert.Equal(t, "csv", cfg.StoreKind())
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TRADER_STRATEGY":     "momentum",
		"TRADER_STORE_PATH":   "/var/lib/trader/log.db",
		"TRADER_STORE_POLICY": " incremental ",
		"TRADER_LOG_LEVEL":    "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	cfg.applyEnv(lookup)

	assert.Equal(t, "momentum", cfg.Strategy.Name)
	assert.Equal(t, "/var/lib/trader/log.db", cfg.Store.Path)
	assert.Equal(t, "incremental", cfg.Store.Policy)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadAppliesEnv(t *testing.T) {
	t.Setenv("TRADER_INSTRUMENT", "NDX")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "NDX", cfg.Instrument)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRADER_TEST_ONLY_VAR=from-dotenv\n"), 0644))
	t.Setenv("TRADER_TEST_ONLY_VAR", "")
	os.Unsetenv("TRADER_TEST_ONLY_VAR")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv("TRADER_TEST_ONLY_VAR"))
}

func TestWindowOverride(t *testing.T) {
	cfg := Default()

	w, err := cfg.Window()
	require.NoError(t, err)
	assert.Nil(t, w)

	cfg.Strategy.Window = &WindowConfig{ReferenceStart: "09:30", Split: "13:00", End: "16:00", MinReferenceBars: 14}
	w, err = cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, session.MiddayWindow, *w)

	cfg.Strategy.Window.Split = "1300"
	_, err = cfg.Window()
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	cfg := Default()

	from, to, err := cfg.Range()
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	cfg.Bars.From = "2024-03-01"
	cfg.Bars.To = "2024-03-01"
	from, to, err = cfg.Range()
	require.NoError(t, err)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.True(t, from.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)))
	assert.True(t, to.After(time.Date(2024, 3, 1, 23, 59, 59, 0, loc)))
	assert.True(t, to.Before(time.Date(2024, 3, 2, 0, 0, 0, 0, loc)))
}
