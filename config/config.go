package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/session"
	"github.com/rustyeddy/rangetrader/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents the complete run configuration
type Config struct {
	Instrument string         `json:"instrument" yaml:"instrument"`
	Timezone   string         `json:"timezone" yaml:"timezone"`
	Strategy   StrategyConfig `json:"strategy" yaml:"strategy"`
	Bars       BarsConfig     `json:"bars" yaml:"bars"`
	Store      StoreConfig    `json:"store" yaml:"store"`
	Report     ReportConfig   `json:"report" yaml:"report"`
	Log        LogConfig      `json:"log" yaml:"log"`
}

// StrategyConfig selects the strategy and optionally overrides its window
type StrategyConfig struct {
	Name   string        `json:"name" yaml:"name"`
	Window *WindowConfig `json:"window,omitempty" yaml:"window,omitempty"`
}

// WindowConfig overrides the session split. Times are HH:MM in the trading zone.
type WindowConfig struct {
	ReferenceStart   string `json:"reference_start" yaml:"reference_start"`
	Split            string `json:"split" yaml:"split"`
	End              string `json:"end" yaml:"end"`
	MinReferenceBars int    `json:"min_reference_bars" yaml:"min_reference_bars"`
}

// BarsConfig points at the bar CSV
type BarsConfig struct {
	Path string `json:"path" yaml:"path"`
	From string `json:"from,omitempty" yaml:"from,omitempty"` // YYYY-MM-DD, inclusive
	To   string `json:"to,omitempty" yaml:"to,omitempty"`     // YYYY-MM-DD, inclusive
}

// StoreConfig contains trade log parameters
type StoreConfig struct {
	Type   string `json:"type" yaml:"type"`     // "xlsx", "csv" or "sqlite"; empty guesses from path
	Path   string `json:"path" yaml:"path"`
	Policy string `json:"policy" yaml:"policy"` // "upsert" or "incremental"
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// ReportConfig contains optional report outputs
type ReportConfig struct {
	OrgPath     string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
	MetricsPath string `json:"metrics_path,omitempty" yaml:"metrics_path,omitempty"`
}

// LogConfig contains logger parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

// Load builds the effective configuration: defaults, then the file at path
// (if any), then TRADER_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.decodeFile(path); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, c)
	if err != nil {
		err = json.Unmarshal(data, c)
		if err != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads variables from a dotenv file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from TRADER_* environment variables.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for key, dst := range map[string]*string{
		"TRADER_INSTRUMENT":   &c.Instrument,
		"TRADER_TIMEZONE":     &c.Timezone,
		"TRADER_STRATEGY":     &c.Strategy.Name,
		"TRADER_BARS":         &c.Bars.Path,
		"TRADER_FROM":         &c.Bars.From,
		"TRADER_TO":           &c.Bars.To,
		"TRADER_STORE_TYPE":   &c.Store.Type,
		"TRADER_STORE_PATH":   &c.Store.Path,
		"TRADER_STORE_POLICY": &c.Store.Policy,
		"TRADER_STORE_SCHEMA": &c.Store.Schema,
		"TRADER_ORG_PATH":     &c.Report.OrgPath,
		"TRADER_METRICS_PATH": &c.Report.MetricsPath,
		"TRADER_LOG_LEVEL":    &c.Log.Level,
		"TRADER_LOG_FORMAT":   &c.Log.Format,
	} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Instrument == "" {
		return fmt.Errorf("instrument is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if _, err := strategies.StrategyByName(c.Strategy.Name); err != nil {
		return fmt.Errorf("strategy.name: %w", err)
	}
	if _, err := c.Window(); err != nil {
		return fmt.Errorf("strategy.window: %w", err)
	}
	if _, _, err := c.Range(); err != nil {
		return err
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	switch strings.ToLower(c.Store.Type) {
	case "", journal.KindXLSX, "excel", journal.KindCSV, journal.KindSQLite, "sqlite3":
	default:
		return fmt.Errorf("store.type must be 'xlsx', 'csv' or 'sqlite'")
	}
	if _, err := journal.ParsePolicy(c.Store.Policy); err != nil {
		return fmt.Errorf("store.policy: %w", err)
	}
	if _, err := journal.ParseSchema(c.Store.Schema); err != nil {
		return fmt.Errorf("store.schema: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// StoreKind is store.type, or the type implied by the store.path extension
// when no type is set.
func (c *Config) StoreKind() string {
	if c.Store.Type != "" {
		return strings.ToLower(c.Store.Type)
	}
	return journal.KindFromPath(c.Store.Path)
}

// Location is the trading time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.LoadLocation("America/New_York")
	}
	return time.LoadLocation(c.Timezone)
}

// Window returns the window override, or nil to use the strategy's own.
func (c *Config) Window() (*session.Window, error) {
	wc := c.Strategy.Window
	if wc == nil {
		return nil, nil
	}

	var (
		w   session.Window
		err error
	)
	if w.ReferenceStart, err = parseClock(wc.ReferenceStart); err != nil {
		return nil, err
	}
	if w.Split, err = parseClock(wc.Split); err != nil {
		return nil, err
	}
	if w.End, err = parseClock(wc.End); err != nil {
		return nil, err
	}
	w.MinReferenceBars = wc.MinReferenceBars
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Range parses bars.from and bars.to. Zero values mean unbounded; to is
// returned as the end of its day.
func (c *Config) Range() (time.Time, time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var from, to time.Time
	if c.Bars.From != "" {
		if from, err = time.ParseInLocation("2006-01-02", c.Bars.From, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bars.from: %w", err)
		}
	}
	if c.Bars.To != "" {
		if to, err = time.ParseInLocation("2006-01-02", c.Bars.To, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bars.to: %w", err)
		}
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("bars.to is before bars.from")
	}
	return from, to, nil
}

func parseClock(s string) (time.Duration, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("bad time %q, want HH:MM", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 24 {
		return 0, fmt.Errorf("bad time %q, want HH:MM", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("bad time %q, want HH:MM", s)
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Instrument: "SPX",
		Timezone:   "America/New_York",
		Strategy: StrategyConfig{
			Name: "reversal",
		},
		Bars: BarsConfig{
			Path: "./data/spx_15m.csv",
		},
		Store: StoreConfig{
			Path:   "./trade_log.xlsx",
			Policy: journal.PolicyResolve.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
