package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Ledger   LedgerConfig   `yaml:"ledger"`
	Database DatabaseConfig `yaml:"database"`
	Prices   PricesConfig   `yaml:"prices"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

type LedgerConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"` // xlsx sheet holding the operations table
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" or "postgres"
	DSN    string `yaml:"dsn"`
}

type PricesConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type OutputConfig struct {
	Dir        string `yaml:"dir"`
	DetailFile string `yaml:"detail_file"`
	TotalsFile string `yaml:"totals_file"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"` // empty means allow all
}

type ScheduleConfig struct {
	Cron       string `yaml:"cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Load reads, defaults and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s invalid: %w", path, err)
	}
	return &c, nil
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Ledger.Sheet == "" {
		c.Ledger.Sheet = "opérations"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "data/patrimoine.db"
	}
	if c.Prices.BaseURL == "" {
		c.Prices.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Prices.TimeoutSeconds == 0 {
		c.Prices.TimeoutSeconds = 30
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "data/outputs"
	}
	if c.Output.DetailFile == "" {
		c.Output.DetailFile = "Cours_Marches.csv"
	}
	if c.Output.TotalsFile == "" {
		c.Output.TotalsFile = "ValeurMarcheJour.csv"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5077
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 5 * * *" // daily at 05:00, after overnight close data settles
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Ledger.Path == "" {
		return errors.New("ledger.path is required")
	}
	ext := strings.ToLower(c.Ledger.Path)
	if !strings.HasSuffix(ext, ".xlsx") && !strings.HasSuffix(ext, ".csv") {
		return fmt.Errorf("ledger.path must point to an .xlsx or .csv file, got %q", c.Ledger.Path)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
