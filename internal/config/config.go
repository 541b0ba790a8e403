// Package config provides YAML-based configuration loading for Spindle.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMachines is the machine set used when the config names none.
var DefaultMachines = []string{"CNC1", "CNC2", "CNC3", "CNC4", "CNC5"}

// Conflict policies for a second current job on the same machine.
const (
	ConflictReject = "reject"
	ConflictDemote = "demote"
)

// Config is the top-level Spindle configuration, loaded from spindle.yaml.
type Config struct {
	Machines []string       `yaml:"machines"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Notify   NotifyConfig   `yaml:"notify"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the gorm dialect and its connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite file, ":memory:" for tests
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst int     `yaml:"rate_burst"`
}

// EngineConfig tunes the job lifecycle rules.
type EngineConfig struct {
	CurrentConflict string `yaml:"current_conflict"`
	// ReferenceYear anchors the year-less DD/MM timestamps. Zero means the
	// calendar year at startup.
	ReferenceYear int `yaml:"reference_year"`
}

// NotifyConfig lists the completion notification channels. All are optional.
type NotifyConfig struct {
	Command string        `yaml:"command"`
	Slack   ChannelConfig `yaml:"slack"`
	Discord ChannelConfig `yaml:"discord"`
}

// ChannelConfig is a bot token plus the channel to post to.
type ChannelConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether both token and channel are set.
func (c ChannelConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

// ArchiveConfig controls periodic archive snapshots.
type ArchiveConfig struct {
	SnapshotSchedule string `yaml:"snapshot_schedule"` // 5-field cron expression
	SnapshotDir      string `yaml:"snapshot_dir"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if len(c.Machines) == 0 {
		c.Machines = append([]string(nil), DefaultMachines...)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "spindle.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "spindle"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst == 0 {
		c.Server.RateBurst = int(c.Server.RateLimit) + 1
	}
	if c.Engine.CurrentConflict == "" {
		c.Engine.CurrentConflict = ConflictReject
	}
	if c.Archive.SnapshotSchedule != "" && c.Archive.SnapshotDir == "" {
		c.Archive.SnapshotDir = "snapshots"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	seen := make(map[string]bool, len(c.Machines))
	for i, m := range c.Machines {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Sprintf("machines[%d] is empty", i))
			continue
		}
		if seen[m] {
			errs = append(errs, fmt.Sprintf("machines[%d] %q is duplicated", i, m))
		}
		seen[m] = true
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}
	switch c.Engine.CurrentConflict {
	case ConflictReject, ConflictDemote:
	default:
		errs = append(errs, fmt.Sprintf("engine.current_conflict %q must be %q or %q",
			c.Engine.CurrentConflict, ConflictReject, ConflictDemote))
	}
	if c.Engine.ReferenceYear < 0 {
		errs = append(errs, "engine.reference_year must not be negative")
	}
	if c.Notify.Slack.BotToken != "" && c.Notify.Slack.ChannelID == "" {
		errs = append(errs, "notify.slack.channel_id is required when bot_token is set")
	}
	if c.Notify.Discord.BotToken != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required when bot_token is set")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// HasMachine reports whether name is one of the configured machines.
func (c *Config) HasMachine(name string) bool {
	for _, m := range c.Machines {
		if m == name {
			return true
		}
	}
	return false
}
