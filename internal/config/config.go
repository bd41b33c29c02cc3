package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/yegors/hamsearch/internal/callook"
	"github.com/yegors/hamsearch/internal/lbstat"
	"github.com/yegors/hamsearch/internal/lookup"
	"github.com/yegors/hamsearch/pkg/logger"
)

// Environment variables that override secrets from the config file
const (
	EnvDiscordToken   = "HAMSEARCH_DISCORD_TOKEN"
	EnvDiscordGuildID = "HAMSEARCH_DISCORD_GUILD_ID"
)

// Config represents the application configuration
type Config struct {
	Discord    DiscordConfig    `toml:"discord"`
	Server     ServerConfig     `toml:"server"`
	Upstream   UpstreamConfig   `toml:"upstream"`
	Conditions ConditionsConfig `toml:"conditions"`
	Audit      AuditConfig      `toml:"audit"`
	Logging    logger.Config    `toml:"logging"`
}

// DiscordConfig represents the chat platform connection
type DiscordConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
	GuildID string `toml:"guild_id"` // commands are registered to this server only
}

// ServerConfig represents the HTTP API
type ServerConfig struct {
	Enabled            bool     `toml:"enabled"`
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	MetricsEnabled     bool     `toml:"metrics_enabled"`
}

// UpstreamConfig represents the external data sources
type UpstreamConfig struct {
	RegistryBaseURL       string `toml:"registry_base_url"`
	LogbookBaseURL        string `toml:"logbook_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	UserAgent             string `toml:"user_agent"`
}

// ConditionsConfig represents the band conditions command
type ConditionsConfig struct {
	ImageURL string `toml:"image_url"`
}

// AuditConfig represents where successful commands are recorded
type AuditConfig struct {
	FilePath   string `toml:"file_path"`   // line-oriented log, empty to disable
	SQLitePath string `toml:"sqlite_path"` // SQLite database, empty to disable
	BufferSize int    `toml:"buffer_size"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Enabled:        false,
			Host:           "127.0.0.1",
			Port:           8080,
			MetricsEnabled: true,
		},
		Upstream: UpstreamConfig{
			RegistryBaseURL:       callook.DefaultConfig().BaseURL,
			LogbookBaseURL:        lbstat.DefaultConfig().BaseURL,
			RequestTimeoutSeconds: 10,
			UserAgent:             "hamsearch/1.0",
		},
		Conditions: ConditionsConfig{
			ImageURL: "https://www.hamqsl.com/solar101vhf.php",
		},
		Audit: AuditConfig{
			FilePath:   "logs",
			BufferSize: 256,
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// environment overrides (a .env file in the working directory is honoured).
// When required is false a missing file is not an error.
func Load(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || required {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	// .env is optional; its absence is the common case
	_ = godotenv.Load()

	if v := os.Getenv(EnvDiscordToken); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv(EnvDiscordGuildID); v != "" {
		cfg.Discord.GuildID = v
	}

	return cfg, nil
}

// Validate checks the settings needed by the enabled components
func (c *Config) Validate() error {
	var errs []error

	if c.Discord.Enabled {
		if c.Discord.Token == "" {
			errs = append(errs, fmt.Errorf("discord.token is required (or set %s)", EnvDiscordToken))
		}
		if c.Discord.GuildID == "" {
			errs = append(errs, fmt.Errorf("discord.guild_id is required (or set %s)", EnvDiscordGuildID))
		}
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Upstream.RegistryBaseURL == "" {
		errs = append(errs, errors.New("upstream.registry_base_url is required"))
	}
	if c.Upstream.LogbookBaseURL == "" {
		errs = append(errs, errors.New("upstream.logbook_base_url is required"))
	}
	if c.Upstream.RequestTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("upstream.request_timeout_seconds must be positive"))
	}
	if c.Audit.BufferSize <= 0 {
		errs = append(errs, errors.New("audit.buffer_size must be positive"))
	}

	return errors.Join(errs...)
}

// RequestTimeout is the per-request upstream timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Upstream.RequestTimeoutSeconds) * time.Second
}

// Registry returns the registry client settings
func (c *Config) Registry() callook.Config {
	return callook.Config{
		BaseURL:        c.Upstream.RegistryBaseURL,
		RequestTimeout: c.RequestTimeout(),
		UserAgent:      c.Upstream.UserAgent,
	}
}

// Logbook returns the logbook scraper settings
func (c *Config) Logbook() lbstat.Config {
	return lbstat.Config{
		BaseURL:        c.Upstream.LogbookBaseURL,
		RequestTimeout: c.RequestTimeout(),
		UserAgent:      c.Upstream.UserAgent,
	}
}

// Commands returns the command handler settings
func (c *Config) Commands() lookup.Config {
	return lookup.Config{
		ConditionsImageURL: c.Conditions.ImageURL,
	}
}
