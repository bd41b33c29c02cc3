package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv(EnvDiscordToken, "")
	t.Setenv(EnvDiscordGuildID, "")

	path := writeConfig(t, `
[discord]
token = "file-token"
guild_id = "1234"

[server]
enabled = true
port = 9090

[upstream]
request_timeout_seconds = 3

[audit]
sqlite_path = "data/audit.db"
`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Discord.Token != "file-token" || cfg.Discord.GuildID != "1234" {
		t.Errorf("discord settings not read: %+v", cfg.Discord)
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 9090 {
		t.Errorf("server settings not read: %+v", cfg.Server)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("default host lost, got %q", cfg.Server.Host)
	}
	if cfg.RequestTimeout() != 3*time.Second {
		t.Errorf("timeout = %s", cfg.RequestTimeout())
	}
	if cfg.Upstream.RegistryBaseURL != "https://callook.info" {
		t.Errorf("default registry URL lost, got %q", cfg.Upstream.RegistryBaseURL)
	}
	if cfg.Audit.FilePath != "logs" || cfg.Audit.SQLitePath != "data/audit.db" {
		t.Errorf("audit settings = %+v", cfg.Audit)
	}

	reg := cfg.Registry()
	if reg.RequestTimeout != 3*time.Second || reg.UserAgent != "hamsearch/1.0" {
		t.Errorf("registry config = %+v", reg)
	}
	if cfg.Commands().ConditionsImageURL != "https://www.hamqsl.com/solar101vhf.php" {
		t.Errorf("conditions URL = %q", cfg.Commands().ConditionsImageURL)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDiscordToken, "env-token")
	t.Setenv(EnvDiscordGuildID, "5678")

	path := writeConfig(t, `
[discord]
token = "file-token"
guild_id = "1234"
`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discord.Token != "env-token" || cfg.Discord.GuildID != "5678" {
		t.Errorf("environment did not win: %+v", cfg.Discord)
	}
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	if _, err := Load(missing, true); err == nil {
		t.Error("expected an error for a missing required file")
	}

	cfg, err := Load(missing, false)
	if err != nil {
		t.Fatalf("optional missing file should fall back to defaults: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := writeConfig(t, "[discord\ntoken = ")
	if _, err := Load(path, false); err == nil {
		t.Error("expected a parse error even when the file is optional")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing token", func(c *Config) { c.Discord.Token = "" }, "discord.token"},
		{"missing guild", func(c *Config) { c.Discord.GuildID = "" }, "discord.guild_id"},
		{"discord disabled", func(c *Config) { c.Discord = DiscordConfig{} }, ""},
		{"bad port", func(c *Config) { c.Server.Enabled = true; c.Server.Port = 70000 }, "server.port"},
		{"zero timeout", func(c *Config) { c.Upstream.RequestTimeoutSeconds = 0 }, "request_timeout_seconds"},
		{"zero buffer", func(c *Config) { c.Audit.BufferSize = 0 }, "buffer_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Discord.Token = "token"
			cfg.Discord.GuildID = "1234"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
