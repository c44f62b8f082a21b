// Package config loads server configuration from an optional TOML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds everything the server binary needs to run.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Auth       AuthConfig       `toml:"auth"`
	Settlement SettlementConfig `toml:"settlement"`
	Log        LogConfig        `toml:"log"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret string   `toml:"jwt_secret"`
	TokenTTL  Duration `toml:"token_ttl"`
}

// Duration lets TOML carry durations as strings like "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type SettlementConfig struct {
	// AbsorbExtraCents routes the rounding remainder to the host instead of
	// the largest non-host share.
	AbsorbExtraCents bool `toml:"absorb_extra_cents"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file or env overrides are
// present.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "./data/tabsplit.db"},
		Auth: AuthConfig{
			JWTSecret: "",
			TokenTTL:  Duration{24 * time.Hour},
		},
		Settlement: SettlementConfig{AbsorbExtraCents: false},
		Log:        LogConfig{Level: "info"},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the file
// does not exist), then applies environment overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Auth.JWTSecret == "" {
		return cfg, fmt.Errorf("auth.jwt_secret is required (or set TABSPLIT_JWT_SECRET)")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TABSPLIT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TABSPLIT_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("TABSPLIT_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("TABSPLIT_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Auth.TokenTTL = Duration{d}
		}
	}
	if v := os.Getenv("TABSPLIT_ABSORB_EXTRA_CENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Settlement.AbsorbExtraCents = b
		}
	}
	if v := os.Getenv("TABSPLIT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
