// Package config loads the server configuration: built-in defaults, then an
// optional YAML file, then FOLIO_* environment variables. A .env file in the
// working directory is read into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/Zachkp/folio/internal/tracker"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore: FOLIO_SMTP__HOST -> smtp.host.
const EnvPrefix = "FOLIO_"

type TrackerConfig struct {
	CooldownMS           int       `koanf:"cooldown_ms" yaml:"cooldown_ms"`
	ClearWhenNoneVisible bool      `koanf:"clear_when_none_visible" yaml:"clear_when_none_visible"`
	KeepActiveOnRemove   bool      `koanf:"keep_active_on_remove" yaml:"keep_active_on_remove"`
	TopMargin            float64   `koanf:"top_margin" yaml:"top_margin"`
	BottomMargin         float64   `koanf:"bottom_margin" yaml:"bottom_margin"`
	Thresholds           []float64 `koanf:"thresholds" yaml:"thresholds"`
}

// Cooldown returns the cooldown as a duration.
func (t TrackerConfig) Cooldown() time.Duration {
	return time.Duration(t.CooldownMS) * time.Millisecond
}

// Geometry returns the observer options for live sessions.
func (t TrackerConfig) Geometry() tracker.GeometryOptions {
	return tracker.GeometryOptions{
		Margins:    tracker.Margins{Top: t.TopMargin, Bottom: t.BottomMargin},
		Thresholds: t.Thresholds,
	}
}

type SMTPConfig struct {
	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"password"`
	To       string `koanf:"to" yaml:"to"`
}

// Enabled reports whether credentials are configured.
func (s SMTPConfig) Enabled() bool { return s.User != "" && s.Password != "" }

type AdminConfig struct {
	Username string `koanf:"username" yaml:"username"`
	Password string `koanf:"password" yaml:"password"`
}

type Config struct {
	Port          int           `koanf:"port" yaml:"port"`
	Mode          string        `koanf:"mode" yaml:"mode"`
	LogLevel      string        `koanf:"log_level" yaml:"log_level"`
	DataDir       string        `koanf:"data_dir" yaml:"data_dir"`
	ContentFile   string        `koanf:"content_file" yaml:"content_file"`
	StaticDir     string        `koanf:"static_dir" yaml:"static_dir"`
	ImagesDir     string        `koanf:"images_dir" yaml:"images_dir"`
	RetentionDays int           `koanf:"retention_days" yaml:"retention_days"`
	Tracker       TrackerConfig `koanf:"tracker" yaml:"tracker"`
	SMTP          SMTPConfig    `koanf:"smtp" yaml:"smtp"`
	Admin         AdminConfig   `koanf:"admin" yaml:"admin"`
}

// Default returns the built-in configuration.
func Default() *Config {
	geo := tracker.DefaultGeometryOptions()
	return &Config{
		Port:          8080,
		Mode:          "release",
		LogLevel:      "info",
		DataDir:       "data",
		StaticDir:     "static",
		ImagesDir:     "images",
		RetentionDays: 365,
		Tracker: TrackerConfig{
			CooldownMS:   int(tracker.DefaultCooldown / time.Millisecond),
			TopMargin:    geo.Margins.Top,
			BottomMargin: geo.Margins.Bottom,
			Thresholds:   geo.Thresholds,
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
	}
}

// DBPath is the SQLite file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "folio.db")
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// PORT is what most hosts set; it wins over the file but not FOLIO_PORT.
	if port := os.Getenv("PORT"); port != "" {
		if err := k.Set("port", port); err != nil {
			return nil, fmt.Errorf("applying PORT: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validModes = map[string]bool{"debug": true, "release": true, "test": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !validModes[c.Mode] {
		return fmt.Errorf("invalid mode %q: must be one of debug, release, test", c.Mode)
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be non-negative")
	}

	t := c.Tracker
	if t.CooldownMS < 0 {
		return fmt.Errorf("tracker.cooldown_ms must be non-negative")
	}
	if t.TopMargin < 0 || t.BottomMargin < 0 || t.TopMargin+t.BottomMargin >= 1 {
		return fmt.Errorf("tracker margins must be non-negative and leave part of the viewport")
	}
	for _, th := range t.Thresholds {
		if th < 0 || th > 1 {
			return fmt.Errorf("tracker threshold %v outside [0,1]", th)
		}
	}

	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		return fmt.Errorf("admin.username and admin.password must be set together")
	}
	return nil
}
