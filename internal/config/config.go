// Package config provides the YAML configuration model with first-run
// default creation and atomic saves.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// PreviewConfig controls the PNG snapshot of the dashboard.
type PreviewConfig struct {
	// Width and Height are the capture viewport in pixels.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	// Path is where the PNG is written and served from (/preview.png).
	Path string `yaml:"path" json:"path"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the dashboard.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "America/Chicago").
	// Instants stay zone-aware internally; this only affects text.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LabelMode selects the relative-time label style:
	//   - "categorical" (default): Today / Tomorrow / weekday / month-day
	//   - "countdown": months, days, hours, minutes until start
	LabelMode string `yaml:"label_mode" json:"label_mode"`

	// CalendarSuffix keeps only calendars whose id ends with this suffix.
	// Empty keeps every calendar the account can see.
	CalendarSuffix string `yaml:"calendar_suffix" json:"calendar_suffix"`

	// CredentialsFile is the OAuth client secret JSON.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`

	// TokenFile caches the user's OAuth token (written 0600).
	TokenFile string `yaml:"token_file" json:"token_file"`

	// MaxResults caps events fetched per calendar.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// PurgePast deletes events from the provider once they have ended.
	PurgePast bool `yaml:"purge_past" json:"purge_past"`

	// RefreshCron schedules the background assemble/purge/preview pass.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Preview PreviewConfig `yaml:"preview" json:"preview"`

	// BasicAuth, if non-nil, protects all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "0.0.0.0:8014",
		Timezone:        "UTC",
		LabelMode:       "categorical",
		CalendarSuffix:  "@gmail.com",
		CredentialsFile: "client_secret.json",
		TokenFile:       "token.json",
		MaxResults:      10,
		PurgePast:       false,
		RefreshCron:     "*/15 * * * *",
		Preview: PreviewConfig{
			Width:  800,
			Height: 1000,
			Path:   "./cache/preview.png",
		},
	}
}

// Normalize fills missing or invalid values with defaults so that partial
// config files still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.LabelMode {
	case "categorical", "countdown":
	default:
		c.LabelMode = "categorical"
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = def.CredentialsFile
	}
	if c.TokenFile == "" {
		c.TokenFile = def.TokenFile
	}
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = def.Preview.Width
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = def.Preview.Height
	}
	if c.Preview.Path == "" {
		c.Preview.Path = def.Preview.Path
	}
}

// Location resolves the display timezone, falling back to UTC on a bad or
// empty name.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from the given YAML path. A missing file is a
// first run: the default config is written (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions,
// creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calendar-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
