// Package config loads client settings and resolves the XDG configuration
// directory that holds them.
//
// Settings are layered with koanf: built-in defaults, then <dir>/config.yaml,
// then TODO_* environment variables, then command-line overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"todocli/internal/validation"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the optional settings file inside the config directory.
	ConfigFile = "config.yaml"

	// StoreDir is the default local store directory inside the config directory.
	StoreDir = "store"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TODO_"
)

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled off"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// StoreConfig controls local storage.
type StoreConfig struct {
	// Path overrides <dir>/store. "memory" keeps the session for this run only.
	Path string `koanf:"path"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `koanf:"-"`

	APIURL  string        `koanf:"api_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Log     LogConfig     `koanf:"log"`
	Store   StoreConfig   `koanf:"store"`

	// Debug enables debug logging.
	Debug bool `koanf:"-"`

	// Quiet suppresses informational output.
	Quiet bool `koanf:"-"`
}

// Overrides are command-line settings applied after every other layer.
type Overrides struct {
	APIURL string
	Debug  bool
	Quiet  bool
}

func defaults() Config {
	return Config{
		APIURL:  "http://localhost:8000",
		Timeout: 30 * time.Second,
		Log:     LogConfig{Level: "error", Format: "console"},
	}
}

// New creates a Config with defaults only, rooted at configDir or the default
// config directory.
func New(configDir string) (*Config, error) {
	cfg := defaults()
	cfg.Dir = configDir
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfigDir()
	}
	return &cfg, nil
}

// Load reads all layers for configDir (empty means the default directory)
// and validates the result.
func Load(configDir string, o Overrides) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if o.APIURL != "" {
		if err := k.Set("api_url", o.APIURL); err != nil {
			return nil, err
		}
	}
	if o.Debug {
		if err := k.Set("log.level", "debug"); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Dir = dir
	cfg.Debug = o.Debug
	cfg.Quiet = o.Quiet
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransformFunc maps TODO_API_URL to api_url, TODO_LOG_LEVEL to log.level
// and so on.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	switch key {
	case "log_level":
		return "log.level"
	case "log_format":
		return "log.format"
	case "store_path":
		return "store.path"
	default:
		return key
	}
}

// Validate checks the loaded settings.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid configuration: api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("invalid configuration: api_url must use http or https")
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path of the optional settings file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// StorePath returns the local store directory, or "memory".
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, StoreDir)
}

// InMemoryStore reports whether the session should not outlive the process.
func (c *Config) InMemoryStore() bool {
	return c.Store.Path == "memory"
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
