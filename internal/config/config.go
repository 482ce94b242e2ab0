// Package config loads the optional lockwatch configuration file and parses the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MatthiasKunnen/lockwatch/internal/executor"
	"github.com/MatthiasKunnen/lockwatch/internal/monitor"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable holding an explicit config file path.
const EnvConfig = "LOCKWATCH_CONFIG"

// Event source backends.
const (
	BackendAuto        = "auto"
	BackendLogind      = "logind"
	BackendScreenSaver = "screensaver"
)

// fileNames are looked up in $XDG_CONFIG_HOME/lockwatch, in order.
var fileNames = []string{"config.toml", "config.yaml", "config.yml"}

// Config holds the lockwatch configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Lock         string         `toml:"lock" yaml:"lock"`
	Unlock       string         `toml:"unlock" yaml:"unlock"`
	Shell        string         `toml:"shell" yaml:"shell"`
	RawKeepAlive string         `toml:"keepalive" yaml:"keepalive"` // e.g. "60s"
	RawMaxOutput int            `toml:"max_output" yaml:"max_output"`
	LockOnSleep  bool           `toml:"lock_on_sleep" yaml:"lock_on_sleep"`
	LockSecrets  []string       `toml:"lock_secrets" yaml:"lock_secrets"` // e.g. ["collection/login"]
	Source       SourceConfig   `toml:"source" yaml:"source"`
	Log          LogConfig      `toml:"log" yaml:"log"`
	Worktime     WorktimeConfig `toml:"worktime" yaml:"worktime"`
}

// SourceConfig selects where lock events come from.
type SourceConfig struct {
	Backend   string `toml:"backend" yaml:"backend"`       // auto, logind or screensaver
	SessionID string `toml:"session_id" yaml:"session_id"` // logind session, default $XDG_SESSION_ID
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn or error
	Format string `toml:"format" yaml:"format"` // text or json
}

// WorktimeConfig configures the work time tracker.
type WorktimeConfig struct {
	Dir string `toml:"dir" yaml:"dir"` // default $XDG_DATA_HOME/lockwatch
}

// ShellPath returns the configured shell or the default.
func (c *Config) ShellPath() string {
	if c.Shell != "" {
		return c.Shell
	}
	return executor.DefaultShell
}

// KeepAlive returns the configured keep-alive period or the default.
func (c *Config) KeepAlive() time.Duration {
	if c.RawKeepAlive != "" {
		d, err := time.ParseDuration(c.RawKeepAlive)
		if err == nil && d > 0 {
			return d
		}
	}
	return monitor.DefaultKeepAlive
}

// MaxOutputBytes returns the configured cap on captured output or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return executor.DefaultMaxOutput
}

// Backend returns the configured event source backend, falling back to auto.
func (c *Config) Backend() string {
	if c.Source.Backend != "" {
		return c.Source.Backend
	}
	return BackendAuto
}

// WorktimeDir returns the directory holding the work time log.
// It defaults to $XDG_DATA_HOME/lockwatch, or ~/.local/share/lockwatch.
func (c *Config) WorktimeDir(getenv func(string) string) (string, error) {
	if c.Worktime.Dir != "" {
		return c.Worktime.Dir, nil
	}
	if dir := getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "lockwatch"), nil
	}
	home := getenv("HOME")
	if home == "" {
		return "", errors.New("cannot locate the data directory: neither XDG_DATA_HOME nor HOME is set")
	}
	return filepath.Join(home, ".local", "share", "lockwatch"), nil
}

// Apply overrides the file configuration with the command line.
func (c *Config) Apply(args *Args) {
	if args.Lock != "" {
		c.Lock = args.Lock
	}
	if args.Unlock != "" {
		c.Unlock = args.Unlock
	}
}

// Validate checks the configuration. ErrNoCommand is returned when no command is set.
func (c *Config) Validate() error {
	if c.Lock == "" && c.Unlock == "" {
		return ErrNoCommand
	}
	return c.validateFields()
}

func (c *Config) validateFields() error {
	var err error
	if c.RawKeepAlive != "" {
		if d, e := time.ParseDuration(c.RawKeepAlive); e != nil || d <= 0 {
			err = errors.Join(err, fmt.Errorf("keepalive %q is not a positive duration", c.RawKeepAlive))
		}
	}
	switch c.Backend() {
	case BackendAuto, BackendLogind, BackendScreenSaver:
	default:
		err = errors.Join(err, fmt.Errorf("unknown source backend %q", c.Source.Backend))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		err = errors.Join(err, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		err = errors.Join(err, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return err
}

// Load reads the configuration file.
// An explicit path in $LOCKWATCH_CONFIG must exist. Otherwise the file is looked up in
// $XDG_CONFIG_HOME/lockwatch (default ~/.config/lockwatch); if none exists, a default Config is
// returned.
func Load(getenv func(string) string) (*Config, error) {
	if path := getenv(EnvConfig); path != "" {
		return loadFile(path)
	}

	dir := getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home := getenv("HOME")
		if home == "" {
			return &Config{}, nil
		}
		dir = filepath.Join(home, ".config")
	}

	for _, name := range fileNames {
		path := filepath.Join(dir, "lockwatch", name)
		if _, err := os.Stat(path); err == nil {
			return loadFile(path)
		}
	}

	return &Config{}, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.validateFields(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
