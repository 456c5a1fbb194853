package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the default configuration file name.
const FileName = "toolbox.toml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "TOOLBOX"

// Config holds the application configuration.
type Config struct {
	Title        string      `mapstructure:"title"`
	LogLevel     string      `mapstructure:"log_level"`
	DataDir      string      `mapstructure:"data_dir"`
	ExtensionDir string      `mapstructure:"extension_dir"`
	TasksFile    string      `mapstructure:"tasks_file"`
	Pool         PoolConfig  `mapstructure:"pool"`
	Watch        WatchConfig `mapstructure:"watch"`
}

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// WatchConfig configures the drop folder. An empty Dir disables it.
type WatchConfig struct {
	Dir string `mapstructure:"dir"`
}

var defaults = map[string]any{
	"title":           "ToolBox",
	"log_level":       "info",
	"data_dir":        ".",
	"extension_dir":   "extensions",
	"tasks_file":      "tasks.yaml",
	"pool.workers":    2,
	"pool.queue_size": 64,
	"watch.dir":       "",
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "off"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Title:        defaults["title"].(string),
		LogLevel:     defaults["log_level"].(string),
		DataDir:      defaults["data_dir"].(string),
		ExtensionDir: defaults["extension_dir"].(string),
		TasksFile:    defaults["tasks_file"].(string),
		Pool: PoolConfig{
			Workers:   defaults["pool.workers"].(int),
			QueueSize: defaults["pool.queue_size"].(int),
		},
	}
}

// Load reads configuration from path and the environment. An empty path or
// a missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Pool.Workers <= 0 {
		errs = append(errs, ErrInvalidWorkers)
	}
	if c.Pool.QueueSize <= 0 {
		errs = append(errs, ErrInvalidQueueSize)
	}
	if !validLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel))
	}
	return errors.Join(errs...)
}

// Resolve returns p relative to the data directory unless p is absolute.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func validLevel(level string) bool {
	level = strings.ToLower(strings.TrimSpace(level))
	for _, l := range logLevels {
		if l == level {
			return true
		}
	}
	return false
}
