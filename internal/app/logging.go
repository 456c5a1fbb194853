package app

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// LoggerConfig configures the root logger.
type LoggerConfig struct {
	// Level is the minimum level written.
	Level hclog.Level

	// Output defaults to os.Stderr.
	Output io.Writer

	// Name is the root logger name; components append theirs.
	Name string
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  hclog.Info,
		Output: os.Stderr,
		Name:   "toolbox",
	}
}

// NewLogger creates the root logger.
func NewLogger(cfg LoggerConfig) hclog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Level == hclog.NoLevel {
		cfg.Level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   cfg.Name,
		Level:  cfg.Level,
		Output: cfg.Output,
	})
}

// ParseLogLevel parses a level name. Unknown names yield hclog.Info.
func ParseLogLevel(s string) hclog.Level {
	level := hclog.LevelFromString(strings.TrimSpace(s))
	if level == hclog.NoLevel {
		return hclog.Info
	}
	return level
}
