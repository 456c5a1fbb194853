package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/dshills/toolbox/internal/app"
	"github.com/dshills/toolbox/internal/config"
)

// cli holds state shared by all commands.
type cli struct {
	configPath string
	logLevel   string
	dataDir    string

	cfg    config.Config
	logger hclog.Logger
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "toolbox",
		Short: "ToolBox - a plugin-hosting file shell",
		Long: `ToolBox hosts file-handling extensions. Files are opened by the first
extension that supports them, popup menus combine every matching extension,
and long-running work runs on a worker pool with progress reporting.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", config.FileName, "Config file path")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "Directory holding preferences, extensions and tasks")

	root.AddCommand(
		newOpenCommand(c),
		newPopupCommand(c),
		newMenuCommand(c),
		newPrefsCommand(c),
		newRunCommand(c),
		newWatchCommand(c),
		newVersionCommand(c),
	)
	return root
}

// setup loads configuration, applies flag overrides and creates the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = c.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	c.stdout = cmd.OutOrStdout()
	c.stderr = cmd.ErrOrStderr()
	c.stdin = cmd.InOrStdin()

	lc := app.DefaultLoggerConfig()
	lc.Level = app.ParseLogLevel(cfg.LogLevel)
	lc.Output = c.stderr
	c.logger = app.NewLogger(lc)
	return nil
}

// run builds the application, posts fn to the control goroutine and drives
// the application until it shuts down. fn decides when to shut down; an
// error from fn shuts down immediately and is returned.
func (c *cli) run(ctx context.Context, fn func(a *app.Application) error, opts ...app.Option) error {
	opts = append([]app.Option{app.WithLogger(c.logger), app.WithOutput(c.stdout)}, opts...)
	a, err := app.New(c.cfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fnErr error
	a.Post(func() {
		if fnErr = fn(a); fnErr != nil {
			a.Shutdown()
		}
	})
	if err := a.Run(ctx); err != nil {
		return err
	}
	return fnErr
}
