package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/toolbox/internal/app"
	"github.com/dshills/toolbox/internal/dispatch"
	"github.com/dshills/toolbox/internal/task"
)

// errTasksFailed is returned when a waited-for task did not succeed.
var errTasksFailed = errors.New("one or more tasks did not succeed")

func newOpenCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open <file>",
		Short: "Open a file with the first extension that supports it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return c.run(cmd.Context(), func(a *app.Application) error {
				defer a.Shutdown()
				handled, err := a.OpenFile(path)
				if err != nil {
					return err
				}
				if !handled {
					fmt.Fprintln(c.stdout, mutedStyle.Render("no extension handles "+path))
					return fmt.Errorf("%w: %s", dispatch.ErrNoHandler, path)
				}
				fmt.Fprint(c.stdout, renderViews(a.Views().All()))
				return nil
			})
		},
	}
}

func newPopupCommand(c *cli) *cobra.Command {
	var actionID string

	cmd := &cobra.Command{
		Use:   "popup <file>",
		Short: "List or run the popup menu items for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var ran *app.Application
			err := c.run(cmd.Context(), func(a *app.Application) error {
				ran = a
				if actionID == "" {
					defer a.Shutdown()
					fmt.Fprint(c.stdout, renderActions(a.PopupMenu(path)))
					return nil
				}
				if err := a.RunAction(path, actionID); err != nil {
					return err
				}
				a.ExitWhenIdle()
				return nil
			}, app.WithPrompt(c.stdin, c.stdout))
			if err != nil || actionID == "" {
				return err
			}
			return c.report(ran)
		},
	}
	cmd.Flags().StringVar(&actionID, "run", "", "Run the item with this id (or <plugin>/<id>) and wait for its tasks")
	return cmd
}

func newMenuCommand(c *cli) *cobra.Command {
	var activate string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the command menu or activate a path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ran *app.Application
			err := c.run(cmd.Context(), func(a *app.Application) error {
				ran = a
				if activate == "" {
					defer a.Shutdown()
					fmt.Fprint(c.stdout, renderMenu(a.Menu().Generate()))
					return nil
				}
				if err := a.Activate(activate); err != nil {
					return err
				}
				a.ExitWhenIdle()
				return nil
			}, app.WithPrompt(c.stdin, c.stdout))
			if err != nil || activate == "" {
				return err
			}
			return c.report(ran)
		},
	}
	cmd.Flags().StringVar(&activate, "activate", "", "Menu path to activate")
	return cmd
}

func newPrefsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "List preference contributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(a *app.Application) error {
				defer a.Shutdown()
				fmt.Fprint(c.stdout, renderPreferences(a.PreferenceContributions(), a.Preferences().Root()))
				return nil
			})
		},
	}
}

func newRunCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task>",
		Short: "Run a task declared in the tasks file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var ran *app.Application
			err := c.run(cmd.Context(), func(a *app.Application) error {
				ran = a
				if _, err := a.RunTask(name); err != nil {
					return err
				}
				a.ExitWhenIdle()
				return nil
			}, app.WithPrompt(c.stdin, c.stdout))
			if errors.Is(err, task.ErrConfigurationCancelled) {
				fmt.Fprintln(c.stdout, mutedStyle.Render("cancelled"))
				return nil
			}
			if err != nil {
				return err
			}
			return c.report(ran)
		},
	}
}

func newWatchCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Open files dropped into a directory until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			return c.run(cmd.Context(), func(a *app.Application) error {
				a.Views().OnAdd(func(v app.OpenView) {
					fmt.Fprint(c.stdout, renderViews([]app.OpenView{v}))
				})
				if err := a.Watch(dir); err != nil {
					return err
				}
				fmt.Fprintln(c.stdout, mutedStyle.Render("watching "+dir+", press Ctrl-C to stop"))
				return nil
			})
		},
	}
}

func newVersionCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "%s %s\ncore %s\ncommit %s\n", c.cfg.Title, version, app.Version, commit)
		},
	}
}

// report prints the task table and fails if any task did not succeed.
func (c *cli) report(a *app.Application) error {
	rows := a.Table().Rows()
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprint(c.stdout, renderTasks(rows))
	for _, r := range rows {
		if r.State != task.StateSucceeded {
			return errTasksFailed
		}
	}
	return nil
}
