package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/stackvity/devicesettings/internal/config"
	"github.com/stackvity/devicesettings/internal/engine"
	"github.com/stackvity/devicesettings/internal/filestore"
	"github.com/stackvity/devicesettings/internal/props"
	"github.com/stackvity/devicesettings/internal/template"
)

func (a *app) registry() props.Registry {
	if a.reg != nil {
		return a.reg
	}
	switch a.opts.PropsBackend {
	case config.BackendMemory:
		a.reg = props.NewMemoryRegistry()
	case config.BackendCommand:
		a.reg = props.NewCommandRegistry(a.runner)
	default:
		a.reg = props.NewFileRegistry(a.opts.PropsFile, a.fs)
	}
	return a.reg
}

func (a *app) propStore() *props.Store {
	return props.New(a.registry(), a.logger)
}

func (a *app) newEngine() (*engine.Engine, error) {
	eng := engine.NewEngine(
		a.opts.Profile,
		a.fs,
		filestore.New(a.fs, a.logger),
		a.propStore(),
		a.logger,
		a.opts.Watch.Debounce,
	)
	if err := eng.Load(); err != nil {
		return nil, withCode(ExitCodeProfileError, err)
	}
	return eng, nil
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format: 'text', 'yaml' or 'toml'")
	cmd.Flags().StringP("template", "t", "", "Go template file used to render the report (overrides --format)")
}

func (a *app) writeReport(report engine.Report) error {
	executor, err := template.NewExecutor(a.opts.TemplateFile, a.fs)
	if err != nil {
		return withCode(ExitCodeConfigError, err)
	}
	if executor != nil {
		err = executor.Execute(a.stdout, report)
	} else {
		err = report.Encode(a.stdout, a.opts.Format)
	}
	if err != nil {
		return withCode(ExitCodeFailure, err)
	}
	return nil
}

func newStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of every switch in the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.newEngine()
			if err != nil {
				return err
			}
			report := eng.Snapshot()
			a.logger.Debug("Snapshot taken", "switches", len(report.Switches), "duration", report.Duration)
			return a.writeReport(report)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print 'on' or 'off' for one switch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.newEngine()
			if err != nil {
				return err
			}
			sw, err := eng.Controller().Switch(args[0])
			if err != nil {
				return withCode(ExitCodeFailure, err)
			}
			if !sw.IsSupported() {
				a.logger.Warn("Switch is not supported on this device", "switch", sw.ID(), "path", sw.Path())
			}
			fmt.Fprintln(a.stdout, engine.OnOff(sw.IsCurrentlyEnabled()))
			return nil
		},
	}
}

// parseSwitchValue accepts on/off and anything cast understands as a bool.
func parseSwitchValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	v, err := cast.ToBoolE(s)
	if err != nil {
		return false, fmt.Errorf("invalid switch value '%s', want 'on' or 'off'", s)
	}
	return v, nil
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> on|off",
		Short: "Write a switch and record the value for restore",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			value, err := parseSwitchValue(args[1])
			if err != nil {
				return withCode(ExitCodeConfigError, err)
			}
			eng, err := a.newEngine()
			if err != nil {
				return err
			}
			ctrl := eng.Controller()
			sw, err := ctrl.Switch(id)
			if err != nil {
				return withCode(ExitCodeFailure, err)
			}
			if !sw.IsSupported() {
				return withCode(ExitCodeFailure, fmt.Errorf("switch '%s' is not supported on this device", id))
			}
			ok, err := ctrl.Set(id, value)
			if err != nil {
				return withCode(ExitCodeFailure, err)
			}
			if !ok {
				return withCode(ExitCodeFailure, fmt.Errorf("failed to write switch '%s' at %s", id, sw.Path()))
			}
			fmt.Fprintf(a.stdout, "%s: %s\n", id, engine.OnOff(value))
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Re-apply recorded switch values, typically at boot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.newEngine()
			if err != nil {
				return err
			}
			results := eng.Restore()
			failed := 0
			for _, r := range results {
				if r.Applied {
					fmt.Fprintf(a.stdout, "%s: %s\n", r.ID, engine.OnOff(r.Value))
					continue
				}
				failed++
				fmt.Fprintf(a.stdout, "%s: %s (skipped: %s)\n", r.ID, engine.OnOff(r.Value), r.Reason)
			}
			if failed > 0 {
				return withCode(ExitCodeFailure, fmt.Errorf("%d of %d recorded switches could not be restored", failed, len(results)))
			}
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the status report again whenever the profile or a node changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, err := a.newEngine()
			if err != nil {
				return err
			}
			err = eng.Watch(ctx, func(report engine.Report) {
				if a.opts.TemplateFile == "" && a.opts.Format == config.DefaultFormat {
					fmt.Fprintf(a.stdout, "--- %s ---\n", time.Now().Format(time.TimeOnly))
				}
				if err := a.writeReport(report); err != nil {
					a.logger.Error("Failed to write report", "error", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return withCode(ExitCodeInterrupt, err)
			}
			if err != nil {
				return withCode(ExitCodeFailure, err)
			}
			return nil
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func newPropCmd(a *app) *cobra.Command {
	propCmd := &cobra.Command{
		Use:   "prop",
		Short: "Read and write entries in the property registry",
	}

	propCmd.AddCommand(&cobra.Command{
		Use:   "get <key> [default]",
		Short: "Print a property, or the default when it is unset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			def := ""
			if len(args) == 2 {
				def = args[1]
			}
			fmt.Fprintln(a.stdout, a.propStore().GetString(args[0], def))
			return nil
		},
	})

	propCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.propStore().SetString(args[0], args[1]) {
				return withCode(ExitCodeFailure, fmt.Errorf("failed to set property '%s'", args[0]))
			}
			return nil
		},
	})

	return propCmd
}
