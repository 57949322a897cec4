package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stackvity/devicesettings/internal/config"
	"github.com/stackvity/devicesettings/internal/filesystem"
	"github.com/stackvity/devicesettings/internal/props"
)

// Set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	ExitCodeSuccess      = 0
	ExitCodeFailure      = 1
	ExitCodeConfigError  = 2
	ExitCodeInterrupt    = 3
	ExitCodeProfileError = 4
	ExitCodeUnknown      = 10
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps a command error to a process exit code. Errors raised by
// cobra itself (unknown flags, wrong argument counts) count as usage errors.
func exitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitCodeConfigError
}

// app holds the state shared by all subcommands of one invocation.
type app struct {
	opts   config.Options
	v      *viper.Viper
	logger *slog.Logger
	fs     filesystem.FileSystem
	runner props.CommandRunner
	reg    props.Registry
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		fs:     filesystem.NewRealFileSystem(),
		runner: props.ExecCommandRunner{},
		logger: slog.New(slog.DiscardHandler),
		stdout: stdout,
		stderr: stderr,
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devicesettings",
		Short: "Inspect and toggle device settings exposed as kernel control nodes",
		Long: `devicesettings reads and writes the single-line control files that the
kernel exposes for hardware features such as GPU throttling or fast charging.

A device profile maps switch ids to node paths. Values chosen with 'set' are
recorded in a property registry and can be replayed at boot with 'restore'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.opts.ConfigFile, "config", "c", "", "Configuration file path (default: .devicesettings.yaml in . or /etc/devicesettings)")
	pf.StringP("profile", "p", config.DefaultProfile, "Device profile mapping switch ids to control nodes (YAML or TOML)")
	pf.String("props-backend", config.DefaultPropsBackend, "Property registry backend: 'memory', 'file' or 'command'")
	pf.String("props-file", config.DefaultPropsFile, "Property file used by the 'file' backend")
	pf.BoolP("verbose", "v", false, "Enable verbose debug logging")

	rootCmd.SetVersionTemplate(fmt.Sprintf("devicesettings version %s (commit: %s, built: %s)\n", version, commit, date))
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.AddCommand(
		newStatusCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newRestoreCmd(a),
		newWatchCmd(a),
		newPropCmd(a),
	)
	return rootCmd
}

// setup loads configuration, validates it and creates the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.initConfig(cmd); err != nil {
		return withCode(ExitCodeConfigError, err)
	}
	if err := a.v.Unmarshal(&a.opts); err != nil {
		return withCode(ExitCodeConfigError, fmt.Errorf("error unmarshalling configuration: %w", err))
	}
	if err := a.opts.ValidateConfig(); err != nil {
		return withCode(ExitCodeConfigError, err)
	}

	logLevel := slog.LevelInfo
	if a.opts.Verbose {
		logLevel = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: logLevel}))
	a.logger.Debug("Configuration loaded and validated successfully", "options", a.opts)
	return nil
}

// initConfig layers defaults, env vars, the config file and flags, in
// increasing order of precedence.
func (a *app) initConfig(cmd *cobra.Command) error {
	v := viper.New()

	v.SetDefault("profile", config.DefaultProfile)
	v.SetDefault("props-backend", config.DefaultPropsBackend)
	v.SetDefault("props-file", config.DefaultPropsFile)
	v.SetDefault("format", config.DefaultFormat)
	v.SetDefault("watch.debounce", config.DefaultDebounce.String())

	v.SetEnvPrefix("DEVICESETTINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.opts.ConfigFile != "" {
		v.SetConfigFile(a.opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", a.opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(".devicesettings")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/devicesettings")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
			}
		}
	}

	// cmd.Flags holds the subcommand's own flags merged with the persistent ones.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("internal error binding flags to viper: %w", err)
	}

	a.v = v
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	code := exitCode(err)
	if err != nil && code != ExitCodeInterrupt {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
