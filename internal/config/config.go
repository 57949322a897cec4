package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults shared by flag definitions and viper.
const (
	DefaultProfile      = "/etc/devicesettings/profile.yaml"
	DefaultPropsBackend = BackendFile
	DefaultPropsFile    = "/var/lib/devicesettings/props"
	DefaultFormat       = "text"
	DefaultDebounce     = 300 * time.Millisecond
)

// Property registry backends.
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendCommand = "command"
)

var validBackends = map[string]bool{
	BackendMemory:  true,
	BackendFile:    true,
	BackendCommand: true,
}

var validFormats = map[string]bool{
	"text": true,
	"yaml": true,
	"toml": true,
}

// WatchConfig holds configuration specific to watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Options holds all the configuration settings for the devicesettings CLI.
// Tags match the flag names so viper keys line up with BindPFlags.
type Options struct {
	Profile      string `mapstructure:"profile"`
	PropsBackend string `mapstructure:"props-backend"`
	PropsFile    string `mapstructure:"props-file"`

	// status output
	Format       string `mapstructure:"format"`
	TemplateFile string `mapstructure:"template"`

	Verbose bool        `mapstructure:"verbose"`
	Watch   WatchConfig `mapstructure:"watch"`

	ConfigFile string `mapstructure:"config"`
}

// ValidateConfig checks the loaded configuration options for validity.
// The profile and template files are read later through the injected
// filesystem; only their settings are checked here.
func (opts *Options) ValidateConfig() error {
	var errs []string

	if strings.TrimSpace(opts.Profile) == "" {
		errs = append(errs, "profile path cannot be empty")
	}

	if !validBackends[opts.PropsBackend] {
		errs = append(errs, fmt.Sprintf("props-backend must be one of 'memory', 'file' or 'command', got '%s'", opts.PropsBackend))
	}
	if opts.PropsBackend == BackendFile && strings.TrimSpace(opts.PropsFile) == "" {
		errs = append(errs, "props-file cannot be empty when props-backend is 'file'")
	}

	if opts.Format != "" && !validFormats[opts.Format] {
		errs = append(errs, fmt.Sprintf("format must be 'text', 'yaml' or 'toml', got '%s'", opts.Format))
	}

	if opts.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce duration must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
