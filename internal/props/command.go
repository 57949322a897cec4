package props

import (
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner interface {
	Run(name string, args ...string) (string, error)
}

// ExecCommandRunner executes commands with os/exec.
type ExecCommandRunner struct{}

// Run executes a command and returns its combined output.
func (ExecCommandRunner) Run(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return string(out), err
}

// CommandRegistry talks to the platform property service through the
// getprop and setprop tools.
type CommandRegistry struct {
	runner  CommandRunner
	getProp string
	setProp string
}

// NewCommandRegistry creates a CommandRegistry. A nil runner uses os/exec.
func NewCommandRegistry(runner CommandRunner) *CommandRegistry {
	if runner == nil {
		runner = ExecCommandRunner{}
	}
	return &CommandRegistry{runner: runner, getProp: "getprop", setProp: "setprop"}
}

// Get reports an unset key when getprop prints nothing; getprop does not
// distinguish an unset key from an empty value.
func (r *CommandRegistry) Get(key string) (string, bool, error) {
	out, err := r.runner.Run(r.getProp, key)
	if err != nil {
		return "", false, fmt.Errorf("%s %s: %w: %s", r.getProp, key, err, strings.TrimSpace(out))
	}
	v := strings.TrimRight(out, "\r\n")
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (r *CommandRegistry) Set(key, value string) error {
	out, err := r.runner.Run(r.setProp, key, value)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", r.setProp, key, err, strings.TrimSpace(out))
	}
	return nil
}
