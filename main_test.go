package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type cliEnv struct {
	dir        string
	profile    string
	propsFile  string
	gpuNode    string
	chargeNode string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{
		dir:        dir,
		profile:    filepath.Join(dir, "profile.yaml"),
		propsFile:  filepath.Join(dir, "state", "props"),
		gpuNode:    filepath.Join(dir, "throttling"),
		chargeNode: filepath.Join(dir, "fast_charge"),
	}
	require.NoError(t, os.WriteFile(env.gpuNode, []byte("0\n"), 0o644))
	require.NoError(t, os.WriteFile(env.chargeNode, []byte("N\n"), 0o644))
	profile := "device: cli-test\nnodes:\n" +
		"  - id: gpu_throttling\n    path: " + env.gpuNode + "\n" +
		"  - id: fast_charge\n    path: " + env.chargeNode + "\n" +
		"  - id: hbm\n    path: " + filepath.Join(dir, "missing") + "\n"
	require.NoError(t, os.WriteFile(env.profile, []byte(profile), 0o644))
	return env
}

func (e *cliEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--profile", e.profile, "--props-file", e.propsFile}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitCodeSuccess, exitCode(nil))
	assert.Equal(t, ExitCodeProfileError, exitCode(withCode(ExitCodeProfileError, errors.New("x"))))
	assert.Equal(t, ExitCodeConfigError, exitCode(errors.New("unknown flag")))
}

func TestParseSwitchValue(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "ON": true, "enable": true, "1": true, "true": true, "off": false, "0": false, "false": false} {
		got, err := parseSwitchValue(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseSwitchValue("maybe")
	assert.Error(t, err)
}

func TestCLI_SetGetRestore(t *testing.T) {
	env := setupCLI(t)

	code, out, _ := env.run(t, "set", "gpu_throttling", "on")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "gpu_throttling: on\n", out)
	assert.Equal(t, "1", readFile(t, env.gpuNode))
	assert.Contains(t, readFile(t, env.propsFile), "persist.devicesettings.gpu_throttling=1")

	code, out, _ = env.run(t, "get", "gpu_throttling")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "on\n", out)

	require.NoError(t, os.WriteFile(env.gpuNode, []byte("0\n"), 0o644))
	code, out, _ = env.run(t, "restore")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "gpu_throttling: on\n", out)
	assert.Equal(t, "1", readFile(t, env.gpuNode))
}

func TestCLI_SetErrors(t *testing.T) {
	env := setupCLI(t)

	code, _, stderr := env.run(t, "set", "gpu_throttling", "maybe")
	assert.Equal(t, ExitCodeConfigError, code)
	assert.Contains(t, stderr, "invalid switch value")

	code, _, stderr = env.run(t, "set", "no_such_switch", "on")
	assert.Equal(t, ExitCodeFailure, code)
	assert.Contains(t, stderr, "no_such_switch")

	code, _, stderr = env.run(t, "set", "hbm", "on")
	assert.Equal(t, ExitCodeFailure, code)
	assert.Contains(t, stderr, "not supported")
	assert.NoFileExists(t, env.propsFile, "failed writes are not recorded")

	code, _, _ = env.run(t, "get", "no_such_switch")
	assert.Equal(t, ExitCodeFailure, code)
}

func TestCLI_Status(t *testing.T) {
	env := setupCLI(t)

	code, out, _ := env.run(t, "status")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, out, "Device: cli-test")
	assert.Contains(t, out, "2 supported, 1 unsupported, 0 enabled")

	code, out, _ = env.run(t, "status", "--format", "yaml")
	require.Equal(t, ExitCodeSuccess, code)
	var report struct {
		Device   string `yaml:"device"`
		Switches []struct {
			ID        string `yaml:"id"`
			Supported bool   `yaml:"supported"`
		} `yaml:"switches"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "cli-test", report.Device)
	require.Len(t, report.Switches, 3)
	assert.False(t, report.Switches[2].Supported)

	tmpl := filepath.Join(env.dir, "status.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte(`{{ range .Switches }}{{ .ID }}={{ onoff .Enabled }};{{ end }}`), 0o644))
	code, out, _ = env.run(t, "status", "--template", tmpl)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "gpu_throttling=off;fast_charge=off;hbm=off;", out)

	code, _, stderr := env.run(t, "status", "--template", filepath.Join(env.dir, "missing.tmpl"))
	assert.Equal(t, ExitCodeConfigError, code)
	assert.Contains(t, stderr, "failed to read template file")

	code, _, stderr = env.run(t, "status", "--format", "json")
	assert.Equal(t, ExitCodeConfigError, code)
	assert.Contains(t, stderr, "format must be")
}

func TestCLI_ProfileErrors(t *testing.T) {
	env := setupCLI(t)
	env.profile = filepath.Join(env.dir, "absent.yaml")

	code, _, stderr := env.run(t, "status")
	assert.Equal(t, ExitCodeProfileError, code)
	assert.Contains(t, stderr, "absent.yaml")
}

func TestCLI_Props(t *testing.T) {
	env := setupCLI(t)

	code, out, _ := env.run(t, "prop", "get", "ro.test.value", "fallback")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "fallback\n", out)

	code, _, _ = env.run(t, "prop", "set", "ro.test.value", "42")
	require.Equal(t, ExitCodeSuccess, code)

	code, out, _ = env.run(t, "prop", "get", "ro.test.value", "fallback")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "42\n", out)

	code, _, _ = env.run(t, "--props-backend", "memory", "prop", "set", "", "1")
	assert.Equal(t, ExitCodeFailure, code)
}

func TestCLI_ConfigFileAndEnv(t *testing.T) {
	env := setupCLI(t)
	cfg := filepath.Join(env.dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("props-backend: sqlite\n"), 0o644))

	code, _, stderr := env.run(t, "--config", cfg, "status")
	assert.Equal(t, ExitCodeConfigError, code)
	assert.Contains(t, stderr, "props-backend must be one of")

	t.Setenv("DEVICESETTINGS_PROPS_BACKEND", "memory")
	code, _, _ = env.run(t, "--config", cfg, "status")
	assert.Equal(t, ExitCodeSuccess, code, "env overrides the config file")

	code, _, stderr = env.run(t, "--config", filepath.Join(env.dir, "nope.yaml"), "status")
	assert.Equal(t, ExitCodeConfigError, code)
	assert.Contains(t, stderr, "error reading config file")
}

func TestCLI_Version(t *testing.T) {
	var stdout bytes.Buffer
	code := run([]string{"--version"}, &stdout, &bytes.Buffer{})
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout.String(), "devicesettings version dev")
}
