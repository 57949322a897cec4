package template

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/devicesettings/internal/filesystem"
)

type status struct {
	ID      string
	Enabled bool
}

type report struct {
	Device   string
	Switches []status
}

func TestNewExecutor(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	mockFS.AddFile("/templates/valid.tmpl", []byte(`{{ .Device }}`), 0o644)
	mockFS.AddFile("/templates/invalid.tmpl", []byte(`{{ .Device`), 0o644)

	t.Run("ValidTemplate", func(t *testing.T) {
		executor, err := NewExecutor("/templates/valid.tmpl", mockFS)
		require.NoError(t, err)
		require.NotNil(t, executor)
		assert.Equal(t, "/templates/valid.tmpl", executor.filePath)
	})

	t.Run("NonExistentTemplateFile", func(t *testing.T) {
		executor, err := NewExecutor("/templates/missing.tmpl", mockFS)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, executor)
	})

	t.Run("TemplateReadError", func(t *testing.T) {
		readErr := errors.New("permission denied")
		mockFS.AddFile("/templates/locked.tmpl", []byte(`x`), 0o644)
		mockFS.SimulateOpenError("/templates/locked.tmpl", readErr)

		executor, err := NewExecutor("/templates/locked.tmpl", mockFS)
		assert.ErrorIs(t, err, readErr)
		assert.Nil(t, executor)
	})

	t.Run("InvalidTemplateSyntax", func(t *testing.T) {
		executor, err := NewExecutor("/templates/invalid.tmpl", mockFS)
		require.Error(t, err)
		assert.Nil(t, executor)
		assert.Contains(t, err.Error(), "template:")
	})

	t.Run("EmptyTemplatePath", func(t *testing.T) {
		executor, err := NewExecutor("", mockFS)
		assert.NoError(t, err)
		assert.Nil(t, executor)
	})
}

func TestExecutor_Execute(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	data := report{
		Device:   "test-device",
		Switches: []status{{ID: "gpu_throttling", Enabled: true}, {ID: "fast_charge"}},
	}

	t.Run("SuccessfulExecution", func(t *testing.T) {
		mockFS.AddFile("/ok.tmpl", []byte(`{{ upper .Device }}:{{ range .Switches }} {{ .ID }}={{ onoff .Enabled }}{{ end }}`), 0o644)
		executor, err := NewExecutor("/ok.tmpl", mockFS)
		require.NoError(t, err)

		var out strings.Builder
		require.NoError(t, executor.Execute(&out, data))
		assert.Equal(t, "TEST-DEVICE: gpu_throttling=on fast_charge=off", out.String())
	})

	t.Run("ExecutionError_MissingField", func(t *testing.T) {
		mockFS.AddFile("/missing.tmpl", []byte(`{{ .Device }} {{ .Missing }}`), 0o644)
		executor, err := NewExecutor("/missing.tmpl", mockFS)
		require.NoError(t, err)

		var out strings.Builder
		err = executor.Execute(&out, data)
		require.Error(t, err)
		assert.Empty(t, out.String(), "partial output is discarded")
		assert.Contains(t, err.Error(), "Missing")
	})

	t.Run("ExecutionError_MissingKey", func(t *testing.T) {
		mockFS.AddFile("/map.tmpl", []byte(`{{ .Device }}`), 0o644)
		executor, err := NewExecutor("/map.tmpl", mockFS)
		require.NoError(t, err)

		err = executor.Execute(&strings.Builder{}, map[string]any{"Other": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `map has no entry for key "Device"`)
	})

	t.Run("ExecutionError_FunctionCallError", func(t *testing.T) {
		mockFS.AddFile("/func.tmpl", []byte(`{{ join .Device "," }}`), 0o644)
		executor, err := NewExecutor("/func.tmpl", mockFS)
		require.NoError(t, err)

		err = executor.Execute(&strings.Builder{}, data)
		assert.Error(t, err)
	})
}
