// Package template renders status reports through user-supplied Go templates.
package template

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/stackvity/devicesettings/internal/engine"
	"github.com/stackvity/devicesettings/internal/filesystem"
)

// Executor renders data with a template loaded from a file.
type Executor struct {
	template *template.Template
	filePath string
}

// Funcs are available to every template in addition to the text/template builtins.
var Funcs = template.FuncMap{
	"onoff": engine.OnOff,
	"upper": strings.ToUpper,
	"join":  strings.Join,
}

// NewExecutor parses the template at templateFilePath.
// Returns nil, nil if templateFilePath is empty so the caller can fall back
// to its built-in output.
func NewExecutor(templateFilePath string, fs filesystem.FileSystem) (*Executor, error) {
	if templateFilePath == "" {
		return nil, nil
	}

	content, err := fs.ReadFile(templateFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file '%s': %w", templateFilePath, err)
	}

	tmpl, err := template.New(templateFilePath).
		Funcs(Funcs).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template file '%s': %w", templateFilePath, err)
	}

	return &Executor{template: tmpl, filePath: templateFilePath}, nil
}

// Execute writes the rendered template to w. Nothing is written when
// execution fails part way.
func (e *Executor) Execute(w io.Writer, data any) error {
	var rendered strings.Builder
	if err := e.template.Execute(&rendered, data); err != nil {
		return fmt.Errorf("failed to execute template '%s': %w", e.filePath, err)
	}
	_, err := io.WriteString(w, rendered.String())
	return err
}
