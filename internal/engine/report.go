package engine

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SwitchStatus is the observed state of one switch.
type SwitchStatus struct {
	ID        string `yaml:"id" toml:"id"`
	Title     string `yaml:"title" toml:"title"`
	Path      string `yaml:"path" toml:"path"`
	Supported bool   `yaml:"supported" toml:"supported"`
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Value     string `yaml:"value,omitempty" toml:"value,omitempty"`
	Saved     string `yaml:"saved,omitempty" toml:"saved,omitempty"`
}

// Report summarizes a snapshot of all switches in a profile.
type Report struct {
	Device      string         `yaml:"device" toml:"device"`
	Supported   int            `yaml:"supported" toml:"supported"`
	Unsupported int            `yaml:"unsupported" toml:"unsupported"`
	Enabled     int            `yaml:"enabled" toml:"enabled"`
	Switches    []SwitchStatus `yaml:"switches" toml:"switches"`
	Duration    time.Duration  `yaml:"-" toml:"-"`
}

func (r *Report) add(st SwitchStatus) {
	r.Switches = append(r.Switches, st)
	if st.Supported {
		r.Supported++
	} else {
		r.Unsupported++
	}
	if st.Enabled {
		r.Enabled++
	}
}

// Find returns the status for id.
func (r Report) Find(id string) (SwitchStatus, bool) {
	for _, st := range r.Switches {
		if st.ID == id {
			return st, true
		}
	}
	return SwitchStatus{}, false
}

// Encode writes the report as "text", "yaml" or "toml".
func (r Report) Encode(w io.Writer, format string) error {
	switch format {
	case "", "text":
		return r.writeText(w)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report as yaml: %w", err)
		}
		return enc.Close()
	case "toml":
		if err := toml.NewEncoder(w).Encode(r); err != nil {
			return fmt.Errorf("failed to encode report as toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format '%s'", format)
	}
}

func (r Report) writeText(w io.Writer) error {
	if r.Device != "" {
		fmt.Fprintf(w, "Device: %s\n", r.Device)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tSUPPORTED\tSAVED\tPATH")
	for _, st := range r.Switches {
		state := OnOff(st.Enabled)
		if st.Value == "" && !st.Enabled {
			state = "-"
		}
		saved := st.Saved
		if saved == "" {
			saved = "-"
		}
		path := st.Path
		if path == "" {
			path = "(not configured)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", st.ID, state, st.Supported, saved, path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d supported, %d unsupported, %d enabled\n", r.Supported, r.Unsupported, r.Enabled)
	return err
}

// OnOff renders a switch state as "on" or "off".
func OnOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
