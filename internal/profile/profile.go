// Package profile loads the per-device document that maps switch ids onto
// control node paths. Profiles are YAML or TOML, chosen by file extension.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/devicesettings/internal/filestore"
	"github.com/stackvity/devicesettings/internal/filesystem"
	"github.com/stackvity/devicesettings/internal/modeswitch"
)

// ErrUnsupportedFormat is returned for profile files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported profile format")

// Node is one switch entry in a profile.
type Node struct {
	ID            string `yaml:"id" toml:"id"`
	Path          string `yaml:"path" toml:"path"`
	Title         string `yaml:"title,omitempty" toml:"title,omitempty"`
	FalseSentinel string `yaml:"false_sentinel,omitempty" toml:"false_sentinel,omitempty"`
	Fallback      bool   `yaml:"fallback,omitempty" toml:"fallback,omitempty"`
	Persist       *bool  `yaml:"persist,omitempty" toml:"persist,omitempty"`
}

// Profile lists the switches available on one device.
type Profile struct {
	Device string `yaml:"device" toml:"device"`
	Nodes  []Node `yaml:"nodes" toml:"nodes"`
}

// Load reads and validates the profile at path.
func Load(fsys filesystem.FileSystem, path string) (*Profile, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile '%s': %w", path, err)
	}
	p, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load profile '%s': %w", path, err)
	}
	return p, nil
}

// FormatFromPath returns "yaml" or "toml" based on the file extension, or the
// bare extension when it is neither.
func FormatFromPath(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}

// Parse decodes and validates a profile document.
func Parse(data []byte, format string) (*Profile, error) {
	var p Profile
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return nil, fmt.Errorf("invalid toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("invalid toml: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks ids and paths.
func (p *Profile) Validate() error {
	var errs []string
	seen := make(map[string]bool, len(p.Nodes))
	for i, n := range p.Nodes {
		switch {
		case strings.TrimSpace(n.ID) == "":
			errs = append(errs, fmt.Sprintf("nodes[%d]: id cannot be empty", i))
		case seen[n.ID]:
			errs = append(errs, fmt.Sprintf("nodes[%d]: duplicate id '%s'", i, n.ID))
		}
		seen[n.ID] = true
		if n.Path != "" && !filepath.IsAbs(n.Path) {
			errs = append(errs, fmt.Sprintf("nodes[%d]: path '%s' must be absolute", i, n.Path))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid profile: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (p *Profile) lookup(id string) (Node, bool) {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodePath returns the configured path for id, or "" when id is not listed.
func (p *Profile) NodePath(id string) string {
	n, _ := p.lookup(id)
	return n.Path
}

// Definition builds the switch definition for id. Built-in switches supply
// defaults for fields the profile leaves out.
func (p *Profile) Definition(id string) (modeswitch.Definition, bool) {
	n, ok := p.lookup(id)
	if !ok {
		return modeswitch.Definition{}, false
	}
	def, builtin := modeswitch.Builtin(id)
	if !builtin {
		def = modeswitch.Definition{ID: id, FalseSentinel: filestore.SentinelZero}
	}
	if n.FalseSentinel != "" {
		def.FalseSentinel = filestore.Sentinel(n.FalseSentinel)
	}
	if n.Fallback {
		def.Fallback = true
	}
	if n.Persist != nil {
		def.Persist = *n.Persist
	}
	return def, true
}

// IDs returns the node ids in profile order.
func (p *Profile) IDs() []string {
	ids := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// Title returns the display title for id, defaulting to the id.
func (p *Profile) Title(id string) string {
	if n, ok := p.lookup(id); ok && n.Title != "" {
		return n.Title
	}
	return id
}

// Paths returns the non-empty node paths.
func (p *Profile) Paths() []string {
	var paths []string
	for _, n := range p.Nodes {
		if n.Path != "" {
			paths = append(paths, n.Path)
		}
	}
	return paths
}
