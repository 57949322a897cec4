// Package modeswitch maps boolean user-facing toggles onto control nodes.
//
// A Switch is a single parameterized type: the per-feature differences (node
// id, false sentinel, fallback) live in a Definition rather than in one type
// per hardware feature. Switches hold no state beyond their definition and
// resolver and can be built fresh for every query.
package modeswitch

import (
	"github.com/stackvity/devicesettings/internal/filestore"
)

// Resolver maps a logical switch id onto a control node path. An empty
// result means the node is not configured for this device.
type Resolver interface {
	NodePath(id string) string
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(id string) string

// NodePath calls f(id).
func (f ResolverFunc) NodePath(id string) string {
	return f(id)
}

// Definition describes one toggle.
type Definition struct {
	ID            string
	FalseSentinel filestore.Sentinel
	Fallback      bool
	// Persist records applied values so Controller.Restore can replay them.
	Persist bool
}

// Switch is a toggle bound to one control node.
type Switch struct {
	def      Definition
	resolver Resolver
	store    *filestore.Store
}

// New binds def to the node that resolver yields for def.ID.
func New(def Definition, resolver Resolver, store *filestore.Store) *Switch {
	if def.FalseSentinel == "" {
		def.FalseSentinel = filestore.SentinelZero
	}
	return &Switch{def: def, resolver: resolver, store: store}
}

// ID returns the switch id.
func (s *Switch) ID() string {
	return s.def.ID
}

// Definition returns the switch definition.
func (s *Switch) Definition() Definition {
	return s.def
}

// Path resolves the node path. It is re-resolved on every call.
func (s *Switch) Path() string {
	if s.resolver == nil {
		return ""
	}
	return s.resolver.NodePath(s.def.ID)
}

// IsSupported reports whether the node is configured and writable. Callers
// should not offer unsupported switches to the user.
func (s *Switch) IsSupported() bool {
	path := s.Path()
	return path != "" && s.store.IsWritable(path)
}

// IsCurrentlyEnabled decodes the node's current value.
func (s *Switch) IsCurrentlyEnabled() bool {
	return s.store.ReadBool(s.Path(), s.def.Fallback, s.def.FalseSentinel)
}

// Apply writes "1" or "0" to the node. True means the bytes were written, not
// that the hardware changed state.
func (s *Switch) Apply(enabled bool) bool {
	return s.store.WriteBool(s.Path(), enabled)
}
