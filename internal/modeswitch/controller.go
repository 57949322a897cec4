package modeswitch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stackvity/devicesettings/internal/filestore"
	"github.com/stackvity/devicesettings/internal/props"
)

// PersistPrefix prefixes the property keys holding recorded switch values.
const PersistPrefix = "persist.devicesettings."

// ErrUnknownSwitch is returned for ids the controller has no definition for.
var ErrUnknownSwitch = errors.New("unknown switch")

// Catalog looks up switch definitions by id.
type Catalog interface {
	Definition(id string) (Definition, bool)
	IDs() []string
}

// Controller applies switches and records the last applied value of
// persisted switches in the property store.
type Controller struct {
	catalog  Catalog
	resolver Resolver
	files    *filestore.Store
	props    *props.Store
	logger   *slog.Logger
}

// NewController creates a Controller. A nil logger discards diagnostics.
func NewController(catalog Catalog, resolver Resolver, files *filestore.Store, propStore *props.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		catalog:  catalog,
		resolver: resolver,
		files:    files,
		props:    propStore,
		logger:   logger,
	}
}

// Switch builds the switch for id.
func (c *Controller) Switch(id string) (*Switch, error) {
	def, ok := c.catalog.Definition(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSwitch, id)
	}
	return New(def, c.resolver, c.files), nil
}

// Switches builds every switch in catalog order.
func (c *Controller) Switches() []*Switch {
	ids := c.catalog.IDs()
	out := make([]*Switch, 0, len(ids))
	for _, id := range ids {
		if sw, err := c.Switch(id); err == nil {
			out = append(out, sw)
		}
	}
	return out
}

// Set applies value to the switch and, for persisted switches, records it
// once the node write succeeded. It returns the result of the node write.
func (c *Controller) Set(id string, value bool) (bool, error) {
	sw, err := c.Switch(id)
	if err != nil {
		return false, err
	}
	if !sw.Apply(value) {
		c.logger.Warn("Switch write failed", "switch", id, "path", sw.Path(), "value", value)
		return false, nil
	}
	if sw.Definition().Persist && c.props != nil {
		if !c.props.SetBool(PersistPrefix+id, value) {
			c.logger.Warn("Could not record switch value", "switch", id)
		}
	}
	c.logger.Info("Switch applied", "switch", id, "value", value)
	return true, nil
}

// Saved returns the recorded value of a persisted switch.
func (c *Controller) Saved(id string) (value bool, ok bool) {
	if c.props == nil {
		return false, false
	}
	return c.props.LookupBool(PersistPrefix + id)
}

// RestoreResult reports the outcome for one switch during Restore.
type RestoreResult struct {
	ID      string
	Value   bool
	Applied bool
	Reason  string
}

// Restore re-applies every recorded value to supported switches.
func (c *Controller) Restore() []RestoreResult {
	var results []RestoreResult
	for _, sw := range c.Switches() {
		if !sw.Definition().Persist {
			continue
		}
		value, ok := c.Saved(sw.ID())
		if !ok {
			continue
		}
		res := RestoreResult{ID: sw.ID(), Value: value}
		switch {
		case !sw.IsSupported():
			res.Reason = "unsupported"
		case sw.Apply(value):
			res.Applied = true
		default:
			res.Reason = "write failed"
		}
		c.logger.Debug("Restore", "switch", sw.ID(), "value", value, "applied", res.Applied, "reason", res.Reason)
		results = append(results, res)
	}
	return results
}

// BuiltinCatalog exposes the built-in definitions as a Catalog.
type BuiltinCatalog struct{}

func (BuiltinCatalog) Definition(id string) (Definition, bool) { return Builtin(id) }
func (BuiltinCatalog) IDs() []string                           { return BuiltinIDs() }
