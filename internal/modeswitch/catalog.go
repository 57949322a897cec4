package modeswitch

import (
	"sort"

	"github.com/stackvity/devicesettings/internal/filestore"
)

// Built-in switch ids.
const (
	GPUThrottling      = "gpu_throttling"
	PerformanceProfile = "performance_profile"
	FastCharge         = "fast_charge"
)

var catalog = map[string]Definition{
	GPUThrottling: {
		ID:            GPUThrottling,
		FalseSentinel: filestore.SentinelZero,
		Persist:       true,
	},
	PerformanceProfile: {
		ID:            PerformanceProfile,
		FalseSentinel: filestore.SentinelZero,
		Persist:       true,
	},
	// Exposed as a kernel module parameter, which reads back as Y/N.
	FastCharge: {
		ID:            FastCharge,
		FalseSentinel: filestore.SentinelNo,
		Persist:       true,
	},
}

// Builtin returns the built-in definition for id.
func Builtin(id string) (Definition, bool) {
	def, ok := catalog[id]
	return def, ok
}

// BuiltinIDs returns the built-in switch ids in sorted order.
func BuiltinIDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
