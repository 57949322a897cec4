package modeswitch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/devicesettings/internal/filestore"
	"github.com/stackvity/devicesettings/internal/filesystem"
)

func staticResolver(paths map[string]string) Resolver {
	return ResolverFunc(func(id string) string { return paths[id] })
}

func TestSwitch_MissingNode(t *testing.T) {
	mfs := filesystem.NewMockFileSystem()
	store := filestore.New(mfs, nil)
	def, _ := Builtin(GPUThrottling)
	sw := New(def, staticResolver(map[string]string{GPUThrottling: "/sys/class/foo/throttle"}), store)

	assert.False(t, sw.IsSupported())
	assert.False(t, sw.IsCurrentlyEnabled())
	assert.False(t, sw.Apply(true))
	mfs.AssertWriteNotCalled(t, "/sys/class/foo/throttle")
}

func TestSwitch_UnresolvedPath(t *testing.T) {
	store := filestore.New(filesystem.NewMockFileSystem(), nil)
	def, _ := Builtin(GPUThrottling)

	for name, r := range map[string]Resolver{
		"NilResolver":   nil,
		"EmptyResolver": staticResolver(nil),
	} {
		t.Run(name, func(t *testing.T) {
			sw := New(def, r, store)
			assert.Empty(t, sw.Path())
			assert.False(t, sw.IsSupported())
			assert.False(t, sw.IsCurrentlyEnabled())
			assert.False(t, sw.Apply(true))
		})
	}
}

func TestSwitch_ToggleLifecycle(t *testing.T) {
	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/sys/kernel/gpu/throttling", []byte("0"), 0o644)
	store := filestore.New(mfs, nil)
	def, _ := Builtin(GPUThrottling)
	sw := New(def, staticResolver(map[string]string{GPUThrottling: "/sys/kernel/gpu/throttling"}), store)

	require.True(t, sw.IsSupported())
	assert.False(t, sw.IsCurrentlyEnabled())

	assert.True(t, sw.Apply(true))
	content, _ := mfs.Content("/sys/kernel/gpu/throttling")
	assert.Equal(t, "1", content)
	assert.True(t, sw.IsCurrentlyEnabled())

	assert.True(t, sw.Apply(false))
	content, _ = mfs.Content("/sys/kernel/gpu/throttling")
	assert.Equal(t, "0", content)
	assert.False(t, sw.IsCurrentlyEnabled())
}

func TestSwitch_ReadOnlyNodeIsUnsupported(t *testing.T) {
	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/sys/node", []byte("1"), 0o444)
	def, _ := Builtin(PerformanceProfile)
	sw := New(def, staticResolver(map[string]string{PerformanceProfile: "/sys/node"}), filestore.New(mfs, nil))

	assert.False(t, sw.IsSupported())
	assert.True(t, sw.IsCurrentlyEnabled(), "read-only nodes still report their value")
	assert.False(t, sw.Apply(false))
}

func TestSwitch_NoSentinel(t *testing.T) {
	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/sys/module/charger/parameters/fast_charge", []byte("N\n"), 0o644)
	def, _ := Builtin(FastCharge)
	sw := New(def, staticResolver(map[string]string{FastCharge: "/sys/module/charger/parameters/fast_charge"}), filestore.New(mfs, nil))

	assert.False(t, sw.IsCurrentlyEnabled())
	mfs.AddFile("/sys/module/charger/parameters/fast_charge", []byte("Y\n"), 0o644)
	assert.True(t, sw.IsCurrentlyEnabled())
}

func TestSwitch_FailedWrite(t *testing.T) {
	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/sys/node", []byte("0"), 0o644)
	mfs.SimulateWriteError("/sys/node", errors.New("EBUSY"))
	def, _ := Builtin(GPUThrottling)
	sw := New(def, staticResolver(map[string]string{GPUThrottling: "/sys/node"}), filestore.New(mfs, nil))

	assert.True(t, sw.IsSupported())
	assert.False(t, sw.Apply(true))
}

func TestNew_DefaultsSentinel(t *testing.T) {
	sw := New(Definition{ID: "custom"}, nil, filestore.New(filesystem.NewMockFileSystem(), nil))
	assert.Equal(t, filestore.SentinelZero, sw.Definition().FalseSentinel)
}

func TestBuiltinIDs(t *testing.T) {
	assert.Equal(t, []string{FastCharge, GPUThrottling, PerformanceProfile}, BuiltinIDs())
	_, ok := Builtin("nope")
	assert.False(t, ok)
}
