package props

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(name string, args ...string) (string, error) {
	callArgs := append([]interface{}{name}, toInterfaces(args)...)
	ret := m.Called(callArgs...)
	return ret.String(0), ret.Error(1)
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func TestCommandRegistry_Get(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "getprop", "ro.build.type").Return("user\n", nil)
	runner.On("Run", "getprop", "persist.unset").Return("\n", nil)

	reg := NewCommandRegistry(runner)
	v, ok, err := reg.Get("ro.build.type")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user", v)

	_, ok, err = reg.Get("persist.unset")
	require.NoError(t, err)
	assert.False(t, ok)
	runner.AssertExpectations(t)
}

func TestCommandRegistry_Set(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "setprop", "persist.flag", "1").Return("", nil)
	runner.On("Run", "setprop", "ro.locked", "1").Return("Failed to set property\n", errors.New("exit status 1"))

	s := New(NewCommandRegistry(runner), nil)
	assert.True(t, s.SetBool("persist.flag", true))
	assert.False(t, s.SetBool("ro.locked", true))
	runner.AssertExpectations(t)
}

func TestCommandRegistry_GetFailure(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "getprop", "x").Return("", errors.New("executable file not found"))

	reg := NewCommandRegistry(runner)
	_, _, err := reg.Get("x")
	assert.Error(t, err)
	assert.Equal(t, "fallback", New(reg, nil).GetString("x", "fallback"))
}
