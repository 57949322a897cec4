// Package props provides typed access to a process-wide property registry.
//
// Getters take a caller-supplied default and return it whenever the key is
// unset, empty, unparsable or the registry fails. Setters report success as a
// bool. No error ever reaches the caller; failures are logged.
package props

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Store is the typed view of a Registry.
type Store struct {
	reg    Registry
	logger *slog.Logger
}

// New creates a Store over reg. A nil logger discards diagnostics.
func New(reg Registry, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{reg: reg, logger: logger}
}

// lookup returns the raw value, treating an empty value as unset.
func (s *Store) lookup(key string) (string, bool) {
	if key == "" {
		s.logger.Warn("Property lookup with empty key")
		return "", false
	}
	v, ok, err := s.reg.Get(key)
	if err != nil {
		s.logger.Error("Could not read property", "key", key, "error", err)
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *Store) store(key, value string) bool {
	if key == "" {
		s.logger.Warn("Property update with empty key")
		return false
	}
	if err := s.reg.Set(key, value); err != nil {
		s.logger.Error("Could not set property", "key", key, "value", value, "error", err)
		return false
	}
	s.logger.Debug("Property set", "key", key, "value", value)
	return true
}

// GetBool returns the boolean stored under key. "1", "y", "yes", "on" and
// "true" are true; "0", "n", "no", "off" and "false" are false. Anything else
// yields def.
func (s *Store) GetBool(key string, def bool) bool {
	if v, ok := s.LookupBool(key); ok {
		return v
	}
	return def
}

// LookupBool reads key once. ok is false when the key is unset or its value
// is not a boolean.
func (s *Store) LookupBool(key string) (value bool, ok bool) {
	v, found := s.lookup(key)
	if !found {
		return false, false
	}
	switch v {
	case "1", "y", "yes", "on", "true":
		return true, true
	case "0", "n", "no", "off", "false":
		return false, true
	}
	s.logger.Warn("Property is not a boolean", "key", key, "value", v)
	return false, false
}

// SetBool stores "1" or "0".
func (s *Store) SetBool(key string, value bool) bool {
	if value {
		return s.store(key, "1")
	}
	return s.store(key, "0")
}

// GetInt returns the integer stored under key. Decimal, 0x-prefixed hex and
// 0-prefixed octal forms are accepted.
func (s *Store) GetInt(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(strings.TrimSpace(v))
	if err != nil {
		s.logger.Warn("Property is not an integer", "key", key, "value", v)
		return def
	}
	return n
}

// SetInt stores value in decimal.
func (s *Store) SetInt(key string, value int) bool {
	return s.store(key, strconv.Itoa(value))
}

// GetString returns the value stored under key.
func (s *Store) GetString(key string, def string) string {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	return v
}

// SetString stores value verbatim.
func (s *Store) SetString(key string, value string) bool {
	return s.store(key, value)
}
