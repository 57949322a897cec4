package filestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/stackvity/devicesettings/internal/filesystem"
)

// Sentinel is the line content that decodes to false in ReadBool.
type Sentinel string

const (
	// SentinelZero treats "0" as false. Used by most sysfs toggles.
	SentinelZero Sentinel = "0"
	// SentinelNo treats "N" as false. Used by kernel module parameters.
	SentinelNo Sentinel = "N"
)

const readBufferSize = 1024

// Store marshals typed values to and from control node files.
type Store struct {
	fs     filesystem.FileSystem
	logger *slog.Logger
}

// New creates a Store. A nil logger discards diagnostics.
func New(fsys filesystem.FileSystem, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{fs: fsys, logger: logger}
}

// Exists reports whether a filesystem entry exists at path.
func (s *Store) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := s.fs.Stat(path)
	return err == nil
}

// IsReadable reports whether path exists and may be read.
func (s *Store) IsReadable(path string) bool {
	return s.Exists(path) && s.fs.Access(path, filesystem.AccessRead) == nil
}

// IsWritable reports whether path exists and may be written.
func (s *Store) IsWritable(path string) bool {
	return s.Exists(path) && s.fs.Access(path, filesystem.AccessWrite) == nil
}

// ReadLine returns the first line of the file with its terminator removed.
// "\n", "\r\n" and a lone "\r" all end a line. The second result is false if
// the file is missing, unreadable, empty or a read fails.
func (s *Store) ReadLine(path string) (string, bool) {
	if path == "" {
		s.report("read", path, ErrInvalidPath)
		return "", false
	}
	f, err := s.fs.Open(path)
	if err != nil {
		s.report("read", path, err)
		return "", false
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, readBufferSize)
	var line strings.Builder
	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			if line.Len() == 0 {
				s.logger.Debug("Control node is empty", "path", path)
				return "", false
			}
			return line.String(), true
		}
		if err != nil {
			s.report("read", path, err)
			return "", false
		}
		if b == '\n' || b == '\r' {
			return line.String(), true
		}
		line.WriteByte(b)
	}
}

// ReadBool decodes the first line as a boolean. Any content other than the
// sentinel, including an empty line, is true. fallback is returned when no
// line can be read.
func (s *Store) ReadBool(path string, fallback bool, sentinel Sentinel) bool {
	line, ok := s.ReadLine(path)
	if !ok {
		return fallback
	}
	return line != string(sentinel)
}

// ReadInt decodes the first line as an integer, returning fallback when the
// line is missing or not a number.
func (s *Store) ReadInt(path string, fallback int) int {
	line, ok := s.ReadLine(path)
	if !ok {
		return fallback
	}
	v, err := cast.ToIntE(strings.TrimSpace(line))
	if err != nil {
		s.logger.Warn("Control node does not hold an integer", "path", path, "value", line)
		return fallback
	}
	return v
}

// ReadString returns the first line, or fallback when it cannot be read.
func (s *Store) ReadString(path string, fallback string) string {
	line, ok := s.ReadLine(path)
	if !ok {
		return fallback
	}
	return line
}

// Write serializes value (bool, any integer type, float32/float64 or string)
// and replaces the node's content with it.
func (s *Store) Write(path string, value any) bool {
	text, err := FormatScalar(value)
	if err != nil {
		s.logger.Error("Refusing to write value", "path", path, "error", err)
		return false
	}
	return s.writeText(path, text)
}

// WriteBool writes "1" or "0".
func (s *Store) WriteBool(path string, value bool) bool {
	return s.Write(path, value)
}

// WriteInt writes value in decimal.
func (s *Store) WriteInt(path string, value int64) bool {
	return s.Write(path, value)
}

// WriteFloat writes value rounded half up to an integer.
func (s *Store) WriteFloat(path string, value float64) bool {
	return s.Write(path, value)
}

// WriteString writes value verbatim.
func (s *Store) WriteString(path string, value string) bool {
	return s.Write(path, value)
}

// writeText checks writability before opening the node. A node that changes
// between the check and the open is reported as a failed write.
func (s *Store) writeText(path, text string) bool {
	if path == "" {
		s.report("write", path, ErrInvalidPath)
		return false
	}
	if !s.IsWritable(path) {
		s.logger.Warn("Control node is not writable", "path", path)
		return false
	}

	w, err := s.fs.OpenWriter(path)
	if err != nil {
		s.report("write", path, err)
		return false
	}
	if _, err := io.WriteString(w, text); err != nil {
		w.Close()
		s.report("write", path, err)
		return false
	}
	if err := w.Close(); err != nil {
		s.report("write", path, err)
		return false
	}
	s.logger.Debug("Wrote control node", "path", path, "value", text)
	return true
}

// Delete removes the file at path.
func (s *Store) Delete(path string) bool {
	if path == "" {
		s.report("delete", path, ErrInvalidPath)
		return false
	}
	if err := s.fs.Remove(path); err != nil {
		s.report("delete", path, err)
		return false
	}
	return true
}

// Rename moves oldPath to newPath.
func (s *Store) Rename(oldPath, newPath string) bool {
	if oldPath == "" || newPath == "" {
		s.logger.Error("Could not rename file", "kind", KindInvalidPath, "path", oldPath, "target", newPath)
		return false
	}
	if err := s.fs.Rename(oldPath, newPath); err != nil {
		s.logger.Warn("Could not rename file", "kind", Classify(err), "path", oldPath, "target", newPath, "error", err)
		return false
	}
	return true
}

// report logs a failure. Missing nodes are expected on many devices and are
// logged at warn; everything else is an error.
func (s *Store) report(op, path string, err error) {
	kind := Classify(err)
	level := slog.LevelError
	if kind == KindNotFound {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "Control node "+op+" failed", "kind", kind.String(), "path", path, "error", err)
}

// FormatScalar renders value as control node text. Floats are rounded half
// up to the nearest integer, so 2.5 becomes "3" and -2.5 becomes "-2".
func FormatScalar(value any) (string, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case string:
		return v, nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func formatFloat(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("cannot round %v to an integer", v)
	}
	// v-r is exact below 2^53; above that every float is already integral.
	r := math.Floor(v)
	if v-r >= 0.5 {
		r++
	}
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return "", fmt.Errorf("%v is out of integer range", v)
	}
	return strconv.FormatInt(int64(r), 10), nil
}
