package props

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/stackvity/devicesettings/internal/filesystem"
)

// FileRegistry persists properties as "key=value" lines in a single file.
// The file is loaded on first access and rewritten atomically on every Set.
type FileRegistry struct {
	path   string
	fs     filesystem.FileSystem
	data   map[string]string
	loaded bool
	mu     sync.Mutex
}

// NewFileRegistry creates a FileRegistry backed by path.
func NewFileRegistry(path string, fsys filesystem.FileSystem) *FileRegistry {
	return &FileRegistry{
		path: path,
		fs:   fsys,
		data: make(map[string]string),
	}
}

// Path returns the backing file path.
func (r *FileRegistry) Path() string {
	return r.path
}

// ensureLoaded must be called with r.mu held.
func (r *FileRegistry) ensureLoaded() error {
	if r.loaded {
		return nil
	}
	content, err := r.fs.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read property file: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		r.data[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to parse property file: %w", err)
	}
	r.loaded = true
	return nil
}

func (r *FileRegistry) Get(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(); err != nil {
		return "", false, err
	}
	v, ok := r.data[key]
	return v, ok, nil
}

// Set stores value and rewrites the file. The in-memory value is rolled back
// if the file cannot be saved.
func (r *FileRegistry) Set(key, value string) error {
	if strings.ContainsAny(key, "=\n") || strings.ContainsRune(value, '\n') {
		return fmt.Errorf("property %q cannot be stored in a line-based file", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(); err != nil {
		return err
	}
	prev, had := r.data[key]
	r.data[key] = value
	if err := r.save(); err != nil {
		if had {
			r.data[key] = prev
		} else {
			delete(r.data, key)
		}
		return err
	}
	return nil
}

// save writes to a temporary sibling and renames it over the property file.
func (r *FileRegistry) save() error {
	dir := filepath.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create property directory: %w", err)
	}

	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("# devicesettings persistent properties\n")
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, r.data[k])
	}

	tmpPath := r.path + ".tmp"
	if err := r.fs.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write temp property file: %w", err)
	}
	if err := r.fs.Rename(tmpPath, r.path); err != nil {
		_ = r.fs.Remove(tmpPath)
		return fmt.Errorf("failed to replace property file: %w", err)
	}
	return nil
}
