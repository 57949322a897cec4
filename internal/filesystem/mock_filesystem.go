package filesystem

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// MockFileSystem is an in-memory FileSystem for tests. Files carry permission
// bits that drive Access, Open and OpenWriter the way a non-root process sees
// them, and errors can be injected per path and operation.
type MockFileSystem struct {
	mu               sync.RWMutex
	files            map[string][]byte
	fileInfos        map[string]*mockFileInfo
	openErrorPaths   map[string]error // paths that should error on Open/ReadFile
	statErrorPaths   map[string]error // paths that should error on Stat/Access
	writeErrorPaths  map[string]error // paths that should error on Write
	closeErrorPaths  map[string]error // paths whose writer should error on Close
	renameErrorPaths map[string]error // keyed by oldpath
	removeErrorPaths map[string]error

	writeCalls  map[string]int
	removeCalls map[string]int
	renameCalls map[string]int
}

// NewMockFileSystem creates a new instance of MockFileSystem, ready for use.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:            make(map[string][]byte),
		fileInfos:        make(map[string]*mockFileInfo),
		openErrorPaths:   make(map[string]error),
		statErrorPaths:   make(map[string]error),
		writeErrorPaths:  make(map[string]error),
		closeErrorPaths:  make(map[string]error),
		renameErrorPaths: make(map[string]error),
		removeErrorPaths: make(map[string]error),
		writeCalls:       make(map[string]int),
		removeCalls:      make(map[string]int),
		renameCalls:      make(map[string]int),
	}
}

type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (mfi *mockFileInfo) Name() string       { return mfi.name }
func (mfi *mockFileInfo) Size() int64        { return mfi.size }
func (mfi *mockFileInfo) Mode() os.FileMode  { return mfi.mode }
func (mfi *mockFileInfo) ModTime() time.Time { return mfi.modTime }
func (mfi *mockFileInfo) IsDir() bool        { return mfi.isDir }
func (mfi *mockFileInfo) Sys() interface{}   { return nil }

func key(path string) string {
	return filepath.Clean(path)
}

func pathErr(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// --- Helper methods for setting up the mock state ---

// AddFile adds a regular file with the given content and permission bits.
func (mfs *MockFileSystem) AddFile(path string, content []byte, perm fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	k := key(path)
	mfs.files[k] = append([]byte(nil), content...)
	mfs.fileInfos[k] = &mockFileInfo{
		name:    filepath.Base(k),
		size:    int64(len(content)),
		mode:    perm.Perm(),
		modTime: time.Now(),
	}
}

// AddDir adds a directory entry.
func (mfs *MockFileSystem) AddDir(path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	k := key(path)
	mfs.fileInfos[k] = &mockFileInfo{
		name:    filepath.Base(k),
		mode:    0o755 | os.ModeDir,
		modTime: time.Now(),
		isDir:   true,
	}
}

// Content returns the current content of a file and whether it exists.
func (mfs *MockFileSystem) Content(path string) (string, bool) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	data, ok := mfs.files[key(path)]
	return string(data), ok
}

// --- Helper methods for simulating errors ---

func (mfs *MockFileSystem) SimulateOpenError(path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.openErrorPaths[key(path)] = err
}

func (mfs *MockFileSystem) SimulateStatError(path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.statErrorPaths[key(path)] = err
}

func (mfs *MockFileSystem) SimulateWriteError(path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.writeErrorPaths[key(path)] = err
}

func (mfs *MockFileSystem) SimulateCloseError(path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.closeErrorPaths[key(path)] = err
}

func (mfs *MockFileSystem) SimulateRenameError(path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.renameErrorPaths[key(path)] = err
}

func (mfs *MockFileSystem) SimulateRemoveError(path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.removeErrorPaths[key(path)] = err
}

// --- Assert helpers ---

func (mfs *MockFileSystem) AssertWriteCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Greater(t, mfs.writeCalls[key(path)], 0, "write was not attempted for %s", path)
}

func (mfs *MockFileSystem) AssertWriteNotCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Equal(t, 0, mfs.writeCalls[key(path)], "write should not have been attempted for %s", path)
}

func (mfs *MockFileSystem) AssertRemoveCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Greater(t, mfs.removeCalls[key(path)], 0, "Remove was not called for %s", path)
}

func (mfs *MockFileSystem) AssertRenameCalled(t *testing.T, oldpath string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Greater(t, mfs.renameCalls[key(oldpath)], 0, "Rename was not called for %s", oldpath)
}

// --- Implement FileSystem interface methods ---

// Open returns a reader over a snapshot of the file content.
func (mfs *MockFileSystem) Open(name string) (io.ReadCloser, error) {
	data, err := mfs.readable("open", name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ReadFile returns a copy of the file content.
func (mfs *MockFileSystem) ReadFile(name string) ([]byte, error) {
	return mfs.readable("read", name)
}

func (mfs *MockFileSystem) readable(op, name string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	k := key(name)
	if err, ok := mfs.openErrorPaths[k]; ok {
		return nil, err
	}
	info, exists := mfs.fileInfos[k]
	if !exists {
		return nil, pathErr(op, name, fs.ErrNotExist)
	}
	if info.isDir {
		return nil, pathErr(op, name, errors.New("is a directory"))
	}
	if info.mode&0o400 == 0 {
		return nil, pathErr(op, name, fs.ErrPermission)
	}
	return append([]byte(nil), mfs.files[k]...), nil
}

// OpenWriter truncates an existing writable file and returns a writer that
// commits on every Write.
func (mfs *MockFileSystem) OpenWriter(name string) (io.WriteCloser, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	k := key(name)
	mfs.writeCalls[k]++
	if err, ok := mfs.openErrorPaths[k]; ok {
		return nil, err
	}
	info, exists := mfs.fileInfos[k]
	if !exists {
		return nil, pathErr("open", name, fs.ErrNotExist)
	}
	if info.isDir {
		return nil, pathErr("open", name, errors.New("is a directory"))
	}
	if info.mode&0o200 == 0 {
		return nil, pathErr("open", name, fs.ErrPermission)
	}
	mfs.files[k] = nil
	info.size = 0
	info.modTime = time.Now()
	return &mockWriter{mfs: mfs, key: k, name: name}, nil
}

type mockWriter struct {
	mfs  *MockFileSystem
	key  string
	name string
}

func (w *mockWriter) Write(p []byte) (int, error) {
	w.mfs.mu.Lock()
	defer w.mfs.mu.Unlock()
	if err, ok := w.mfs.writeErrorPaths[w.key]; ok {
		return 0, pathErr("write", w.name, err)
	}
	w.mfs.files[w.key] = append(w.mfs.files[w.key], p...)
	if info, ok := w.mfs.fileInfos[w.key]; ok {
		info.size = int64(len(w.mfs.files[w.key]))
	}
	return len(p), nil
}

func (w *mockWriter) Close() error {
	w.mfs.mu.RLock()
	defer w.mfs.mu.RUnlock()
	if err, ok := w.mfs.closeErrorPaths[w.key]; ok {
		return pathErr("close", w.name, err)
	}
	return nil
}

// Stat returns the stored FileInfo.
func (mfs *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	k := key(name)
	if err, ok := mfs.statErrorPaths[k]; ok {
		return nil, err
	}
	info, exists := mfs.fileInfos[k]
	if !exists {
		return nil, pathErr("stat", name, fs.ErrNotExist)
	}
	return info, nil
}

// Access checks the owner permission bits of the stored entry.
func (mfs *MockFileSystem) Access(name string, mode AccessMode) error {
	info, err := mfs.Stat(name)
	if err != nil {
		return err
	}
	bit := fs.FileMode(0o400)
	if mode == AccessWrite {
		bit = 0o200
	}
	if info.Mode().Perm()&bit == 0 {
		return pathErr("access", name, fs.ErrPermission)
	}
	return nil
}

// WriteFile creates or replaces a file, mirroring os.WriteFile.
func (mfs *MockFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	k := key(name)
	mfs.writeCalls[k]++
	if err, ok := mfs.writeErrorPaths[k]; ok {
		return pathErr("write", name, err)
	}
	if info, exists := mfs.fileInfos[k]; exists {
		if info.isDir {
			return pathErr("open", name, errors.New("is a directory"))
		}
		if info.mode&0o200 == 0 {
			return pathErr("open", name, fs.ErrPermission)
		}
		perm = info.mode
	}
	if _, dirExists := mfs.fileInfos[filepath.Dir(k)]; !dirExists && filepath.Dir(k) != k {
		return pathErr("open", name, fs.ErrNotExist)
	}
	mfs.files[k] = append([]byte(nil), data...)
	mfs.fileInfos[k] = &mockFileInfo{
		name:    filepath.Base(k),
		size:    int64(len(data)),
		mode:    perm.Perm(),
		modTime: time.Now(),
	}
	return nil
}

// MkdirAll adds directory entries for path and every missing parent.
func (mfs *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	for current := key(path); ; current = filepath.Dir(current) {
		if info, exists := mfs.fileInfos[current]; exists {
			if !info.isDir {
				return pathErr("mkdir", current, errors.New("not a directory"))
			}
		} else {
			mfs.fileInfos[current] = &mockFileInfo{
				name:    filepath.Base(current),
				mode:    perm.Perm() | os.ModeDir,
				modTime: time.Now(),
				isDir:   true,
			}
		}
		if parent := filepath.Dir(current); parent == current {
			return nil
		}
	}
}

// Remove deletes a file or an empty directory.
func (mfs *MockFileSystem) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	k := key(name)
	mfs.removeCalls[k]++
	if err, ok := mfs.removeErrorPaths[k]; ok {
		return err
	}
	info, exists := mfs.fileInfos[k]
	if !exists {
		return pathErr("remove", name, fs.ErrNotExist)
	}
	if info.isDir {
		for p := range mfs.fileInfos {
			if p != k && filepath.Dir(p) == k {
				return pathErr("remove", name, errors.New("directory not empty"))
			}
		}
	}
	delete(mfs.files, k)
	delete(mfs.fileInfos, k)
	return nil
}

// Rename moves a file, replacing any existing file at newpath.
func (mfs *MockFileSystem) Rename(oldpath, newpath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	oldKey, newKey := key(oldpath), key(newpath)
	mfs.renameCalls[oldKey]++
	if err, ok := mfs.renameErrorPaths[oldKey]; ok {
		return err
	}
	info, exists := mfs.fileInfos[oldKey]
	if !exists {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	if _, dirExists := mfs.fileInfos[filepath.Dir(newKey)]; !dirExists && filepath.Dir(newKey) != newKey {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	info.name = filepath.Base(newKey)
	mfs.fileInfos[newKey] = info
	if data, ok := mfs.files[oldKey]; ok {
		mfs.files[newKey] = data
	}
	delete(mfs.fileInfos, oldKey)
	delete(mfs.files, oldKey)
	return nil
}
