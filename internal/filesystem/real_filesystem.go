package filesystem

import (
	"io"
	"io/fs"
	"os"
)

// RealFileSystem implements the FileSystem interface using the standard os package.
type RealFileSystem struct{}

// NewRealFileSystem creates a new instance of RealFileSystem.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Open opens the named file read-only using os.Open.
func (rfs *RealFileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// OpenWriter opens an existing file write-only with O_TRUNC.
func (rfs *RealFileSystem) OpenWriter(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
}

// Stat returns a FileInfo using os.Stat.
func (rfs *RealFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// Access probes permissions using access(2) where available.
func (rfs *RealFileSystem) Access(name string, mode AccessMode) error {
	return access(name, mode)
}

// ReadFile reads the named file using os.ReadFile.
func (rfs *RealFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile writes data to the named file using os.WriteFile.
func (rfs *RealFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// MkdirAll creates a directory using os.MkdirAll.
func (rfs *RealFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes the named file or directory using os.Remove.
func (rfs *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// Rename renames (moves) a file using os.Rename.
func (rfs *RealFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
