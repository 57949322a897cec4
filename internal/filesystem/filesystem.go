package filesystem

import (
	"io"
	"io/fs"
)

// AccessMode selects the permission probed by FileSystem.Access.
type AccessMode int

const (
	// AccessRead probes whether the caller may open the file for reading.
	AccessRead AccessMode = iota
	// AccessWrite probes whether the caller may open the file for writing.
	AccessWrite
)

// FileSystem defines the filesystem operations used against control nodes and
// the files backing the property registry. It decouples the stores from the os
// package so tests can run against MockFileSystem.
type FileSystem interface {
	// Open opens the named file for reading.
	Open(name string) (io.ReadCloser, error)

	// OpenWriter opens an existing file for writing and truncates it.
	// It never creates the file: control nodes are owned by the kernel.
	OpenWriter(name string) (io.WriteCloser, error)

	// Stat returns a FileInfo describing the named file.
	Stat(name string) (fs.FileInfo, error)

	// Access reports whether the calling process may read or write the file,
	// following access(2) semantics. A nil error means access is granted.
	Access(name string, mode AccessMode) error

	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// MkdirAll creates a directory named path along with any necessary parents.
	MkdirAll(path string, perm fs.FileMode) error

	// Remove removes the named file or (empty) directory.
	Remove(name string) error

	// Rename renames (moves) oldpath to newpath.
	// If newpath already exists and is not a directory, Rename replaces it.
	Rename(oldpath, newpath string) error
}
