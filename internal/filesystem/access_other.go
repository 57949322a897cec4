//go:build !unix

package filesystem

import (
	"io/fs"
	"os"
)

// access falls back to the owner permission bits where access(2) is unavailable.
func access(name string, mode AccessMode) error {
	info, err := os.Stat(name)
	if err != nil {
		return err
	}
	bit := fs.FileMode(0o400)
	if mode == AccessWrite {
		bit = 0o200
	}
	if info.Mode().Perm()&bit == 0 {
		return &fs.PathError{Op: "access", Path: name, Err: fs.ErrPermission}
	}
	return nil
}
