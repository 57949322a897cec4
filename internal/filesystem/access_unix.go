//go:build unix

package filesystem

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

func access(name string, mode AccessMode) error {
	bits := uint32(unix.R_OK)
	if mode == AccessWrite {
		bits = unix.W_OK
	}
	if err := unix.Access(name, bits); err != nil {
		return &fs.PathError{Op: "access", Path: name, Err: err}
	}
	return nil
}
