package filestore

import (
	"errors"
	"io/fs"
)

// ErrInvalidPath is reported for empty node paths.
var ErrInvalidPath = errors.New("invalid path")

// ErrorKind classifies failures for diagnostics.
type ErrorKind int

const (
	KindIOFailure ErrorKind = iota
	KindNotFound
	KindPermissionDenied
	KindInvalidPath
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindInvalidPath:
		return "InvalidPath"
	default:
		return "IOFailure"
	}
}

// Classify maps an error returned by the filesystem onto an ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidPath):
		return KindInvalidPath
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return KindIOFailure
	}
}
