// Package filestore reads and writes single scalar values on kernel control
// nodes (sysfs-style files).
//
// Every operation is total: a missing node, a permission problem or an I/O
// failure is logged with its kind and path and turned into false, a missing
// line or the caller's default. Nothing is cached; existence and permissions
// are probed at the moment of each call because device state can change
// between calls.
package filestore
