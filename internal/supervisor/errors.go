package supervisor

import "errors"

var (
	// ErrUnknownApp is returned when an operation names an app the catalog
	// does not contain. Checked before any resource allocation.
	ErrUnknownApp = errors.New("unknown app")

	// ErrSpawnFailed is returned when the OS refuses to start a process.
	// Any port reserved for the attempt is released before returning.
	ErrSpawnFailed = errors.New("spawn failed")
)
