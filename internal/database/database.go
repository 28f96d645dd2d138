package database

import "errors"

var (
	// ErrConnectivity means the pre-flight probe failed; no mutating step is
	// ever attempted against an unreachable target.
	ErrConnectivity = errors.New("connectivity probe failed")
	// ErrToolExecution means a spawned client tool exited non-zero.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrTimeout means a supervised operation exceeded its wall-clock ceiling
	// and the child was forcibly terminated.
	ErrTimeout = errors.New("operation timed out")
)
