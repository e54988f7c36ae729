package ingestion

import "fmt"

// Error indicates an unreadable or corrupt source file. It is fatal for the
// upload and never retried; oracle and storage failures carry their own
// types.
type Error struct {
	Filename string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingestion: %v: %v", e.Filename, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
