package inkwell

import (
	"errors"
	"fmt"
)

// Common errors returned by the inkwell client.
var (
	// ErrNotFound is returned when a mutation targets a note that does not
	// exist locally. Callers treat it as a logged no-op, not a fatal
	// condition.
	ErrNotFound = errors.New("note not found")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrOffline is returned when a network operation is attempted and no
	// remote is configured.
	ErrOffline = errors.New("operation unavailable in offline mode")

	// ErrSyncFailed is returned after the retry budget is exhausted.
	// The engine stays usable; the caller must trigger sync again manually.
	ErrSyncFailed = errors.New("sync failed after repeated attempts")

	// ErrEngineClosed is returned when triggering a closed engine.
	ErrEngineClosed = errors.New("sync engine is closed")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// SyncError is returned when a remote operation fails at the transport
// level (unreachable host, non-2xx response). Extractable via errors.As().
// Supports Unwrap().
type SyncError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync: %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// DecodeError is returned when the remote answered but the payload could
// not be decoded. The engine retries it exactly like a transport failure,
// since a partially-applied batch is not distinguishable from none.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sync: %s returned malformed payload: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
