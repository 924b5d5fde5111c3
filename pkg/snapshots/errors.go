package snapshots

import (
	"errors"
	"fmt"
)

// Errors reported by snapshot storage clients.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrConflictNotFound = errors.New("conflict not found")
	ErrDataTooLarge     = errors.New("snapshot data too large")
	// ErrConflictPending rejects a stale commit while an earlier stale
	// commit is still unresolved. Reopen the snapshot and resolve first.
	ErrConflictPending = errors.New("snapshot has a pending conflict")
	// ErrSnapshotChanged is returned when the snapshot was written between
	// opening a conflict and resolving it. Reopen and resolve again.
	ErrSnapshotChanged = errors.New("snapshot changed while resolving")
)

// IsRetryable reports whether err means the snapshot moved on underneath
// the caller, so reopening and merging again can succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflictPending) || errors.Is(err, ErrSnapshotChanged)
}

// AlreadyOpenError is returned when opening a snapshot that is open or opening.
type AlreadyOpenError struct {
	Filename string
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("%s is already open", e.Filename)
}

// AlreadyClosingError is returned when a snapshot is still closing.
type AlreadyClosingError struct {
	Filename string
}

func (e *AlreadyClosingError) Error() string {
	return fmt.Sprintf("%s is currently closing", e.Filename)
}

// NotOpenError is returned when committing or discarding a snapshot that
// is not open.
type NotOpenError struct {
	Filename string
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("%s is not open", e.Filename)
}

// StillOpenError is returned when deleting a snapshot that is open.
type StillOpenError struct {
	Filename string
}

func (e *StillOpenError) Error() string {
	return fmt.Sprintf("%s is still open", e.Filename)
}

// ConflictIdentifierUnsupportedError is returned when resolving a conflict
// without the snapshot's unique name.
type ConflictIdentifierUnsupportedError struct {
	ConflictID string
}

func (e *ConflictIdentifierUnsupportedError) Error() string {
	return fmt.Sprintf("resolving conflict %s by id is not supported", e.ConflictID)
}

func IsAlreadyOpen(err error) bool {
	var target *AlreadyOpenError
	return errors.As(err, &target)
}

func IsAlreadyClosing(err error) bool {
	var target *AlreadyClosingError
	return errors.As(err, &target)
}

func IsNotOpen(err error) bool {
	var target *NotOpenError
	return errors.As(err, &target)
}

func IsStillOpen(err error) bool {
	var target *StillOpenError
	return errors.As(err, &target)
}

func IsConflictIdentifierUnsupported(err error) bool {
	var target *ConflictIdentifierUnsupportedError
	return errors.As(err, &target)
}
