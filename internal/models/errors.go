// ABOUTME: Sentinel error kinds shared by storage, the risk monitor, and the engine.
// ABOUTME: Callers wrap with fmt.Errorf("...: %w") and test with errors.Is.
package models

import "errors"

var (
	// ErrNotFound means a habit, user, or alert reference did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput covers malformed dates, unknown mood labels, and unknown alert kinds.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflictingAlert is returned by a store when an unresolved alert of the same
	// kind already exists for the user. The risk monitor treats it as a no-op.
	ErrConflictingAlert = errors.New("conflicting unresolved alert")

	// ErrStoreUnavailable marks transient persistence failures that are safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
