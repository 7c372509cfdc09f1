// Package repository defines the data access layer and the sentinel
// errors shared across repositories.  Sentinels let handlers map
// failure scenarios onto HTTP statuses without string matching.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into a 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as filing a second refund request while one
// is still pending.  Handlers translate this into a 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email address is
// already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrInsufficientStock is returned by the inventory reserve when the
// requested quantity exceeds what is available.  The conditional UPDATE
// guarantees no partial write happened.
var ErrInsufficientStock = errors.New("insufficient inventory")

// ErrAlreadyProcessed is returned when a refund request has already
// reached a terminal state; processing is idempotent-reject.
var ErrAlreadyProcessed = errors.New("refund request not found or already processed")
