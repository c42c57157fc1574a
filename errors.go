package graft

import (
	"errors"
	"fmt"
)

// Standard sentinel errors.
var (
	// ErrMalformedRow is matched by every MalformedRowError.
	ErrMalformedRow = errors.New("graft: malformed row")

	// ErrIntegrityViolation is matched by every IntegrityViolationError.
	ErrIntegrityViolation = errors.New("graft: integrity violation")

	// ErrDuplicateIdentity is matched by every DuplicateIdentityConflict.
	ErrDuplicateIdentity = errors.New("graft: duplicate identity")

	// ErrInvalidKeySpec is returned when a KeySpec cannot drive a hydration.
	ErrInvalidKeySpec = errors.New("graft: invalid key spec")
)

// MalformedRowError is returned when a row could not have been produced by a
// parent-driven outer join, e.g. its parent columns are all null. It aborts
// the hydration.
type MalformedRowError struct {
	Row    int    // Zero-based position of the row in the stream
	Reason string // What is wrong with the row
}

// Error returns the error string.
func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("graft: malformed row %d: %s", e.Row, e.Reason)
}

// Is reports whether the target error matches MalformedRowError.
func (e *MalformedRowError) Is(err error) bool {
	return err == ErrMalformedRow
}

// NewMalformedRowError returns a new MalformedRowError.
func NewMalformedRowError(row int, reason string) *MalformedRowError {
	return &MalformedRowError{Row: row, Reason: reason}
}

// IsMalformedRow returns true if the error is a MalformedRowError.
func IsMalformedRow(err error) bool {
	if err == nil {
		return false
	}
	var e *MalformedRowError
	return errors.As(err, &e) || errors.Is(err, ErrMalformedRow)
}

// IntegrityViolationError is returned when a junction row does not reference
// exactly one parent and one child. It aborts the hydration.
type IntegrityViolationError struct {
	Row    int    // Zero-based position of the row in the stream
	Column string // Offending column, if any
	Reason string
}

// Error returns the error string.
func (e *IntegrityViolationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("graft: integrity violation at row %d (column %q): %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("graft: integrity violation at row %d: %s", e.Row, e.Reason)
}

// Is reports whether the target error matches IntegrityViolationError.
func (e *IntegrityViolationError) Is(err error) bool {
	return err == ErrIntegrityViolation
}

// NewIntegrityViolationError returns a new IntegrityViolationError.
func NewIntegrityViolationError(row int, column, reason string) *IntegrityViolationError {
	return &IntegrityViolationError{Row: row, Column: column, Reason: reason}
}

// IsIntegrityViolation returns true if the error is an IntegrityViolationError.
func IsIntegrityViolation(err error) bool {
	if err == nil {
		return false
	}
	var e *IntegrityViolationError
	return errors.As(err, &e) || errors.Is(err, ErrIntegrityViolation)
}

// DuplicateIdentityConflict describes an entity seen again under the same
// identity but with a different value in one of its columns. It is a
// warning: the first-seen version is kept and the conflicting row discarded.
type DuplicateIdentityConflict struct {
	Row         int    // Zero-based position of the conflicting row
	Entity      string // "parent", "junction" or "child"
	Identity    any    // Identity shared by both versions
	Column      string // First differing column
	First       any    // Value kept
	Conflicting any    // Value discarded
}

// Error returns the error string.
func (e *DuplicateIdentityConflict) Error() string {
	return fmt.Sprintf("graft: %s %v seen again at row %d with %s=%v (kept %v)",
		e.Entity, e.Identity, e.Row, e.Column, e.Conflicting, e.First)
}

// Is reports whether the target error matches DuplicateIdentityConflict.
func (e *DuplicateIdentityConflict) Is(err error) bool {
	return err == ErrDuplicateIdentity
}

// ConstraintError represents a database constraint violation raised while
// writing records.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("graft: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}
