package authz

import (
	"errors"
	"fmt"
)

// NotFoundError indicates an entity id was absent on get/update/delete.
type NotFoundError struct {
	Kind string // "group" or "role"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// CycleError indicates a membership edge would create a nesting cycle.
type CycleError struct {
	GroupID  string // the group the edge was being added to
	MemberID string // the candidate nested group
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("adding group %s as a member of group %s would create a nesting cycle", e.MemberID, e.GroupID)
}

// IsCycle reports whether err is (or wraps) a CycleError.
func IsCycle(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// ConflictError indicates a mutation lost the optimistic-versioning race more
// times than the store's retry bound allows.
type ConflictError struct {
	Kind     string
	ID       string
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of %s %s persisted after %d attempts", e.Kind, e.ID, e.Attempts)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ValidationError indicates malformed input, such as a missing required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidSnapshotError indicates a snapshot failed referential or structural
// validation on import. The store is left unchanged.
type InvalidSnapshotError struct {
	Reason string
}

func (e *InvalidSnapshotError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s", e.Reason)
}

// IsInvalidSnapshot reports whether err is (or wraps) an InvalidSnapshotError.
func IsInvalidSnapshot(err error) bool {
	var se *InvalidSnapshotError
	return errors.As(err, &se)
}
