package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for authorization and invariant failures. All of them are
// terminal for the calling operation; none are retried.
var (
	// ErrUnauthorized means the caller holds no membership for the target
	// workspace, or an insufficient role. Absence of a member record is
	// always unauthorized, never public access.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means a referenced workspace, project, member or task
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLastMember rejects removing the only remaining member of a
	// workspace.
	ErrLastMember = errors.New("cannot remove the last member of a workspace")

	// ErrLastAdmin rejects demoting or removing the only admin of a
	// workspace.
	ErrLastAdmin = errors.New("cannot downgrade the only admin of a workspace")

	// ErrAlreadyMember rejects joining a workspace twice.
	ErrAlreadyMember = errors.New("already a member of this workspace")

	// ErrInvalidInviteCode rejects a join attempt whose supplied code does
	// not exactly match the workspace's current invite code.
	ErrInvalidInviteCode = errors.New("invalid invite code")

	// ErrCrossWorkspace rejects a bulk reorder whose tasks span more than
	// one workspace.
	ErrCrossWorkspace = errors.New("tasks must belong to a single workspace")

	// ErrConflict indicates the storage layer rejected a write because a
	// newer version of the entity is already persisted.
	ErrConflict = errors.New("concurrency conflict")
)

// ValidationError describes malformed input, such as an unknown status or an
// out-of-range position.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
