package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrForbidden is returned when the actor's role lacks the capability.
	ErrForbidden = errors.New("board: not permitted for this role")
	// ErrInvalid wraps form validation failures.
	ErrInvalid = errors.New("board: invalid task")
)

// MutationMessage is shown next to the form when a save fails.
const MutationMessage = "Failed to save. Please try again."

// FetchMessage is shown in place of the dashboard when loading fails.
const FetchMessage = "Could not load the schedule."

// DataFetchError means the task list could not be loaded. No tasks are
// shown while it is set.
type DataFetchError struct {
	Err error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("board: load tasks: %v", e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// MutationError means an insert, update or delete failed in the store. The
// collection is left as it was.
type MutationError struct {
	Op  string
	ID  uint
	Err error
}

func (e *MutationError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("board: %s task %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("board: %s task: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// invalid wraps a user-facing validation message in ErrInvalid.
func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// ValidationMessage extracts the user-facing part of an ErrInvalid error.
func ValidationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrInvalid.Error()+": ")
}
