package store

import "errors"

// Validation errors. They are returned before any state change or remote
// write.
var (
	ErrEmptyName       = errors.New("name must not be empty")
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubTaskNotFound = errors.New("subtask not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrSubTaskConflict = errors.New("subtask belongs to another task")
	ErrNotOwner        = errors.New("workspace belongs to another user")
)

// errCreationFailed is returned by idTable.await when the record a dependent
// write targets never reached the server.
var errCreationFailed = errors.New("creation did not complete")
