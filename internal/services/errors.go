package services

import "errors"

// Validation failures surfaced to clients. Everything else coming out of a
// service is an infrastructure error and maps to a 500.
var (
	ErrNotFound       = errors.New("record not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidFolder  = errors.New("folder not found or not owned by user")
	ErrInvalidParent  = errors.New("parent folder not found or not owned by user")
	ErrDuplicateName  = errors.New("a sibling with this name already exists")
	ErrFolderNotEmpty = errors.New("folder is not empty")
	ErrCyclicMove     = errors.New("move would make a folder an ancestor of itself")
	ErrTargetNotFound = errors.New("target user not found")
	ErrSelfShare      = errors.New("cannot share a file with its owner")
	ErrInvalidName    = errors.New("name must not be empty")
)
