package domain

import "errors"

var (
	// ErrStorageUnavailable is returned when the history store cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrRecordNotFound is returned when no record matches the requested identifier
	ErrRecordNotFound = errors.New("record not found")
	// ErrPermissionDenied is returned when the store refuses the operation
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateID is returned when a record with the same identifier already exists
	ErrDuplicateID = errors.New("duplicate image id")
	// ErrInvalidImage is returned when a record fails validation
	ErrInvalidImage = errors.New("invalid image")
)
