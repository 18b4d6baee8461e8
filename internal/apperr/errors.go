// Package apperr defines the failure categories shared across the service.
// Handlers map them onto HTTP status codes with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound means the metadata provider reported no matching record.
	ErrNotFound = errors.New("movie not found")

	// ErrMissingParameter means the caller omitted a required input.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidIdentifier means an identifier cannot be used as a storage key.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// StorageError reports a poster store failure.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("poster store %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err is, or wraps, a StorageError.
func IsStorage(err error) bool {
	var e *StorageError
	return errors.As(err, &e)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateIdentifier rejects ids that are empty or could escape a storage directory.
func ValidateIdentifier(id string) error {
	if id == "" {
		return ErrMissingParameter
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}
