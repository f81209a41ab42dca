package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNoAvailability     = errors.New("no room available for the requested dates")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")

	// ErrUnchanged is returned by a KV update function to end the update
	// without writing. Update itself then returns nil.
	ErrUnchanged = errors.New("kv: unchanged")
)

// Validation reasons.
const (
	ReasonMissingFields = "missing fields"
	ReasonDateRange     = "invalid date range"
	ReasonEmail         = "invalid email"
	ReasonUnknownHotel  = "unknown hotel"
	ReasonCreatedAt     = "invalid createdAt"
	ReasonPassword      = "password too short"
)

// ValidationError is a user-correctable input problem.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

func NewValidationError(reason string) error { return &ValidationError{Reason: reason} }

// StorageError wraps a persistence read or write failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
