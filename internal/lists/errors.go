package lists

import "errors"

var (
	ErrInvalidID     = errors.New("a positive list id is required")
	ErrInvalidStatus = errors.New("status must be draft, published or archived")
	ErrNotFound      = errors.New("list not found")
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Field + ": " + e.Reason
	}
	if e.Err != nil {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": invalid"
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func invalidID() error {
	return &ValidationError{Field: "id", Err: ErrInvalidID}
}

func invalidStatus() error {
	return &ValidationError{Field: "status", Err: ErrInvalidStatus}
}
