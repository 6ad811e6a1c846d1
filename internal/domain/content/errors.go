package content

import "errors"

var (
	ErrNotFound         = errors.New("content not found")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrInvalidLanguage  = errors.New("invalid language")
	ErrInvalidContent   = errors.New("invalid content")
)

// ValidationError is returned before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
