package mealresolver

import (
	"errors"
)

var (
	// ErrInvalidInput is returned for a missing or blank meal query.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration is returned when a required external credential is absent.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnexpected marks failures that transports must report without detail.
	ErrUnexpected = errors.New("unexpected failure")
)

// CredentialError names an unset credential variable. Its message is safe to show to callers.
type CredentialError struct {
	Name string
}

func (e *CredentialError) Error() string { return e.Name + " not set" }

func (e *CredentialError) Is(target error) bool { return target == ErrConfiguration }

// MissingCredential reports an unset credential variable as a configuration error.
func MissingCredential(name string) error {
	return &CredentialError{Name: name}
}

// PublicMessage is the text a transport may show a caller for err. Invalid
// input and missing credentials are described; anything else is "Server error".
func PublicMessage(err error) string {
	var ce *CredentialError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "Missing query"
	case errors.As(err, &ce):
		return ce.Error()
	default:
		return "Server error"
	}
}
