package domain

import "fmt"

// AuthError is returned when no usable API credential is configured.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication: " + e.Reason
}

// FetchError is returned when a remote call fails, either with a non-success
// status or with an error list in the response payload.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DocumentError is returned when a target document cannot be read, parsed or written.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
