package services

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/stacks/internal/shared"
)

// StatusError is a response the backend answered with a failure.
type StatusError struct {
	Code    int
	Message string
	Method  string
	Path    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

func (e *StatusError) Unwrap() []error {
	errs := []error{shared.ErrServer}
	switch e.Code {
	case http.StatusUnauthorized:
		errs = append(errs, shared.ErrNotAuthenticated)
	case http.StatusNotFound:
		errs = append(errs, shared.ErrItemNotFound)
	case http.StatusServiceUnavailable:
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}
