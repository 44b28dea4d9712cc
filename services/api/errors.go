package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for resource resolution. A genuinely absent id maps to
// ErrNotFound (404); an id that exists but belongs to another user maps to
// ErrForbidden (403). The two are never collapsed.
var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("you do not own this resource")
)

// AuthError reports a missing, malformed, or expired credential.
type AuthError struct {
	Reason  string
	Expired bool
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Expired {
		return "credential expired"
	}
	return "invalid credential"
}

// ValidationError carries a field to message map surfaced in 400 responses.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StoreError wraps a persistence failure so the boundary maps it to 500.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return "store failure: " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Err: err}
}
