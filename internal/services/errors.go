// Package services defines the business logic for donations, donors and the
// dashboard. This file centralizes service-level error values and types so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is the sentinel every *ValidationError matches with
	// errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateReceipt is returned when a receipt number is already used
	// by another donation, whether caught by the pre-check or by the store's
	// unique index.
	ErrDuplicateReceipt = errors.New("receipt number already exists")

	// ErrDonationNotFound indicates that the requested donation does not exist.
	ErrDonationNotFound = errors.New("donation not found")

	// ErrDonorNotFound indicates that no donation carries the requested phone.
	ErrDonorNotFound = errors.New("donor not found")
)

// ValidationError carries per-field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransientStoreError is returned once bounded retries against the store are
// exhausted (or the request context ends mid-retry).
type TransientStoreError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }
