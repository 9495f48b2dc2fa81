// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidListing is returned when a listing document cannot be decoded.
var ErrInvalidListing = errors.New("invalid remote listing")

// StatusError is returned when the remote answers with an unexpected status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status: %d", e.Method, e.URL, e.StatusCode)
}

// NetworkError is returned when a request could not be completed.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a network or server-side failure
// worth retrying. Integrity errors and client errors are not transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var sErr *StatusError
	if errors.As(err, &sErr) {
		switch {
		case sErr.StatusCode >= 500:
			return true
		case sErr.StatusCode == http.StatusTooManyRequests,
			sErr.StatusCode == http.StatusRequestTimeout:
			return true
		default:
			return false
		}
	}

	var nErr *NetworkError
	return errors.As(err, &nErr)
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var sErr *StatusError
	return errors.As(err, &sErr) && sErr.StatusCode == http.StatusNotFound
}
