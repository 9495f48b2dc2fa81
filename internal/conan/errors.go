// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package conan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidReference is returned when a reference does not match
// name/version[@user/channel].
var ErrInvalidReference = errors.New("invalid reference")

// ErrMissingLockData is returned when a graph node has no lockfile counterpart.
var ErrMissingLockData = errors.New("no lock data found")

// ErrUnsupportedNestedListing is returned when a remote listing contains
// nested entries.
var ErrUnsupportedNestedListing = errors.New("nested remote listing is not supported")

// ErrPackageMissing is returned when package artifacts are requested for
// a node without a prebuilt binary.
var ErrPackageMissing = errors.New("no prebuilt package available, building from source is not supported")

// ErrSizeMismatch is returned when a downloaded file has an unexpected size.
var ErrSizeMismatch = errors.New("size mismatch")

// ErrChecksumMismatch is returned when no declared checksum matches a file.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrNameCollisionExhausted is returned when no free identifier is left.
var ErrNameCollisionExhausted = errors.New("name collision attempts exhausted")

// MissingLockDataError reports a graph node without lockfile counterpart.
type MissingLockDataError struct {
	FullRef string
	Index   int
}

func (e *MissingLockDataError) Error() string {
	return fmt.Sprintf("%s for graph node %d with full reference %s", ErrMissingLockData, e.Index, e.FullRef)
}

func (e *MissingLockDataError) Unwrap() error { return ErrMissingLockData }

// NestedListingError reports a listing entry that has nested contents.
type NestedListingError struct {
	Ref   Reference
	Scope Scope
	File  string
	URL   string
}

func (e *NestedListingError) Error() string {
	return fmt.Sprintf("%s %s: %s: entry %q in %s", e.Ref, e.Scope, ErrUnsupportedNestedListing, e.File, e.URL)
}

func (e *NestedListingError) Unwrap() error { return ErrUnsupportedNestedListing }

// SizeMismatchError reports a downloaded file whose size differs from
// the remote-declared content length.
type SizeMismatchError struct {
	Ref      Reference
	Scope    Scope
	File     string
	Expected int64
	Actual   int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s %s: %s: %s: expected %d bytes, got %d",
		e.Ref, e.Scope, e.File, ErrSizeMismatch, e.Expected, e.Actual)
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }

// ChecksumMismatch is one declared checksum that disagreed with the local bytes.
type ChecksumMismatch struct {
	Source    string
	Algorithm Algorithm
	Expected  string
	Actual    string
}

// ChecksumMismatchError reports a file for which none of the available
// checksum sources matched. An empty Mismatches list means the remote
// declared no checksum at all.
type ChecksumMismatchError struct {
	Ref        Reference
	Scope      Scope
	File       string
	Mismatches []ChecksumMismatch
}

func (e *ChecksumMismatchError) Error() string {
	if len(e.Mismatches) == 0 {
		return fmt.Sprintf("%s %s: %s: %s: remote declared no checksum", e.Ref, e.Scope, e.File, ErrChecksumMismatch)
	}
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, fmt.Sprintf("%s (%s) expected %s, got %s", m.Algorithm, m.Source, m.Expected, m.Actual))
	}
	return fmt.Sprintf("%s %s: %s: %s: %s", e.Ref, e.Scope, e.File, ErrChecksumMismatch, strings.Join(parts, "; "))
}

func (e *ChecksumMismatchError) Unwrap() error { return ErrChecksumMismatch }

// NameCollisionError reports an identifier base that ran out of suffixes.
type NameCollisionError struct {
	Base     string
	Attempts int
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%s: %q after %d attempts", ErrNameCollisionExhausted, e.Base, e.Attempts)
}

func (e *NameCollisionError) Unwrap() error { return ErrNameCollisionExhausted }

// IsIntegrityError reports whether err is a size or checksum failure.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrSizeMismatch) || errors.Is(err, ErrChecksumMismatch)
}
