// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package naming allocates collision-free descriptor attribute names
// for artifact files. An Allocator is owned by one node and discarded
// afterwards, so names are only unique within a node descriptor.
package naming

import (
	"fmt"
	"strings"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

const (
	// Separator replaces the characters of base names that nix
	// identifiers cannot hold.
	Separator = "-"

	// FirstSuffix is the first numeric suffix tried on collision.
	FirstSuffix = 2

	// MaxAttempts bounds the number of candidates tried per base name.
	MaxAttempts = 9998
)

// Base returns the identifier of a file path before disambiguation.
// Every character outside [A-Za-z0-9_'-] becomes Separator.
func Base(path string) string {
	return strings.Map(func(r rune) rune {
		if IsIdentifierRune(r) {
			return r
		}
		return rune(Separator[0])
	}, path)
}

// IsIdentifierRune reports whether r may appear in a nix identifier.
func IsIdentifierRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return r == '_' || r == '\'' || r == '-'
	}
}

// Allocator is a reservation set of identifiers.
type Allocator struct {
	used map[string]struct{}
}

// NewAllocator returns an allocator with the given names reserved.
func NewAllocator(reserved ...string) *Allocator {
	a := &Allocator{used: make(map[string]struct{}, len(reserved))}
	for _, r := range reserved {
		a.used[r] = struct{}{}
	}
	return a
}

// Allocate returns the base identifier of path, or the first free
// "<base>-N" with N starting at 2. It fails with a
// *conan.NameCollisionError after MaxAttempts candidates.
func (a *Allocator) Allocate(path string) (string, error) {
	base := Base(path)
	candidate := base
	for i := 0; i < MaxAttempts; i++ {
		if _, taken := a.used[candidate]; !taken {
			a.used[candidate] = struct{}{}
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%s%d", base, Separator, FirstSuffix+i)
	}
	return "", &conan.NameCollisionError{Base: base, Attempts: MaxAttempts}
}
