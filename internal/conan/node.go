// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package conan

import (
	"fmt"
	"strings"
)

// BinaryState tells whether a prebuilt package exists for a node.
type BinaryState string

const (
	// BinaryCached means the package is already in the local cache.
	BinaryCached BinaryState = "Cached"

	// BinaryDownloadable means the package can be fetched from the remote.
	BinaryDownloadable BinaryState = "Downloadable"

	// BinaryMissing means no prebuilt package exists.
	BinaryMissing BinaryState = "Missing"
)

// ParseBinaryState maps the binary field of a graph node to a BinaryState.
// "Build" and "Skip" carry no prebuilt package and are treated as missing.
func ParseBinaryState(s string) (BinaryState, error) {
	switch strings.ToLower(s) {
	case "cache", "cached":
		return BinaryCached, nil
	case "download", "downloadable", "update":
		return BinaryDownloadable, nil
	case "missing", "build", "skip":
		return BinaryMissing, nil
	default:
		return "", fmt.Errorf("unknown binary state %q", s)
	}
}

// Remote is the registry a node was resolved from.
type Remote struct {
	Name string
	URL  string
}

// LockEntry is the lockfile counterpart of a graph node.
type LockEntry struct {
	NodeID    string
	Ref       string
	PackageID string
	Revision  string
}

// Node is one reconciled dependency.
type Node struct {
	Ref             Reference
	RecipeRevision  string
	PackageID       string
	PackageRevision string
	Binary          BinaryState
	Remote          Remote

	License     []string
	Homepage    string
	URL         string
	Description string

	Lock LockEntry
}

// FullRef returns reference#revision for the node's recipe.
func (n *Node) FullRef() string {
	return n.Ref.FullRef(n.RecipeRevision)
}

// HasPackage reports whether a prebuilt binary can be synchronized.
func (n *Node) HasPackage() bool {
	return n.Binary != BinaryMissing
}

// LocalPackageID returns the package id used in the local cache layout.
// The lockfile is authoritative; the graph id is the fallback.
func (n *Node) LocalPackageID() string {
	if n.Lock.PackageID != "" {
		return n.Lock.PackageID
	}
	return n.PackageID
}

// Scopes returns the artifact scopes to synchronize, in processing order.
func (n *Node) Scopes() []Scope {
	if !n.HasPackage() {
		return []Scope{ScopeExport}
	}
	return []Scope{ScopeExport, ScopePackage}
}
