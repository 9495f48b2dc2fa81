// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package v1

// Lock is the lockfile produced by `conan lock create`.
type Lock struct {
	// Version is the lockfile format version, e.g. "0.4".
	Version string `json:"version"`

	// GraphLock holds the locked nodes.
	GraphLock GraphLock `json:"graph_lock"`

	// Profile is the host profile the lock was created with.
	// +optional
	Profile string `json:"profile_host,omitempty"`
}

// GraphLock maps synthetic node ids to locked entries.
type GraphLock struct {
	Nodes            map[string]LockNode `json:"nodes"`
	RevisionsEnabled bool                `json:"revisions_enabled,omitempty"`
}

// LockNode is one locked dependency.
type LockNode struct {
	// Ref is the full reference name/version[@user/channel]#revision.
	// It is empty for the root consumer node.
	Ref string `json:"ref,omitempty"`

	// PackageID is the locked binary package id.
	PackageID string `json:"package_id,omitempty"`

	// PackageRevision is the locked binary package revision.
	PackageRevision string `json:"prev,omitempty"`

	// Requires lists the node ids this node depends on.
	Requires []string `json:"requires,omitempty"`

	// Path is set for the root node when the lock was created from a local recipe.
	Path string `json:"path,omitempty"`
}
