// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package reconciler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// DefaultLockVersionConstraint accepts the lockfile formats that carry
// a full reference and package id per node.
const DefaultLockVersionConstraint = ">= 0.4"

// Option configures Reconcile.
type Option func(*options)

type options struct {
	logger logr.Logger
}

// WithLogger sets the logger used to report ambiguous lock entries.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Reconcile merges the graph with the lockfile. Every graph node with
// is_ref set must have a lock entry with the same reference#revision,
// otherwise a *conan.MissingLockDataError is returned and no node is.
// Pseudo-nodes are skipped and the graph order is preserved.
//
// When several lock nodes share a reference#revision, as happens when a
// reference is required in both the host and the build context, the
// entry whose package id matches the graph node id is used.
func Reconcile(graph apiv1.Graph, lock *apiv1.Lock, opts ...Option) ([]conan.Node, error) {
	if lock == nil {
		return nil, fmt.Errorf("lock document is required")
	}

	o := &options{logger: logr.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	byRef := lockEntriesByRef(lock)

	nodes := make([]conan.Node, 0, len(graph))
	for i := range graph {
		gn := &graph[i]
		if !gn.IsRef {
			continue
		}

		ref, err := conan.ParseReference(gn.Reference)
		if err != nil {
			return nil, fmt.Errorf("graph node %d: %w", i, err)
		}

		fullRef := ref.FullRef(gn.Revision)
		candidates, ok := byRef[fullRef]
		if !ok {
			return nil, &conan.MissingLockDataError{FullRef: fullRef, Index: i}
		}
		entry := selectLockEntry(candidates, gn.ID)
		if len(candidates) > 1 {
			ids := make([]string, 0, len(candidates))
			for _, c := range candidates {
				ids = append(ids, c.NodeID)
			}
			o.logger.V(1).Info("several lock entries match the reference",
				"ref", fullRef, "lockNodes", ids, "selected", entry.NodeID, "packageID", gn.ID)
		}

		binary, err := conan.ParseBinaryState(gn.Binary)
		if err != nil {
			return nil, fmt.Errorf("graph node %d (%s): %w", i, fullRef, err)
		}

		node := conan.Node{
			Ref:             ref,
			RecipeRevision:  gn.Revision,
			PackageID:       gn.ID,
			PackageRevision: gn.PackageRevision,
			Binary:          binary,
			License:         gn.License,
			Homepage:        gn.Homepage,
			URL:             gn.URL,
			Description:     gn.Description,
			Lock:            entry,
		}
		if gn.Remote != nil {
			node.Remote = conan.Remote{Name: gn.Remote.Name, URL: gn.Remote.URL}
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

// lockEntriesByRef indexes the lock nodes by full reference. Entries
// sharing a reference are kept in node id order.
func lockEntriesByRef(lock *apiv1.Lock) map[string][]conan.LockEntry {
	ids := make([]string, 0, len(lock.GraphLock.Nodes))
	for id := range lock.GraphLock.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return lessNodeID(ids[i], ids[j])
	})

	byRef := make(map[string][]conan.LockEntry, len(ids))
	for _, id := range ids {
		ln := lock.GraphLock.Nodes[id]
		if ln.Ref == "" {
			continue
		}
		key := normalizeFullRef(ln.Ref)
		byRef[key] = append(byRef[key], conan.LockEntry{
			NodeID:    id,
			Ref:       ln.Ref,
			PackageID: ln.PackageID,
			Revision:  ln.PackageRevision,
		})
	}
	return byRef
}

// selectLockEntry returns the candidate locking packageID, or the
// first candidate when none does.
func selectLockEntry(candidates []conan.LockEntry, packageID string) conan.LockEntry {
	for _, c := range candidates {
		if packageID != "" && c.PackageID == packageID {
			return c
		}
	}
	return candidates[0]
}

// lessNodeID orders numeric lock node ids by value and any other id
// lexically after them.
func lessNodeID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// normalizeFullRef rewrites an explicit @_/_ suffix so that lock and
// graph references compare equal.
func normalizeFullRef(fullRef string) string {
	i := strings.LastIndex(fullRef, "#")
	if i < 0 {
		return fullRef
	}
	refPart, rev := fullRef[:i], fullRef[i+1:]
	ref, err := conan.ParseReference(refPart)
	if err != nil {
		return fullRef
	}
	return ref.FullRef(rev)
}

// CheckLockVersion verifies the lockfile format version against a semver
// constraint. Two-part versions such as "0.4" are coerced to "0.4.0".
func CheckLockVersion(lock *apiv1.Lock, constraint string) error {
	if constraint == "" {
		constraint = DefaultLockVersionConstraint
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("semver '%s' parse error: %w", constraint, err)
	}

	if lock.Version == "" {
		return fmt.Errorf("lock version is not set")
	}

	v, err := semver.NewVersion(lock.Version)
	if err != nil {
		return fmt.Errorf("lock version '%s' parse error: %w", lock.Version, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("lock version %s does not match constraint '%s'", lock.Version, constraint)
	}
	return nil
}
