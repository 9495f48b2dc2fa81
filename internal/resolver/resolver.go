// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/remote"
)

// Lister fetches remote scope listings.
type Lister interface {
	List(ctx context.Context, url string) (*remote.Listing, error)
}

// Resolver discovers the remote files of a node scope and binds each
// one to its local destination.
type Resolver struct {
	lister Lister
	layout cache.Layout
	logger logr.Logger
}

// New returns a Resolver for the given cache layout.
func New(lister Lister, layout cache.Layout, logger logr.Logger) *Resolver {
	return &Resolver{lister: lister, layout: layout, logger: logger}
}

// Resolve lists the files of a node scope in name order and binds
// each of them to its local destination.
func (r *Resolver) Resolve(ctx context.Context, node *conan.Node, scope conan.Scope) ([]conan.LocalArtifactFile, error) {
	remoteFiles, err := r.List(ctx, node, scope)
	if err != nil {
		return nil, err
	}

	files := make([]conan.LocalArtifactFile, 0, len(remoteFiles))
	for _, rf := range remoteFiles {
		f, err := r.layout.File(node, rf.Scope, rf.Name, rf.URL)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", node.Ref, scope, err)
		}
		files = append(files, f)
	}

	r.logger.V(1).Info("resolved scope", "ref", node.Ref.String(), "scope", scope, "files", len(files))
	return files, nil
}

// List returns the remote files of a node scope in name order.
// It returns conan.ErrPackageMissing for the package scope of a node
// without a prebuilt binary and a *conan.NestedListingError when the
// listing is not flat.
func (r *Resolver) List(ctx context.Context, node *conan.Node, scope conan.Scope) ([]conan.RemoteFile, error) {
	if scope == conan.ScopePackage && !node.HasPackage() {
		return nil, fmt.Errorf("%s: %w", node.Ref, conan.ErrPackageMissing)
	}

	listingURL, err := ListingURL(node, scope)
	if err != nil {
		return nil, err
	}

	if scope == conan.ScopePackage && node.Lock.PackageID != "" && node.Lock.PackageID != node.PackageID {
		r.logger.V(1).Info("graph and lock package ids differ, using the lock id locally",
			"ref", node.Ref.String(), "graph", node.PackageID, "lock", node.Lock.PackageID)
	}

	listing, err := r.lister.List(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: listing failed: %w", node.Ref, scope, err)
	}

	files := make([]conan.RemoteFile, 0, len(listing.Entries))
	for _, e := range listing.Entries {
		if e.Nested {
			return nil, &conan.NestedListingError{
				Ref:   node.Ref,
				Scope: scope,
				File:  e.Name,
				URL:   listingURL,
			}
		}

		fileURL, err := FileURL(listingURL, e.Name)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", node.Ref, scope, err)
		}

		files = append(files, conan.RemoteFile{Scope: scope, Name: e.Name, URL: fileURL})
	}
	return files, nil
}
