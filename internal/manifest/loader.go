// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/resolver"
)

// Fetcher downloads a remote document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Loader reads scope manifests from the local cache,
// falling back to the remote.
type Loader struct {
	fetcher Fetcher
	layout  cache.Layout
}

// NewLoader returns a Loader for the given cache layout.
func NewLoader(fetcher Fetcher, layout cache.Layout) *Loader {
	return &Loader{fetcher: fetcher, layout: layout}
}

// Load returns the manifest of a node scope. A manifest found at its
// layout path is used as is; otherwise it is fetched from the remote
// and persisted there.
func (l *Loader) Load(ctx context.Context, node *conan.Node, scope conan.Scope) (*Manifest, error) {
	localPath := l.layout.Path(node.Ref, cache.ManifestSubpath(node, scope))

	data, err := os.ReadFile(localPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		data, err = l.fetch(ctx, node, scope, localPath)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read manifest %s: %w", localPath, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", node.Ref, scope, err)
	}
	return m, nil
}

func (l *Loader) fetch(ctx context.Context, node *conan.Node, scope conan.Scope, localPath string) ([]byte, error) {
	listingURL, err := resolver.ListingURL(node, scope)
	if err != nil {
		return nil, err
	}
	manifestURL, err := resolver.FileURL(listingURL, cache.ManifestFileName)
	if err != nil {
		return nil, err
	}

	data, err := l.fetcher.Fetch(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to fetch manifest: %w", node.Ref, scope, err)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest %s: %w", localPath, err)
	}
	return data, nil
}
