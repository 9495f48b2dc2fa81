// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// RevisionsURL returns <remote>/v2/conans/<name>/<version>/<user>/<channel>/revisions/<rrev>.
func RevisionsURL(node *conan.Node) (string, error) {
	if node.Remote.URL == "" {
		return "", fmt.Errorf("%s: remote URL is not set", node.Ref)
	}
	if node.RecipeRevision == "" {
		return "", fmt.Errorf("%s: recipe revision is not set", node.Ref)
	}
	return url.JoinPath(node.Remote.URL, "v2", "conans",
		node.Ref.Name, node.Ref.Version, node.Ref.User, node.Ref.Channel,
		"revisions", node.RecipeRevision)
}

// ListingURL returns the files listing URL of a scope. The package scope
// is addressed by the graph package id and package revision.
func ListingURL(node *conan.Node, scope conan.Scope) (string, error) {
	base, err := RevisionsURL(node)
	if err != nil {
		return "", err
	}

	switch scope {
	case conan.ScopeExport:
		return url.JoinPath(base, "files")
	case conan.ScopePackage:
		if node.PackageID == "" || node.PackageRevision == "" {
			return "", fmt.Errorf("%s: package id and revision are required for the package scope", node.Ref)
		}
		return url.JoinPath(base, "packages", node.PackageID, "revisions", node.PackageRevision, "files")
	default:
		return "", errors.New("unknown scope " + string(scope))
	}
}

// FileURL returns the download URL of a file in a listing.
func FileURL(listingURL, name string) (string, error) {
	return url.JoinPath(listingURL, name)
}
