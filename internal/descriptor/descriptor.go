// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package descriptor

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/license"
	"github.com/controlplaneio-fluxcd/conancache/internal/naming"
)

// ReservedNames are the derivation attributes that file identifiers
// must not shadow.
var ReservedNames = []string{
	"pname",
	"version",
	"src",
	"srcs",
	"dontUnpack",
	"installPhase",
	"passthru",
	"meta",
	"metadata-json",
}

// File is a verified artifact with its allocated identifier.
type File struct {
	conan.LocalArtifactFile

	// NixName is the attribute name of the fetchurl entry.
	NixName string
}

// InstallDir is a directory of the reference tree with the files
// copied into it.
type InstallDir struct {
	Dir   string
	Files []File
}

// Descriptor is the content-addressed build unit of one node.
type Descriptor struct {
	Node *conan.Node

	// Files are in synchronization order: export then package,
	// each in listing order.
	Files []File

	// Metadata is the reference metadata.json document.
	Metadata []byte

	// TreeDigest is the dirhash h1: digest over Files.
	TreeDigest string

	Licenses []license.License
}

// Build names the verified files of a node and assembles its descriptor.
// A fresh naming allocator is used for every call. Unverified files are
// rejected so that partial results are never emitted.
func Build(node *conan.Node, files []conan.LocalArtifactFile, metadata []byte, treeDigest string) (*Descriptor, error) {
	alloc := naming.NewAllocator(ReservedNames...)

	d := &Descriptor{
		Node:       node,
		Files:      make([]File, 0, len(files)),
		Metadata:   metadata,
		TreeDigest: treeDigest,
		Licenses:   license.Resolve(node.License),
	}

	for _, f := range files {
		if !f.Verified() {
			return nil, fmt.Errorf("%s %s: %s is not verified", node.Ref, f.Scope, f.Name)
		}
		name, err := alloc.Allocate(identifierPath(f.Name))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", node.Ref, f.Scope, err)
		}
		d.Files = append(d.Files, File{LocalArtifactFile: f, NixName: name})
	}

	return d, nil
}

// InstallDirs groups the files by destination directory in the
// order dl/export, export, dl/pkg/<id>, package/<id>.
func (d *Descriptor) InstallDirs() []InstallDir {
	order := []string{
		conan.LocalSubpath(conan.ScopeExport, true, ""),
		conan.LocalSubpath(conan.ScopeExport, false, ""),
	}
	if d.Node.HasPackage() {
		id := d.Node.LocalPackageID()
		order = append(order,
			conan.LocalSubpath(conan.ScopePackage, true, id),
			conan.LocalSubpath(conan.ScopePackage, false, id),
		)
	}

	byDir := make(map[string][]File, len(order))
	for _, f := range d.Files {
		dir := path.Dir(f.Subpath)
		byDir[dir] = append(byDir[dir], f)
	}

	dirs := make([]InstallDir, 0, len(order))
	for _, dir := range order {
		dirs = append(dirs, InstallDir{Dir: dir, Files: byDir[dir]})
	}
	return dirs
}

// Version returns <version>-<recipe revision>.
func (d *Descriptor) Version() string {
	return d.Node.Ref.Version + "-" + d.Node.RecipeRevision
}

// identifierPath prefixes names that cannot start a nix identifier.
func identifierPath(name string) string {
	if name != "" {
		c := name[0]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
			return name
		}
	}
	return "_" + name
}

// metadata mirrors the metadata.json document conan keeps per reference.
type metadata struct {
	Recipe   metadataRecipe             `json:"recipe"`
	Packages map[string]metadataPackage `json:"packages"`
}

type metadataRecipe struct {
	Revision   string            `json:"revision"`
	Remote     string            `json:"remote"`
	Properties map[string]string `json:"properties"`
	Checksums  map[string]any    `json:"checksums"`
}

type metadataPackage struct {
	Revision       string            `json:"revision"`
	RecipeRevision string            `json:"recipe_revision"`
	Remote         string            `json:"remote"`
	Properties     map[string]string `json:"properties"`
	Checksums      map[string]any    `json:"checksums"`
}

// GenerateMetadata returns a deterministic metadata.json document for
// a node whose local cache has none. Checksums of the archives are
// recorded as conan does.
func GenerateMetadata(node *conan.Node, files []conan.LocalArtifactFile) ([]byte, error) {
	m := metadata{
		Recipe: metadataRecipe{
			Revision:   node.RecipeRevision,
			Remote:     node.Remote.Name,
			Properties: map[string]string{},
			Checksums:  map[string]any{},
		},
		Packages: map[string]metadataPackage{},
	}

	var pkg *metadataPackage
	if node.HasPackage() {
		pkg = &metadataPackage{
			Revision:       node.PackageRevision,
			RecipeRevision: node.RecipeRevision,
			Remote:         node.Remote.Name,
			Properties:     map[string]string{},
			Checksums:      map[string]any{},
		}
	}

	for _, f := range files {
		if !f.Archive() && f.Name != cache.ManifestFileName {
			continue
		}
		sums := map[string]string{"md5": f.Checksums.MD5, "sha1": f.Checksums.SHA1}
		switch {
		case f.Scope == conan.ScopeExport:
			m.Recipe.Checksums[f.Name] = sums
		case pkg != nil:
			pkg.Checksums[f.Name] = sums
		}
	}
	if pkg != nil {
		m.Packages[node.LocalPackageID()] = *pkg
	}

	return json.MarshalIndent(m, "", "    ")
}
