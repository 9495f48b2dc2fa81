// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// MetadataFileName is the per-reference metadata document kept by conan.
const MetadataFileName = "metadata.json"

// ManifestFileName is the per-scope manifest listing file md5 sums.
const ManifestFileName = "conanmanifest.txt"

// Layout maps artifacts to their location in a conan data directory.
type Layout struct {
	Root string
}

// NewLayout returns a layout rooted at the absolute form of root.
func NewLayout(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to resolve cache root %s: %w", root, err)
	}
	return Layout{Root: abs}, nil
}

// DefaultRoot returns $CONAN_USER_HOME/.conan/data,
// falling back to the user home directory.
func DefaultRoot() string {
	home := os.Getenv("CONAN_USER_HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".conan", "data")
}

// RemoveTempFiles deletes the temporary files that interrupted writes
// left in the reference directory and returns how many were removed.
func (l Layout) RemoveTempFiles(ref conan.Reference) (int, error) {
	removed := 0
	err := filepath.WalkDir(l.ReferenceDir(ref), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.Type().IsRegular() && IsTempFile(d.Name()) {
			if err := os.Remove(p); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to remove temporary files of %s: %w", ref, err)
	}
	return removed, nil
}

// ReferenceDir returns <root>/<name>/<version>/<user>/<channel>.
func (l Layout) ReferenceDir(ref conan.Reference) string {
	return filepath.Join(l.Root, filepath.FromSlash(ref.Path()))
}

// MetadataPath returns the location of the reference metadata document.
func (l Layout) MetadataPath(ref conan.Reference) string {
	return filepath.Join(l.ReferenceDir(ref), MetadataFileName)
}

// Subpath returns the slash-separated path of a file relative to the
// reference directory.
func Subpath(scope conan.Scope, packageID, name string) string {
	return path.Join(conan.LocalSubpath(scope, conan.IsArchive(name), packageID), name)
}

// ManifestSubpath returns the subpath of the manifest of a scope.
func ManifestSubpath(node *conan.Node, scope conan.Scope) string {
	return Subpath(scope, node.LocalPackageID(), ManifestFileName)
}

// Path returns the absolute location of a reference-relative subpath.
func (l Layout) Path(ref conan.Reference, subpath string) string {
	return filepath.Join(l.ReferenceDir(ref), filepath.FromSlash(subpath))
}

// File binds a remote file of a node to its local destination.
func (l Layout) File(node *conan.Node, scope conan.Scope, name, url string) (conan.LocalArtifactFile, error) {
	if err := ValidateFileName(name); err != nil {
		return conan.LocalArtifactFile{}, err
	}

	f := conan.LocalArtifactFile{
		Ref:   node.Ref,
		Scope: scope,
		Name:  name,
		URL:   url,
		State: conan.StateAbsent,
	}
	if scope == conan.ScopePackage {
		f.PackageID = node.LocalPackageID()
	}
	f.Subpath = Subpath(scope, f.PackageID, name)
	f.Path = l.Path(node.Ref, f.Subpath)
	return f, nil
}

// ValidateFileName rejects names that would escape their scope directory.
func ValidateFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("invalid file name %q: path separators are not allowed", name)
	}
	return nil
}
