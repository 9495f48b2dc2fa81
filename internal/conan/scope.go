// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package conan

import (
	"fmt"
	"path"
	"strings"
)

// Scope is the owner of a set of artifacts: the recipe export or one
// binary package.
type Scope string

const (
	ScopeExport  Scope = "export"
	ScopePackage Scope = "package"
)

// ParseScope accepts "export" or "package".
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeExport, ScopePackage:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q, must be one of: export, package", s)
	}
}

// ArchiveExtension marks compressed archives, which conan keeps under dl/.
const ArchiveExtension = ".tgz"

// IsArchive reports whether the file name denotes a compressed archive.
func IsArchive(name string) bool {
	return strings.HasSuffix(name, ArchiveExtension)
}

// LocalSubpath returns the directory, relative to the reference root,
// holding a file of the given scope and kind:
//
//	export,  archive  → dl/export
//	export,  plain    → export
//	package, archive  → dl/pkg/<packageID>
//	package, plain    → package/<packageID>
func LocalSubpath(scope Scope, archive bool, packageID string) string {
	switch {
	case scope == ScopeExport && archive:
		return "dl/export"
	case scope == ScopeExport:
		return "export"
	case archive:
		return path.Join("dl", "pkg", packageID)
	default:
		return path.Join("package", packageID)
	}
}
