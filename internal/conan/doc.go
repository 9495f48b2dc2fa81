// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package conan holds the data model shared by the synchronization
// engine: dependency references, reconciled graph nodes, artifact
// scopes, local cache files and the error taxonomy.
//
// The local cache layout mirrors the one used by the conan client under
// ~/.conan/data, so that a tree produced from these types can be used in
// place of a cache populated by conan itself:
//
//	<name>/<version>/<user>/<channel>/
//	  dl/export/conan_export.tgz
//	  export/conanfile.py
//	  export/conanmanifest.txt
//	  dl/pkg/<package_id>/conan_package.tgz
//	  package/<package_id>/conaninfo.txt
//	  metadata.json
package conan
