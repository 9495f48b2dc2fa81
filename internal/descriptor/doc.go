// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package descriptor turns the verified files of a node into a
// content-addressed build descriptor.
//
// The nix renderer emits one stdenv.mkDerivation per node with a
// fetchurl entry per file, pinned by url and sha256, and an install
// phase that recreates the conan data directory:
//
//	<name>/<version>/<user>/<channel>/
//	├── dl/export/conan_export.tgz
//	├── export/conanfile.py
//	├── dl/pkg/<package id>/conan_package.tgz
//	├── package/<package id>/conaninfo.txt
//	└── metadata.json
//
// Templates have access to the slim-sprig function library.
package descriptor
