// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package manifest parses conanmanifest.txt documents and cross-checks
// their md5 entries against the synchronized files of a scope.
//
// The manifest and the HTTP checksum headers are independent sources;
// a manifest mismatch is reported as a warning and never fails a run.
package manifest
