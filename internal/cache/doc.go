// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package cache manages the local conan data directory: the layout of
// reference, scope and package directories, the digests of cached files
// and the Synchronizer that moves every file from Absent or Stale to
// Verified.
//
// A present file is checked with a HEAD request; it is reused only when
// the declared size and checksum agree with the local bytes. Downloads
// are written atomically and verified by re-reading the file from disk.
package cache
