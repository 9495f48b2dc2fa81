// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"io"
	"os"
	"path/filepath"

	"golang.org/x/mod/sumdb/dirhash"
)

// TreeDigest computes the dirhash h1: digest over the given
// reference-relative subpaths. The result does not depend on order.
func TreeDigest(refDir string, subpaths []string) (string, error) {
	return dirhash.Hash1(subpaths, func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(refDir, filepath.FromSlash(name)))
	})
}
