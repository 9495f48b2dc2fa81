// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"crypto/md5"  // #nosec G501
	"crypto/sha1" // #nosec G505
	_ "crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/opencontainers/go-digest"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// HashReader computes the md5, sha1 and sha256 digests of the stream
// and returns them with the number of bytes read.
func HashReader(r io.Reader) (conan.Checksums, int64, error) {
	md5h := md5.New()   // #nosec G401
	sha1h := sha1.New() // #nosec G401
	digester := digest.Canonical.Digester()

	n, err := io.Copy(io.MultiWriter(md5h, sha1h, digester.Hash()), r)
	if err != nil {
		return conan.Checksums{}, n, err
	}

	return conan.Checksums{
		MD5:    hex.EncodeToString(md5h.Sum(nil)),
		SHA1:   hex.EncodeToString(sha1h.Sum(nil)),
		SHA256: digester.Digest().Encoded(),
	}, n, nil
}

// HashFile re-reads a file from disk and returns its digests and size.
func HashFile(path string) (conan.Checksums, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return conan.Checksums{}, 0, err
	}
	defer f.Close()

	sums, n, err := HashReader(f)
	if err != nil {
		return conan.Checksums{}, 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return sums, n, nil
}
