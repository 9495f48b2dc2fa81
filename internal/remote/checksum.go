// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package remote

import (
	"net/http"
	"strings"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// ChecksumSource extracts a declared checksum from response headers.
type ChecksumSource struct {
	// Name identifies the source in logs and errors.
	Name string

	// Extract returns the algorithm and the lowercase hex value,
	// or false when the source is absent or unusable.
	Extract func(h http.Header) (conan.Algorithm, string, bool)
}

// DefaultChecksumSources lists the header sources in priority order.
// For every algorithm the first source yielding a value wins.
var DefaultChecksumSources = []ChecksumSource{
	HeaderChecksumSource("x-checksum-sha2", conan.SHA256),
	ETagChecksumSource(),
	HeaderChecksumSource("x-checksum-sha1", conan.SHA1),
	HeaderChecksumSource("x-checksum-md5", conan.MD5),
}

// HeaderChecksumSource reads a dedicated checksum header
// holding a digest of the given algorithm.
func HeaderChecksumSource(header string, alg conan.Algorithm) ChecksumSource {
	return ChecksumSource{
		Name: strings.ToLower(header),
		Extract: func(h http.Header) (conan.Algorithm, string, bool) {
			v := normalizeHex(h.Get(header))
			if len(v) != hexLen(alg) {
				return "", "", false
			}
			return alg, v, true
		},
	}
}

// ETagChecksumSource reads the entity tag, which registries commonly
// set to a hex digest of the body. The algorithm is inferred from the
// length: 32 chars is md5, 40 chars is sha1 and 64 chars is sha256.
func ETagChecksumSource() ChecksumSource {
	return ChecksumSource{
		Name: "etag",
		Extract: func(h http.Header) (conan.Algorithm, string, bool) {
			v := h.Get("ETag")
			v = strings.TrimPrefix(v, "W/")
			v = normalizeHex(strings.Trim(v, `"`))
			for _, alg := range []conan.Algorithm{conan.MD5, conan.SHA1, conan.SHA256} {
				if len(v) == hexLen(alg) {
					return alg, v, true
				}
			}
			return "", "", false
		},
	}
}

// DeclaredChecksum is a checksum value announced by the remote.
type DeclaredChecksum struct {
	Source    string
	Algorithm conan.Algorithm
	Value     string
}

// Declared holds at most one declared checksum per algorithm.
type Declared []DeclaredChecksum

// ResolveChecksums evaluates the sources in order and keeps
// the first value found for each algorithm.
func ResolveChecksums(h http.Header, sources []ChecksumSource) Declared {
	var d Declared
	for _, src := range sources {
		alg, v, ok := src.Extract(h)
		if !ok {
			continue
		}
		if _, exists := d.Get(alg); exists {
			continue
		}
		d = append(d, DeclaredChecksum{Source: src.Name, Algorithm: alg, Value: v})
	}
	return d
}

// Get returns the declared checksum for the algorithm.
func (d Declared) Get(alg conan.Algorithm) (DeclaredChecksum, bool) {
	for _, c := range d {
		if c.Algorithm == alg {
			return c, true
		}
	}
	return DeclaredChecksum{}, false
}

// Merge returns d extended with the algorithms only present in other.
func (d Declared) Merge(other Declared) Declared {
	out := append(Declared{}, d...)
	for _, c := range other {
		if _, exists := out.Get(c.Algorithm); !exists {
			out = append(out, c)
		}
	}
	return out
}

func hexLen(alg conan.Algorithm) int {
	switch alg {
	case conan.MD5:
		return 32
	case conan.SHA1:
		return 40
	case conan.SHA256:
		return 64
	default:
		return -1
	}
}

func normalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ""
		}
	}
	return s
}
