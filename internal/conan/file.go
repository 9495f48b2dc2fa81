// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package conan

// Algorithm names a checksum algorithm.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// Checksums holds the hex-encoded digests of a file's raw bytes.
type Checksums struct {
	MD5    string `json:"md5"`
	SHA1   string `json:"sha1,omitempty"`
	SHA256 string `json:"sha256"`
}

// Get returns the digest computed with the given algorithm.
func (c Checksums) Get(alg Algorithm) string {
	switch alg {
	case MD5:
		return c.MD5
	case SHA1:
		return c.SHA1
	case SHA256:
		return c.SHA256
	default:
		return ""
	}
}

// RemoteFile is one entry of a remote scope listing.
type RemoteFile struct {
	Scope Scope
	Name  string
	URL   string
}

// CacheState is the freshness of a local cache entry.
type CacheState string

const (
	// StateAbsent means no file exists at the local path.
	StateAbsent CacheState = "Absent"

	// StateStale means a local file exists but disagrees with the remote.
	StateStale CacheState = "Stale"

	// StateVerified means the local bytes match a remote-declared checksum.
	StateVerified CacheState = "Verified"
)

// SyncAction records how a file reached the Verified state.
type SyncAction string

const (
	ActionReused       SyncAction = "reused"
	ActionDownloaded   SyncAction = "downloaded"
	ActionRedownloaded SyncAction = "redownloaded"
)

// LocalArtifactFile is the unit managed by the synchronizer: one remote
// file bound to its deterministic location in the local cache.
type LocalArtifactFile struct {
	Ref       Reference
	Scope     Scope
	PackageID string
	Name      string
	URL       string

	// Subpath is the path relative to the reference root,
	// e.g. dl/export/conan_export.tgz.
	Subpath string

	// Path is the absolute local destination.
	Path string

	Size      int64
	Checksums Checksums
	State     CacheState
	Action    SyncAction
}

// Archive reports whether the file is a compressed archive.
func (f *LocalArtifactFile) Archive() bool {
	return IsArchive(f.Name)
}

// Verified reports whether the file passed verification.
func (f *LocalArtifactFile) Verified() bool {
	return f.State == StateVerified
}
