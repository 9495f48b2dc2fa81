// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/remote"
)

// Remote is the transport used by the Synchronizer.
type Remote interface {
	Head(ctx context.Context, url string) (*remote.Metadata, error)
	Get(ctx context.Context, url string) (*remote.Download, error)
}

// Synchronizer validates local cache entries against the remote and
// refreshes them with verified content. It is safe for concurrent use;
// at most one synchronization runs per local path at any time.
type Synchronizer struct {
	remote Remote
	logger logr.Logger
	flight singleflight.Group
}

// NewSynchronizer returns a Synchronizer backed by the given transport.
func NewSynchronizer(r Remote, logger logr.Logger) *Synchronizer {
	return &Synchronizer{remote: r, logger: logger}
}

// assessment is the outcome of inspecting a local cache entry.
type assessment struct {
	state  conan.CacheState
	reason string
	meta   *remote.Metadata
	sums   conan.Checksums
	size   int64
}

// Sync brings the file to the Verified state. A present file is reused
// when the remote-declared size and checksum match; an absent or stale
// file is downloaded and verified from disk. Integrity failures return
// *conan.SizeMismatchError or *conan.ChecksumMismatchError and remove
// the corrupt file.
func (s *Synchronizer) Sync(ctx context.Context, f conan.LocalArtifactFile) (conan.LocalArtifactFile, error) {
	v, err, _ := s.flight.Do(f.Path, func() (any, error) {
		return s.sync(ctx, f)
	})
	if err != nil {
		return f, err
	}
	return v.(conan.LocalArtifactFile), nil
}

// Assess reports the cache state of the file without downloading it.
// Checksums and size are set for present files.
func (s *Synchronizer) Assess(ctx context.Context, f conan.LocalArtifactFile) (conan.LocalArtifactFile, error) {
	a, err := s.assess(ctx, f)
	if err != nil {
		return f, err
	}
	f.State = a.state
	f.Checksums = a.sums
	f.Size = a.size
	return f, nil
}

func (s *Synchronizer) sync(ctx context.Context, f conan.LocalArtifactFile) (conan.LocalArtifactFile, error) {
	log := s.logger.WithValues("ref", f.Ref.String(), "scope", f.Scope, "file", f.Name)

	a, err := s.assess(ctx, f)
	if err != nil {
		return f, err
	}

	switch a.state {
	case conan.StateVerified:
		log.V(1).Info("reusing cached file", "path", f.Path)
		f.State = conan.StateVerified
		f.Action = conan.ActionReused
		f.Checksums = a.sums
		f.Size = a.size
		return f, nil
	case conan.StateStale:
		log.V(1).Info("cached file is stale, downloading", "reason", a.reason, "url", f.URL)
		return s.download(ctx, f, a.meta, conan.ActionRedownloaded)
	default:
		log.V(1).Info("downloading file", "url", f.URL)
		return s.download(ctx, f, nil, conan.ActionDownloaded)
	}
}

func (s *Synchronizer) assess(ctx context.Context, f conan.LocalArtifactFile) (assessment, error) {
	fi, err := os.Stat(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return assessment{state: conan.StateAbsent}, nil
	}
	if err != nil {
		return assessment{}, fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}
	if !fi.Mode().IsRegular() {
		return assessment{}, fmt.Errorf("%s is not a regular file", f.Path)
	}

	meta, err := s.remote.Head(ctx, f.URL)
	if err != nil {
		return assessment{}, fmt.Errorf("%s %s: %s: metadata request failed: %w", f.Ref, f.Scope, f.Name, err)
	}

	a := assessment{state: conan.StateStale, meta: meta, size: fi.Size()}
	if meta.ContentLength >= 0 && meta.ContentLength != fi.Size() {
		a.reason = fmt.Sprintf("size mismatch: remote %d bytes, local %d", meta.ContentLength, fi.Size())
		return a, nil
	}

	sums, size, err := HashFile(f.Path)
	if err != nil {
		return assessment{}, err
	}
	a.sums, a.size = sums, size

	if sha, ok := meta.Checksums.Get(conan.SHA256); ok {
		if sha.Value != sums.SHA256 {
			a.reason = fmt.Sprintf("sha256 mismatch: remote %s, local %s", sha.Value, sums.SHA256)
			return a, nil
		}
		a.state = conan.StateVerified
		return a, nil
	}

	if _, matched := CompareChecksums(meta.Checksums, sums); !matched {
		a.reason = "no declared checksum matches"
		return a, nil
	}
	a.state = conan.StateVerified
	return a, nil
}

// download fetches the body, persists it atomically and verifies the
// bytes read back from disk against the declared size and checksums.
func (s *Synchronizer) download(ctx context.Context, f conan.LocalArtifactFile, meta *remote.Metadata, action conan.SyncAction) (conan.LocalArtifactFile, error) {
	dl, err := s.remote.Get(ctx, f.URL)
	if err != nil {
		return f, fmt.Errorf("%s %s: %s: download failed: %w", f.Ref, f.Scope, f.Name, err)
	}
	defer dl.Body.Close()

	declared := dl.Checksums
	expectedSize := dl.ContentLength
	if meta != nil {
		declared = declared.Merge(meta.Checksums)
		if expectedSize < 0 {
			expectedSize = meta.ContentLength
		}
	}

	declaredText := IsText(dl.ContentType)
	body := &bodyReader{r: dl.Body}
	text, err := persist(f.Path, body, declaredText)
	if body.err != nil {
		return f, fmt.Errorf("%s %s: %s: download interrupted: %w", f.Ref, f.Scope, f.Name,
			&remote.NetworkError{Method: http.MethodGet, URL: f.URL, Err: body.err})
	}
	if err != nil {
		return f, fmt.Errorf("%s %s: %s: %w", f.Ref, f.Scope, f.Name, err)
	}
	if declaredText && !text {
		s.logger.V(1).Info("text payload is not valid UTF-8, persisted as binary",
			"ref", f.Ref.String(), "scope", f.Scope, "file", f.Name, "contentType", dl.ContentType)
	}

	sums, size, err := HashFile(f.Path)
	if err != nil {
		return f, err
	}

	if expectedSize >= 0 && size != expectedSize {
		s.discard(f)
		return f, &conan.SizeMismatchError{
			Ref:      f.Ref,
			Scope:    f.Scope,
			File:     f.Name,
			Expected: expectedSize,
			Actual:   size,
		}
	}

	mismatches, matched := CompareChecksums(declared, sums)
	if !matched {
		s.discard(f)
		return f, &conan.ChecksumMismatchError{
			Ref:        f.Ref,
			Scope:      f.Scope,
			File:       f.Name,
			Mismatches: mismatches,
		}
	}

	s.logger.V(1).Info("file verified",
		"ref", f.Ref.String(), "scope", f.Scope, "file", f.Name,
		"sha256", sums.SHA256, "size", size)

	f.State = conan.StateVerified
	f.Action = action
	f.Checksums = sums
	f.Size = size
	return f, nil
}

func (s *Synchronizer) discard(f conan.LocalArtifactFile) {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error(err, "failed to remove corrupt file", "path", f.Path)
	}
}

// CompareChecksums checks the local digests against every declared
// checksum. It returns the mismatching ones and whether at least one
// declared checksum matched.
func CompareChecksums(declared remote.Declared, sums conan.Checksums) ([]conan.ChecksumMismatch, bool) {
	var mismatches []conan.ChecksumMismatch
	matched := false
	for _, d := range declared {
		actual := sums.Get(d.Algorithm)
		if actual == d.Value {
			matched = true
			continue
		}
		mismatches = append(mismatches, conan.ChecksumMismatch{
			Source:    d.Source,
			Algorithm: d.Algorithm,
			Expected:  d.Value,
			Actual:    actual,
		})
	}
	return mismatches, matched
}

// IsText reports whether the content type denotes a text payload:
// text/* or any */json type.
func IsText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	major, minor, ok := strings.Cut(mediaType, "/")
	if !ok {
		return false
	}
	return major == "text" || minor == "json" || strings.HasSuffix(minor, "+json")
}

// tempInfix marks the temporary files of in-progress writes.
const tempInfix = ".tmp-"

// IsTempFile reports whether name is a temporary file left behind
// by an interrupted write.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, tempInfix)
}

// bodyReader records the first read error of a response body, so that
// a dropped connection is not reported as a local write failure.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF && b.err == nil {
		b.err = err
	}
	return n, err
}

// persist writes the body to a temporary file next to dst and renames it
// into place. Text payloads are buffered and checked for valid UTF-8,
// binary payloads are streamed. Both are written byte for byte.
// It returns whether the payload was persisted as text.
func persist(dst string, body io.Reader, text bool) (bool, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+tempInfix+"*")
	if err != nil {
		return false, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if text {
		data, err := io.ReadAll(body)
		if err != nil {
			_ = tmp.Close()
			return false, fmt.Errorf("failed to read body: %w", err)
		}
		text = utf8.Valid(data)
		body = bytes.NewReader(data)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return false, err
	}

	return text, os.Rename(tmpName, dst)
}
