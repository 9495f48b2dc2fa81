// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package testutils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// File is an artifact served by the Registry.
type File struct {
	Content     []byte
	ContentType string

	// Served replaces the GET body, keeping the declared checksums
	// of Content. Used to simulate corruption in transit.
	Served []byte

	// NoChecksums drops the X-Checksum-Sha2 and ETag headers.
	NoChecksums bool
}

// Registry is an in-memory conan v2 registry backed by httptest.
// It serves scope listings, HEAD requests with Content-Length,
// X-Checksum-Sha2 and ETag headers, and file downloads.
type Registry struct {
	Server *httptest.Server

	mu       sync.Mutex
	listings map[string]map[string]json.RawMessage
	files    map[string]*File
	requests map[string]int
}

// NewRegistry starts a Registry that is closed when the test ends.
func NewRegistry(t *testing.T) *Registry {
	t.Helper()
	r := &Registry{
		listings: make(map[string]map[string]json.RawMessage),
		files:    make(map[string]*File),
		requests: make(map[string]int),
	}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serveHTTP))
	t.Cleanup(r.Server.Close)
	return r
}

// URL returns the registry base URL.
func (r *Registry) URL() string {
	return r.Server.URL
}

// ExportPath returns the export listing path of a recipe revision.
func ExportPath(ref conan.Reference, rrev string) string {
	return path.Join("/v2/conans", ref.Path(), "revisions", rrev, "files")
}

// PackagePath returns the listing path of a package revision.
func PackagePath(ref conan.Reference, rrev, packageID, prev string) string {
	return path.Join("/v2/conans", ref.Path(), "revisions", rrev, "packages", packageID, "revisions", prev, "files")
}

// AddExport publishes the export files of a recipe revision.
func (r *Registry) AddExport(ref conan.Reference, rrev string, files map[string]*File) {
	r.AddListing(ExportPath(ref, rrev), files)
}

// AddPackage publishes the files of a binary package revision.
func (r *Registry) AddPackage(ref conan.Reference, rrev, packageID, prev string, files map[string]*File) {
	r.AddListing(PackagePath(ref, rrev, packageID, prev), files)
}

// AddListing publishes files under an arbitrary listing path.
func (r *Registry) AddListing(listingPath string, files map[string]*File) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.listings[listingPath]
	if !ok {
		entries = make(map[string]json.RawMessage)
		r.listings[listingPath] = entries
	}
	for name, f := range files {
		entries[name] = json.RawMessage(`{}`)
		r.files[listingPath+"/"+name] = f
	}
}

// AddNested adds a listing entry with nested contents.
func (r *Registry) AddNested(listingPath, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.listings[listingPath]
	if !ok {
		entries = make(map[string]json.RawMessage)
		r.listings[listingPath] = entries
	}
	entries[name] = json.RawMessage(`{"LICENSE": {}}`)
}

// SetFile replaces a published file.
func (r *Registry) SetFile(listingPath, name string, f *File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[listingPath+"/"+name] = f
}

// Requests returns the number of requests with the given method whose
// path ends with suffix. An empty suffix matches every path.
func (r *Registry) Requests(method, suffix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, count := range r.requests {
		m, p, _ := strings.Cut(key, " ")
		if m == method && strings.HasSuffix(p, suffix) {
			n += count
		}
	}
	return n
}

// ResetRequests clears the request counters.
func (r *Registry) ResetRequests() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = make(map[string]int)
}

func (r *Registry) serveHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.requests[req.Method+" "+req.URL.Path]++
	entries, isListing := r.listings[req.URL.Path]
	f, isFile := r.files[req.URL.Path]
	r.mu.Unlock()

	switch {
	case isListing && req.Method == http.MethodGet:
		doc := map[string]map[string]json.RawMessage{"files": entries}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	case isFile && (req.Method == http.MethodGet || req.Method == http.MethodHead):
		body := f.Content
		if f.Served != nil && req.Method == http.MethodGet {
			body = f.Served
		}
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if !f.NoChecksums {
			sha := sha256.Sum256(f.Content)
			md := md5.Sum(f.Content)
			w.Header().Set("X-Checksum-Sha2", hex.EncodeToString(sha[:]))
			w.Header().Set("ETag", fmt.Sprintf("%q", hex.EncodeToString(md[:])))
		}
		w.WriteHeader(http.StatusOK)
		if req.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	default:
		http.NotFound(w, req)
	}
}
