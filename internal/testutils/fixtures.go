// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package testutils

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"testing"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// ZlibPackageID is the package id used by the zlib fixtures.
const ZlibPackageID = "6af9cc7cb931c5ad942174fd7838eb655717c709"

// BZip2PackageID is the package id used by the bzip2 fixtures.
const BZip2PackageID = "da606cf731e334010b0bf6e85a2a6f891b9f36b0"

// Graph returns a graph with a consumer pseudo-node, zlib with a
// cached binary and bzip2 without a prebuilt binary, all resolved
// from remoteURL.
func Graph(remoteURL string) apiv1.Graph {
	return apiv1.Graph{
		{IsRef: false, Reference: "conanfile.txt"},
		{
			IsRef:           true,
			Reference:       "zlib/1.2.11",
			Revision:        "0",
			ID:              ZlibPackageID,
			PackageRevision: "0",
			Binary:          "Cache",
			Remote:          &apiv1.GraphRemote{Name: "conan-center", URL: remoteURL},
			License:         apiv1.StringList{"Zlib"},
			Homepage:        "https://zlib.net",
			URL:             "https://github.com/conan-io/conan-center-index",
			Description:     "A Massively Spiffy Yet Delicately Unobtrusive Compression Library",
		},
		{
			IsRef:           true,
			Reference:       "bzip2/1.0.8@conan/stable",
			Revision:        "0",
			ID:              BZip2PackageID,
			PackageRevision: "0",
			Binary:          "Missing",
			Remote:          &apiv1.GraphRemote{Name: "conan-center", URL: remoteURL},
			License:         apiv1.StringList{"bzip2-1.0.8"},
			Homepage:        "http://www.bzip.org",
		},
	}
}

// Lock returns the lockfile matching Graph.
func Lock() *apiv1.Lock {
	return &apiv1.Lock{
		Version: "0.4",
		GraphLock: apiv1.GraphLock{
			Nodes: map[string]apiv1.LockNode{
				"0": {Path: "conanfile.txt", Requires: []string{"1", "2"}},
				"1": {Ref: "zlib/1.2.11#0", PackageID: ZlibPackageID, PackageRevision: "0"},
				"2": {Ref: "bzip2/1.0.8@conan/stable#0", PackageID: BZip2PackageID},
			},
			RevisionsEnabled: true,
		},
	}
}

// Manifest renders a conanmanifest.txt document for the given
// path to md5 entries, in the given order.
func Manifest(entries ...[2]string) []byte {
	var buf bytes.Buffer
	buf.WriteString("1619000000\n")
	for _, e := range entries {
		buf.WriteString(e[0] + ": " + e[1] + "\n")
	}
	return buf.Bytes()
}

// MarshalJSON encodes v or fails the test.
func MarshalJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return data
}

// Contents of the files published by Publish.
var (
	ZlibConanfile  = []byte("from conan import ConanFile\n")
	ZlibExportTgz  = []byte("\x1f\x8b\x08\x00zlib-export")
	ZlibConanInfo  = []byte("[settings]\nos=Linux\n")
	ZlibPackageTgz = []byte("\x1f\x8b\x08\x00zlib-package")
	BZip2Conanfile = []byte("from conans import ConanFile\n")
)

var (
	zlibRef  = conan.MustParseReference("zlib/1.2.11")
	bzip2Ref = conan.MustParseReference("bzip2/1.0.8@conan/stable")
)

// Publish serves the artifacts of the Graph fixtures: zlib with export
// and package scopes, bzip2 with an export scope only. The package
// manifest lists a header packed in the archive.
func Publish(r *Registry) {
	r.AddExport(zlibRef, "0", map[string]*File{
		"conanfile.py":     {Content: ZlibConanfile, ContentType: "text/x-python"},
		"conan_export.tgz": {Content: ZlibExportTgz},
		"conanmanifest.txt": {
			Content:     Manifest([2]string{"conanfile.py", MD5(ZlibConanfile)}),
			ContentType: "text/plain",
		},
	})

	r.AddPackage(zlibRef, "0", ZlibPackageID, "0", map[string]*File{
		"conaninfo.txt":     {Content: ZlibConanInfo, ContentType: "text/plain"},
		"conan_package.tgz": {Content: ZlibPackageTgz},
		"conanmanifest.txt": {
			Content: Manifest(
				[2]string{"conaninfo.txt", MD5(ZlibConanInfo)},
				[2]string{"include/zlib.h", MD5([]byte("header"))},
			),
			ContentType: "text/plain",
		},
	})

	r.AddExport(bzip2Ref, "0", map[string]*File{
		"conanfile.py": {Content: BZip2Conanfile, ContentType: "text/x-python"},
		"conanmanifest.txt": {
			Content:     Manifest([2]string{"conanfile.py", MD5(BZip2Conanfile)}),
			ContentType: "text/plain",
		},
	})
}

// MD5 returns the hex md5 of b.
func MD5(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
