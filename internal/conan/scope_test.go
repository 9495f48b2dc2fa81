// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package conan

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestLocalSubpath(t *testing.T) {
	tests := []struct {
		scope    Scope
		file     string
		expected string
	}{
		{ScopeExport, "conan_export.tgz", "dl/export"},
		{ScopeExport, "conanfile.py", "export"},
		{ScopeExport, "conanmanifest.txt", "export"},
		{ScopePackage, "conan_package.tgz", "dl/pkg/6af9cc7"},
		{ScopePackage, "conaninfo.txt", "package/6af9cc7"},
	}

	for _, tt := range tests {
		t.Run(string(tt.scope)+"/"+tt.file, func(t *testing.T) {
			g := NewWithT(t)

			sub := LocalSubpath(tt.scope, IsArchive(tt.file), "6af9cc7")
			g.Expect(sub).To(Equal(tt.expected))
		})
	}
}

func TestLocalSubpath_ArchivesAlwaysUnderDL(t *testing.T) {
	g := NewWithT(t)

	for _, scope := range []Scope{ScopeExport, ScopePackage} {
		g.Expect(strings.HasPrefix(LocalSubpath(scope, true, "id"), "dl/")).To(BeTrue())
		g.Expect(strings.HasPrefix(LocalSubpath(scope, false, "id"), "dl/")).To(BeFalse())
	}
}

func TestNode_Scopes(t *testing.T) {
	g := NewWithT(t)

	cached := Node{Binary: BinaryCached}
	g.Expect(cached.Scopes()).To(Equal([]Scope{ScopeExport, ScopePackage}))

	missing := Node{Binary: BinaryMissing}
	g.Expect(missing.Scopes()).To(Equal([]Scope{ScopeExport}))
}

func TestParseBinaryState(t *testing.T) {
	g := NewWithT(t)

	for input, expected := range map[string]BinaryState{
		"Cache":    BinaryCached,
		"Download": BinaryDownloadable,
		"Update":   BinaryDownloadable,
		"Missing":  BinaryMissing,
		"Build":    BinaryMissing,
	} {
		state, err := ParseBinaryState(input)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(state).To(Equal(expected), input)
	}

	_, err := ParseBinaryState("Editable")
	g.Expect(err).To(HaveOccurred())
}
