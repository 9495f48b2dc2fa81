// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

func zlibNode() *conan.Node {
	return &conan.Node{
		Ref:             conan.MustParseReference("zlib/1.2.11"),
		RecipeRevision:  "0",
		PackageID:       "6af9cc7cb931c5ad942174fd7838eb655717c709",
		PackageRevision: "0",
		Binary:          conan.BinaryCached,
		Lock:            conan.LockEntry{PackageID: "6af9cc7cb931c5ad942174fd7838eb655717c709"},
	}
}

func TestLayout_File(t *testing.T) {
	root := t.TempDir()
	layout, err := NewLayout(root)
	if err != nil {
		t.Fatal(err)
	}
	node := zlibNode()

	tests := []struct {
		scope   conan.Scope
		name    string
		subpath string
	}{
		{conan.ScopeExport, "conanmanifest.txt", "export/conanmanifest.txt"},
		{conan.ScopeExport, "conanfile.py", "export/conanfile.py"},
		{conan.ScopeExport, "conandata.yml", "export/conandata.yml"},
		{conan.ScopeExport, "conan_export.tgz", "dl/export/conan_export.tgz"},
		{conan.ScopePackage, "conaninfo.txt", "package/6af9cc7cb931c5ad942174fd7838eb655717c709/conaninfo.txt"},
		{conan.ScopePackage, "conan_package.tgz", "dl/pkg/6af9cc7cb931c5ad942174fd7838eb655717c709/conan_package.tgz"},
	}

	for _, tt := range tests {
		t.Run(string(tt.scope)+"/"+tt.name, func(t *testing.T) {
			g := NewWithT(t)

			f, err := layout.File(node, tt.scope, tt.name, "https://example.com/"+tt.name)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(f.Subpath).To(Equal(tt.subpath))
			g.Expect(f.Path).To(Equal(filepath.Join(root, "zlib", "1.2.11", "_", "_", filepath.FromSlash(tt.subpath))))
			g.Expect(f.State).To(Equal(conan.StateAbsent))
			g.Expect(strings.HasPrefix(f.Subpath, "dl/")).To(Equal(f.Archive()))
		})
	}
}

func TestLayout_PackageIDFromLock(t *testing.T) {
	g := NewWithT(t)

	layout := Layout{Root: "/cache"}
	node := zlibNode()
	node.Lock.PackageID = "lockedid"

	f, err := layout.File(node, conan.ScopePackage, "conaninfo.txt", "")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(f.PackageID).To(Equal("lockedid"))
	g.Expect(f.Subpath).To(Equal("package/lockedid/conaninfo.txt"))
	g.Expect(ManifestSubpath(node, conan.ScopePackage)).To(Equal("package/lockedid/conanmanifest.txt"))
	g.Expect(layout.MetadataPath(node.Ref)).To(Equal(filepath.FromSlash("/cache/zlib/1.2.11/_/_/metadata.json")))
}

func TestValidateFileName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "../conanfile.py", "licenses/LICENSE", `a\b`} {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)
			g.Expect(ValidateFileName(name)).To(HaveOccurred())
		})
	}
}

func TestDefaultRoot(t *testing.T) {
	g := NewWithT(t)

	t.Setenv("CONAN_USER_HOME", "/opt/conan")
	g.Expect(DefaultRoot()).To(Equal(filepath.FromSlash("/opt/conan/.conan/data")))
}

func TestLayout_RemoveTempFiles(t *testing.T) {
	g := NewWithT(t)

	layout := Layout{Root: t.TempDir()}
	ref := zlibNode().Ref

	removed, err := layout.RemoveTempFiles(ref)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(removed).To(BeZero())

	exportDir := layout.Path(ref, "dl/export")
	g.Expect(os.MkdirAll(exportDir, 0o755)).To(Succeed())
	leftover := filepath.Join(exportDir, ".conan_export.tgz.tmp-123456")
	kept := filepath.Join(exportDir, "conan_export.tgz")
	g.Expect(os.WriteFile(leftover, []byte("partial"), 0o644)).To(Succeed())
	g.Expect(os.WriteFile(kept, []byte("archive"), 0o644)).To(Succeed())

	removed, err = layout.RemoveTempFiles(ref)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(removed).To(Equal(1))
	g.Expect(leftover).NotTo(BeAnExistingFile())
	g.Expect(kept).To(BeARegularFile())
}
