// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package descriptor

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

const pkgID = "6af9cc7cb931c5ad942174fd7838eb655717c709"

func testNode() *conan.Node {
	return &conan.Node{
		Ref:             conan.MustParseReference("zlib/1.2.11"),
		RecipeRevision:  "0",
		PackageID:       pkgID,
		PackageRevision: "0",
		Binary:          conan.BinaryCached,
		Remote:          conan.Remote{Name: "conan-center", URL: "https://conan.example.com"},
		License:         []string{"Zlib"},
		Homepage:        "https://zlib.net",
		Description:     `A "Massively Spiffy" library`,
		Lock:            conan.LockEntry{PackageID: pkgID},
	}
}

func verifiedFile(node *conan.Node, scope conan.Scope, name string) conan.LocalArtifactFile {
	layout := cache.Layout{Root: "/cache"}
	f, err := layout.File(node, scope, name, "https://conan.example.com/"+string(scope)+"/"+name)
	if err != nil {
		panic(err)
	}
	f.State = conan.StateVerified
	f.Checksums = conan.Checksums{
		MD5:    strings.Repeat("a", 32),
		SHA1:   strings.Repeat("b", 40),
		SHA256: strings.Repeat("c", 64),
	}
	f.Size = 42
	return f
}

func testFiles(node *conan.Node) []conan.LocalArtifactFile {
	return []conan.LocalArtifactFile{
		verifiedFile(node, conan.ScopeExport, "conan_export.tgz"),
		verifiedFile(node, conan.ScopeExport, "conanfile.py"),
		verifiedFile(node, conan.ScopeExport, "conanmanifest.txt"),
		verifiedFile(node, conan.ScopePackage, "conan_package.tgz"),
		verifiedFile(node, conan.ScopePackage, "conanmanifest.txt"),
	}
}

func TestBuild_Names(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	d, err := Build(node, testFiles(node), []byte("{}"), "h1:abc")
	g.Expect(err).NotTo(HaveOccurred())

	names := make([]string, 0, len(d.Files))
	for _, f := range d.Files {
		names = append(names, f.NixName)
	}
	g.Expect(names).To(Equal([]string{
		"conan_export-tgz",
		"conanfile-py",
		"conanmanifest-txt",
		"conan_package-tgz",
		"conanmanifest-txt-2",
	}))
	g.Expect(d.Licenses).To(HaveLen(1))
	g.Expect(d.Version()).To(Equal("1.2.11-0"))
}

func TestBuild_ReservedAndNumericNames(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	files := []conan.LocalArtifactFile{
		verifiedFile(node, conan.ScopeExport, "metadata.json"),
		verifiedFile(node, conan.ScopeExport, "7z.tgz"),
	}
	d, err := Build(node, files, nil, "")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.Files[0].NixName).To(Equal("metadata-json-2"))
	g.Expect(d.Files[1].NixName).To(Equal("_7z-tgz"))
}

func TestBuild_NamesAreNixIdentifiers(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	files := []conan.LocalArtifactFile{
		verifiedFile(node, conan.ScopeExport, "libc++ notes.txt"),
		verifiedFile(node, conan.ScopeExport, "été.txt"),
		verifiedFile(node, conan.ScopeExport, "+extra"),
	}
	d, err := Build(node, files, nil, "")
	g.Expect(err).NotTo(HaveOccurred())

	identifier := `^[A-Za-z_][A-Za-z0-9_'-]*$`
	for _, f := range d.Files {
		g.Expect(f.NixName).To(MatchRegexp(identifier), f.Name)
	}
	g.Expect(d.Files[0].NixName).To(Equal("libc---notes-txt"))
	g.Expect(d.Files[1].NixName).To(Equal("_-t--txt"))
	g.Expect(d.Files[2].NixName).To(Equal("_-extra"))
}

func TestBuild_RejectsUnverified(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	files := testFiles(node)
	files[2].State = conan.StateStale

	_, err := Build(node, files, nil, "")
	g.Expect(err).To(MatchError(ContainSubstring("conanmanifest.txt is not verified")))
}

func TestInstallDirs(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	d, err := Build(node, testFiles(node), nil, "")
	g.Expect(err).NotTo(HaveOccurred())

	dirs := d.InstallDirs()
	g.Expect(dirs).To(HaveLen(4))
	g.Expect(dirs[0].Dir).To(Equal("dl/export"))
	g.Expect(dirs[0].Files).To(HaveLen(1))
	g.Expect(dirs[1].Dir).To(Equal("export"))
	g.Expect(dirs[1].Files).To(HaveLen(2))
	g.Expect(dirs[2].Dir).To(Equal("dl/pkg/" + pkgID))
	g.Expect(dirs[3].Dir).To(Equal("package/" + pkgID))
	g.Expect(dirs[3].Files).To(HaveLen(1))

	node.Binary = conan.BinaryMissing
	g.Expect(d.InstallDirs()).To(HaveLen(2))
}

func TestRenderDerivation(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	d, err := Build(node, testFiles(node), []byte("{\n  \"x\": \"''${HOME}\"\n}\n"), "h1:abc=")
	g.Expect(err).NotTo(HaveOccurred())

	out, err := RenderDerivation(d)
	g.Expect(err).NotTo(HaveOccurred())

	sha := strings.Repeat("c", 64)
	g.Expect(out).To(HavePrefix("stdenv.mkDerivation rec {"))
	g.Expect(out).To(ContainSubstring(`pname = "zlib";`))
	g.Expect(out).To(ContainSubstring(`version = "1.2.11-0";`))
	g.Expect(out).To(ContainSubstring(`conanfile-py = fetchurl { url = "https://conan.example.com/export/conanfile.py"; sha256 = "` + sha + `"; };`))
	g.Expect(out).To(ContainSubstring("path=zlib/1.2.11/_/_\n"))
	g.Expect(out).To(ContainSubstring("mkdir -p $out/$path/dl/export\n"))
	g.Expect(out).To(ContainSubstring("cp ${conan_export-tgz} $out/$path/dl/export/conan_export.tgz\n"))
	g.Expect(out).To(ContainSubstring("cp ${conanmanifest-txt-2} $out/$path/package/" + pkgID + "/conanmanifest.txt\n"))
	g.Expect(out).To(ContainSubstring("cp ${conan_package-tgz} $out/$path/dl/pkg/" + pkgID + "/conan_package.tgz\n"))
	g.Expect(out).To(ContainSubstring("cp ${metadata-json} $out/$path/metadata.json"))
	g.Expect(out).To(ContainSubstring(`srcs = [ conan_export-tgz conanfile-py conanmanifest-txt conan_package-tgz conanmanifest-txt-2 metadata-json ];`))
	g.Expect(out).To(ContainSubstring(`    "x": "'''''${HOME}"`))
	g.Expect(out).To(ContainSubstring(`description = "A \"Massively Spiffy\" library";`))
	g.Expect(out).To(ContainSubstring(`license = lib.licenses.zlib;`))
	g.Expect(out).To(ContainSubstring(`treeDigest = "h1:abc=";`))
	g.Expect(out).To(ContainSubstring(`conanReference = "zlib/1.2.11#0";`))
	g.Expect(out).To(HaveSuffix("}"))
}

func TestRender(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	d, err := Build(node, testFiles(node), []byte("{}"), "h1:abc=")
	g.Expect(err).NotTo(HaveOccurred())

	var buf bytes.Buffer
	g.Expect(Render(&buf, []*Descriptor{d})).To(Succeed())

	out := buf.String()
	g.Expect(out).To(ContainSubstring("{ lib, stdenv, fetchurl, writeText }:\n{\n"))
	g.Expect(out).To(ContainSubstring(`  "zlib/1.2.11" = stdenv.mkDerivation rec {`))
	g.Expect(out).To(ContainSubstring("\n    pname = \"zlib\";\n"))
	g.Expect(out).To(HaveSuffix("  };\n}\n"))
}

func TestNixHelpers(t *testing.T) {
	g := NewWithT(t)

	g.Expect(nixString(`a"b\c${d}` + "\n")).To(Equal(`"a\"b\\c\${d}\n"`))
	g.Expect(nixIndented("x''y${z}")).To(Equal("x'''y''${z}"))
	g.Expect(shQuote("dl/pkg/abc/conan_package.tgz")).To(Equal("dl/pkg/abc/conan_package.tgz"))
	g.Expect(shQuote("my file's.txt")).To(Equal(`'my file'\''s.txt'`))
}

func TestNixDirWriter(t *testing.T) {
	g := NewWithT(t)

	dir := filepath.Join(t.TempDir(), "nix")
	w, err := NewNixDirWriter(dir)
	g.Expect(err).NotTo(HaveOccurred())

	node := testNode()
	d, err := Build(node, testFiles(node), []byte("{}"), "")
	g.Expect(err).NotTo(HaveOccurred())

	p, err := w.Add(d)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p).To(Equal(filepath.Join(dir, "zlib-1-2-11.nix")))

	p2, err := w.Add(d)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p2).To(Equal(filepath.Join(dir, "zlib-1-2-11-2.nix")))

	g.Expect(w.Close()).To(Succeed())

	data, err := os.ReadFile(filepath.Join(dir, "default.nix"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring(`"zlib/1.2.11" = callPackage ./zlib-1-2-11.nix { };`))

	drv, err := os.ReadFile(p)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(drv)).To(ContainSubstring("{ lib, stdenv, fetchurl, writeText }:\n\nstdenv.mkDerivation rec {"))
}

func TestGenerateMetadata(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	data, err := GenerateMetadata(node, testFiles(node))
	g.Expect(err).NotTo(HaveOccurred())

	var m map[string]any
	g.Expect(json.Unmarshal(data, &m)).To(Succeed())
	g.Expect(m).To(HaveKeyWithValue("recipe", HaveKeyWithValue("revision", "0")))
	g.Expect(m).To(HaveKeyWithValue("packages", HaveKey(pkgID)))
	g.Expect(string(data)).To(ContainSubstring(`"conan_export.tgz"`))
	g.Expect(string(data)).NotTo(ContainSubstring(`"conanfile.py"`))

	again, err := GenerateMetadata(node, testFiles(node))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(again).To(Equal(data))

	node.Binary = conan.BinaryMissing
	data, err = GenerateMetadata(node, testFiles(node)[:3])
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring(`"packages": {}`))
}

func TestIndex(t *testing.T) {
	g := NewWithT(t)

	node := testNode()
	d, err := Build(node, testFiles(node), nil, "h1:abc=")
	g.Expect(err).NotTo(HaveOccurred())

	idx := apiv1.NewIndex()
	idx.Nodes = append(idx.Nodes, IndexNode(d))

	p := filepath.Join(t.TempDir(), apiv1.IndexFileName)
	g.Expect(WriteIndex(p, idx)).To(Succeed())

	loaded, err := ReadIndex(p)
	g.Expect(err).NotTo(HaveOccurred())
	n, ok := loaded.FindNode("zlib/1.2.11")
	g.Expect(ok).To(BeTrue())
	g.Expect(n.PackageID).To(Equal(pkgID))
	g.Expect(n.Path).To(Equal("zlib/1.2.11/_/_"))
	g.Expect(n.Files).To(HaveLen(5))
	g.Expect(n.Files[4].NixName).To(Equal("conanmanifest-txt-2"))
	g.Expect(n.Files[4].Subpath).To(Equal("package/" + pkgID + "/conanmanifest.txt"))

	g.Expect(os.WriteFile(p, []byte(`{"kind":"Other"}`), 0o644)).To(Succeed())
	_, err = ReadIndex(p)
	g.Expect(err).To(MatchError(ContainSubstring("is not a ConanCacheIndex document")))
}
