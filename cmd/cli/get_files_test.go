// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/testutils"
)

func mustRef(s string) conan.Reference {
	return conan.MustParseReference(s)
}

func TestGetFilesCmd(t *testing.T) {
	g := NewWithT(t)
	env := newTestEnv(t)

	output, err := executeCommand(env.args([]string{"get", "files"}))
	g.Expect(err).ToNot(HaveOccurred(), output)
	g.Expect(output).To(ContainSubstring("REFERENCE"))
	g.Expect(output).To(ContainSubstring("conan_export.tgz"))
	g.Expect(output).To(ContainSubstring(filepath.Join("zlib", "1.2.11", "_", "_", "dl", "export", "conan_export.tgz")))
	g.Expect(output).To(ContainSubstring(filepath.Join("bzip2", "1.0.8", "conan", "stable", "export", "conanfile.py")))

	// resolution does not download
	g.Expect(env.reg.Requests("GET", ".tgz")).To(BeZero())
	g.Expect(filepath.Join(env.cacheDir, "zlib")).ToNot(BeAnExistingFile())
}

func TestGetFilesCmd_JSON(t *testing.T) {
	g := NewWithT(t)
	env := newTestEnv(t)

	output, err := executeCommand(env.args([]string{"get", "files"},
		"--only", "zlib", "--scope", "package", "--output", "json", "--log-level", "error"))
	g.Expect(err).ToNot(HaveOccurred(), output)

	var entries []fileEntry
	g.Expect(json.Unmarshal([]byte(output), &entries)).To(Succeed())
	g.Expect(entries).To(HaveLen(3))
	for _, e := range entries {
		g.Expect(e.Reference).To(Equal("zlib/1.2.11"))
		g.Expect(e.Scope).To(Equal("package"))
	}
	g.Expect(entries[0].Name).To(Equal("conan_package.tgz"))
	g.Expect(entries[0].Archive).To(BeTrue())
	g.Expect(entries[0].URL).To(HavePrefix(env.reg.URL() +
		testutils.PackagePath(mustRef("zlib/1.2.11"), "0", testutils.ZlibPackageID, "0")))
}

func TestGetFilesCmd_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name:   "invalid scope",
			args:   env.args([]string{"get", "files"}, "--scope", "recipe"),
			errMsg: `unknown scope "recipe"`,
		},
		{
			name:   "invalid output",
			args:   env.args([]string{"get", "files"}, "--output", "xml"),
			errMsg: `unsupported output format "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			_, err := executeCommand(tt.args)
			g.Expect(err).To(HaveOccurred())
			g.Expect(err.Error()).To(ContainSubstring(tt.errMsg))
		})
	}
}
