// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
	"github.com/controlplaneio-fluxcd/conancache/internal/descriptor"
)

func writeTestIndex(t *testing.T, path string, digest string) {
	t.Helper()
	idx := apiv1.NewIndex()
	idx.Nodes = append(idx.Nodes, apiv1.IndexNode{
		Reference:  "zlib/1.2.11",
		Revision:   "0",
		Binary:     "Cached",
		Path:       "zlib/1.2.11/_/_",
		TreeDigest: digest,
		Files:      []apiv1.IndexFile{},
	})
	if err := descriptor.WriteIndex(path, idx); err != nil {
		t.Fatal(err)
	}
}

func TestDiffIndexCmd(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.json")
	same := filepath.Join(dir, "same.json")
	changed := filepath.Join(dir, "changed.json")
	writeTestIndex(t, source, "h1:aaa=")
	writeTestIndex(t, same, "h1:aaa=")
	writeTestIndex(t, changed, "h1:bbb=")

	tests := []struct {
		name     string
		args     []string
		expected []string
		errMsg   string
	}{
		{
			name:     "identical",
			args:     []string{"diff", "index", source, same, "--exit-code"},
			expected: []string{"indexes are identical"},
		},
		{
			name:     "yaml patch",
			args:     []string{"diff", "index", source, changed},
			expected: []string{"op: replace", "path: /nodes/0/treeDigest", "h1:bbb="},
		},
		{
			name:     "json patch",
			args:     []string{"diff", "index", source, changed, "-o", "json-patch"},
			expected: []string{`"op": "replace"`, `"path": "/nodes/0/treeDigest"`},
		},
		{
			name:   "exit code",
			args:   []string{"diff", "index", source, changed, "--exit-code"},
			errMsg: "indexes differ by 1 operations",
		},
		{
			name:   "invalid format",
			args:   []string{"diff", "index", source, changed, "-o", "text"},
			errMsg: `unsupported output format "text"`,
		},
		{
			name:   "missing source",
			args:   []string{"diff", "index", filepath.Join(dir, "missing.json"), changed},
			errMsg: "reading source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			output, err := executeCommand(tt.args)
			if tt.errMsg != "" {
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(ContainSubstring(tt.errMsg))
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			for _, s := range tt.expected {
				g.Expect(output).To(ContainSubstring(s))
			}
		})
	}
}

func TestDiffIndexCmd_NotAnIndex(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	source := filepath.Join(dir, "source.json")
	g.Expect(os.WriteFile(source, []byte(`{"kind":"Other"}`), 0o644)).To(Succeed())
	writeTestIndex(t, filepath.Join(dir, "target.json"), "h1:aaa=")

	_, err := executeCommand([]string{"diff", "index", source, filepath.Join(dir, "target.json")})
	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring("is not a ConanCacheIndex document"))
}
