// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		id   string
		attr string
	}{
		{"MIT", "mit"},
		{"Zlib", "zlib"},
		{"Apache-2.0", "asl20"},
		{"BSL-1.0", "boost"},
		{" LGPL-2.1 ", "lgpl21Only"},
		{"GPL-3.0-or-later", "gpl3Plus"},
		{"bzip2-1.0.8", ""},
		{"LicenseRef-Proprietary", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			g := NewWithT(t)
			l := Lookup(tt.id)
			g.Expect(l.Attr).To(Equal(tt.attr))
			g.Expect(l.Known()).To(Equal(tt.attr != ""))
		})
	}
}

func TestResolve(t *testing.T) {
	g := NewWithT(t)

	licenses := Resolve([]string{"MIT", "", "mit", "Custom", "Zlib", "Custom"})
	g.Expect(licenses).To(Equal([]License{
		{Name: "MIT", Attr: "mit"},
		{Name: "Custom"},
		{Name: "Zlib", Attr: "zlib"},
	}))

	g.Expect(Resolve(nil)).To(BeEmpty())
}
