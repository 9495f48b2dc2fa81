// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package conan

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Reference
		str      string
		path     string
		wantErr  bool
	}{
		{
			name:     "name and version",
			input:    "zlib/1.2.11",
			expected: Reference{Name: "zlib", Version: "1.2.11", User: Unset, Channel: Unset},
			str:      "zlib/1.2.11",
			path:     "zlib/1.2.11/_/_",
		},
		{
			name:     "with user and channel",
			input:    "libunwindstack/80a734f14@orbitdeps/stable",
			expected: Reference{Name: "libunwindstack", Version: "80a734f14", User: "orbitdeps", Channel: "stable"},
			str:      "libunwindstack/80a734f14@orbitdeps/stable",
			path:     "libunwindstack/80a734f14/orbitdeps/stable",
		},
		{
			name:    "missing version",
			input:   "zlib",
			wantErr: true,
		},
		{
			name:    "revision suffix is not part of a reference",
			input:   "zlib/1.2.11#abc",
			wantErr: true,
		},
		{
			name:    "user without channel",
			input:   "zlib/1.2.11@user",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			ref, err := ParseReference(tt.input)
			if tt.wantErr {
				g.Expect(err).To(HaveOccurred())
				g.Expect(errors.Is(err, ErrInvalidReference)).To(BeTrue())
				return
			}

			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(ref).To(Equal(tt.expected))
			g.Expect(ref.String()).To(Equal(tt.str))
			g.Expect(ref.Path()).To(Equal(tt.path))
		})
	}
}

func TestReference_FullRef(t *testing.T) {
	g := NewWithT(t)

	ref := MustParseReference("zlib/1.2.11")
	g.Expect(ref.FullRef("3f4d5a8d")).To(Equal("zlib/1.2.11#3f4d5a8d"))
}
