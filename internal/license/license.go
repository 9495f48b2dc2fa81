// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package license maps SPDX license identifiers declared by recipes
// to nixpkgs lib.licenses attributes.
package license

import (
	"strings"
)

// spdxToNix maps lowercase SPDX ids, including deprecated forms,
// to lib.licenses attribute names.
var spdxToNix = map[string]string{
	"0bsd":              "bsd0",
	"afl-2.1":           "afl21",
	"agpl-3.0":          "agpl3Only",
	"agpl-3.0-only":     "agpl3Only",
	"agpl-3.0-or-later": "agpl3Plus",
	"apache-2.0":        "asl20",
	"artistic-2.0":      "artistic2",
	"bsd-2-clause":      "bsd2",
	"bsd-3-clause":      "bsd3",
	"bsd-4-clause":      "bsdOriginal",
	"bsl-1.0":           "boost",
	"cc-by-4.0":         "cc-by-40",
	"cc0-1.0":           "cc0",
	"curl":              "curl",
	"epl-2.0":           "epl20",
	"ftl":               "ftl",
	"gpl-2.0":           "gpl2Only",
	"gpl-2.0-only":      "gpl2Only",
	"gpl-2.0-or-later":  "gpl2Plus",
	"gpl-3.0":           "gpl3Only",
	"gpl-3.0-only":      "gpl3Only",
	"gpl-3.0-or-later":  "gpl3Plus",
	"ijg":               "ijg",
	"isc":               "isc",
	"lgpl-2.0":          "lgpl2Only",
	"lgpl-2.0-only":     "lgpl2Only",
	"lgpl-2.0-or-later": "lgpl2Plus",
	"lgpl-2.1":          "lgpl21Only",
	"lgpl-2.1-only":     "lgpl21Only",
	"lgpl-2.1-or-later": "lgpl21Plus",
	"lgpl-3.0":          "lgpl3Only",
	"lgpl-3.0-only":     "lgpl3Only",
	"lgpl-3.0-or-later": "lgpl3Plus",
	"libpng":            "libpng",
	"libpng-2.0":        "libpng2",
	"libtiff":           "libtiff",
	"mit":               "mit",
	"mpl-1.1":           "mpl11",
	"mpl-2.0":           "mpl20",
	"ncsa":              "ncsa",
	"openssl":           "openssl",
	"postgresql":        "postgresql",
	"psf-2.0":           "psfl",
	"python-2.0":        "psfl",
	"unicode-dfs-2016":  "unicode-dfs-2016",
	"unlicense":         "unlicense",
	"vim":               "vim",
	"wtfpl":             "wtfpl",
	"x11":               "x11",
	"zlib":              "zlib",
	"zpl-2.1":           "zpl21",
}

// License is one declared license. Attr is set when the license is
// known to nixpkgs; otherwise only Name is.
type License struct {
	Name string
	Attr string
}

// Known reports whether the license maps to a lib.licenses attribute.
func (l License) Known() bool {
	return l.Attr != ""
}

// Lookup maps a single SPDX id.
func Lookup(id string) License {
	id = strings.TrimSpace(id)
	return License{Name: id, Attr: spdxToNix[strings.ToLower(id)]}
}

// Resolve maps the declared licenses in order, dropping empty and
// duplicate entries.
func Resolve(ids []string) []License {
	seen := make(map[string]bool, len(ids))
	out := make([]License, 0, len(ids))
	for _, id := range ids {
		l := Lookup(id)
		if l.Name == "" {
			continue
		}
		key := l.Attr
		if key == "" {
			key = l.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
