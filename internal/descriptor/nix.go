// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package descriptor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"github.com/controlplaneio-fluxcd/conancache/internal/license"
	"github.com/controlplaneio-fluxcd/conancache/internal/naming"
)

// DefaultNixFile is the default name of the single-file output.
const DefaultNixFile = "conancache.nix"

const nixArgs = "{ lib, stdenv, fetchurl, writeText }:"

var derivationTmpl = `stdenv.mkDerivation rec {
  pname = << nixStr .Node.Ref.Name >>;
  version = << nixStr .Version >>;
<<- range .Files >>
  << .NixName >> = fetchurl { url = << nixStr .URL >>; sha256 = << nixStr .Checksums.SHA256 >>; };
<<- end >>
  metadata-json = writeText "metadata.json" ''
<< .Metadata | toString | trimSuffix "\n" | nixIndented | indent 4 >>
  '';
  srcs = [ << range .Files >><< .NixName >> << end >>metadata-json ];
  dontUnpack = true;
  # path is relative to $CONAN_USER_HOME/.conan/data
  installPhase = ''
    path=<< .Node.Ref.Path | shQuote | nixIndented >>
<<- range .InstallDirs >>

    mkdir -p $out/$path/<< .Dir | shQuote | nixIndented >>
<<- range .Files >>
    cp ${<< .NixName >>} $out/$path/<< .Subpath | shQuote | nixIndented >>
<<- end >>
<<- end >>

    cp ${metadata-json} $out/$path/metadata.json
  '';
  passthru = {
    conanReference = << nixStr (.Node.FullRef) >>;
    treeDigest = << nixStr .TreeDigest >>;
  };
  meta = {
<<- with .Node.Description >>
    description = << nixStr . >>;
<<- end >>
<<- with .Node.Homepage >>
    homepage = << nixStr . >>;
<<- end >>
<<- with .Licenses >>
    license = << nixLicenses . >>;
<<- end >>
  };
}`

var shSafe = regexp.MustCompile(`^[A-Za-z0-9_.@%+=:,/-]+$`)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"nixStr":      nixString,
		"nixIndented": nixIndented,
		"nixLicenses": nixLicenses,
		"shQuote":     shQuote,
	}
}

// nixString renders s as a double-quoted nix string.
func nixString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"${", `\${`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return `"` + r.Replace(s) + `"`
}

// nixIndented escapes s for use inside an indented nix string.
func nixIndented(s string) string {
	r := strings.NewReplacer(
		"''", "'''",
		"${", "''${",
	)
	return r.Replace(s)
}

// shQuote single-quotes a shell word unless it is made of safe characters.
func shQuote(s string) string {
	if shSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// nixLicenses renders the licenses as a lib.licenses attribute, a
// string for unknown licenses, or a list when there are several.
func nixLicenses(licenses []license.License) string {
	terms := make([]string, 0, len(licenses))
	for _, l := range licenses {
		if l.Known() {
			terms = append(terms, "lib.licenses."+l.Attr)
		} else {
			terms = append(terms, nixString(l.Name))
		}
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return "[ " + strings.Join(terms, " ") + " ]"
}

// RenderDerivation renders the stdenv.mkDerivation expression of a node.
func RenderDerivation(d *Descriptor) (string, error) {
	tp, err := template.New("derivation").
		Delims("<<", ">>").
		Funcs(sprig.HermeticTxtFuncMap()).
		Funcs(funcMap()).
		Parse(derivationTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	b := &strings.Builder{}
	if err := tp.Execute(b, d); err != nil {
		return "", fmt.Errorf("failed to execute template for %s: %w", d.Node.Ref, err)
	}
	return b.String(), nil
}

// Render writes a single nix file holding one attribute per node,
// keyed by reference, in the given order.
func Render(w io.Writer, descriptors []*Descriptor) error {
	var buf bytes.Buffer
	buf.WriteString("# Generated by conancache. DO NOT EDIT.\n")
	buf.WriteString(nixArgs + "\n{\n")
	for _, d := range descriptors {
		drv, err := RenderDerivation(d)
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "  %s = %s;\n", nixString(d.Node.Ref.String()), indentTail(drv, "  "))
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// NixDirWriter writes one <slug>.nix file per node and a default.nix
// importing all of them.
type NixDirWriter struct {
	dir   string
	names *naming.Allocator
	files []nixDirEntry
}

type nixDirEntry struct {
	ref  string
	file string
}

// NewNixDirWriter creates the output directory.
func NewNixDirWriter(dir string) (*NixDirWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &NixDirWriter{dir: dir, names: naming.NewAllocator("default")}, nil
}

// Add writes the descriptor of a node and returns the file path.
func (w *NixDirWriter) Add(d *Descriptor) (string, error) {
	drv, err := RenderDerivation(d)
	if err != nil {
		return "", err
	}

	name, err := w.names.Allocate(slug.Make(d.Node.Ref.String()))
	if err != nil {
		return "", err
	}
	file := name + ".nix"

	content := "# Generated by conancache. DO NOT EDIT.\n" + nixArgs + "\n\n" + drv + "\n"
	p := filepath.Join(w.dir, file)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}

	w.files = append(w.files, nixDirEntry{ref: d.Node.Ref.String(), file: file})
	return p, nil
}

// Close writes default.nix.
func (w *NixDirWriter) Close() error {
	var buf bytes.Buffer
	buf.WriteString("# Generated by conancache. DO NOT EDIT.\n{ callPackage }:\n\n{\n")
	for _, e := range w.files {
		fmt.Fprintf(&buf, "  %s = callPackage ./%s { };\n", nixString(e.ref), e.file)
	}
	buf.WriteString("}\n")

	p := filepath.Join(w.dir, "default.nix")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// indentTail indents every line but the first.
func indentTail(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
