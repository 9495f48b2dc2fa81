// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package descriptor

import (
	"encoding/json"
	"fmt"
	"os"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
)

// IndexNode returns the run index entry of a descriptor.
func IndexNode(d *Descriptor) apiv1.IndexNode {
	n := apiv1.IndexNode{
		Reference:  d.Node.Ref.String(),
		Revision:   d.Node.RecipeRevision,
		Binary:     string(d.Node.Binary),
		Remote:     d.Node.Remote.URL,
		Path:       d.Node.Ref.Path(),
		TreeDigest: d.TreeDigest,
		Files:      make([]apiv1.IndexFile, 0, len(d.Files)),
	}
	if d.Node.HasPackage() {
		n.PackageID = d.Node.LocalPackageID()
		n.PackageRevision = d.Node.PackageRevision
	}

	for _, f := range d.Files {
		n.Files = append(n.Files, apiv1.IndexFile{
			Scope:   string(f.Scope),
			Name:    f.Name,
			URL:     f.URL,
			Subpath: f.Subpath,
			NixName: f.NixName,
			Size:    f.Size,
			SHA256:  f.Checksums.SHA256,
			MD5:     f.Checksums.MD5,
		})
	}
	return n
}

// WriteIndex writes the index as indented JSON.
func WriteIndex(path string, idx *apiv1.Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write index %s: %w", path, err)
	}
	return nil
}

// ReadIndex loads an index written by WriteIndex.
func ReadIndex(path string) (*apiv1.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", path, err)
	}

	idx := &apiv1.Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("failed to decode index %s: %w", path, err)
	}
	if idx.Kind != apiv1.IndexKind {
		return nil, fmt.Errorf("%s is not a %s document", path, apiv1.IndexKind)
	}
	return idx, nil
}
