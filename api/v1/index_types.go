// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package v1

const (
	// IndexKind is the kind of the run index document.
	IndexKind = "ConanCacheIndex"

	// IndexAPIVersion is the API version of the run index document.
	IndexAPIVersion = "conancache.controlplane.io/v1"

	// IndexFileName is the default file name of the run index.
	IndexFileName = "conancache.json"
)

// Index records the outcome of a synchronization run:
// every emitted node with its verified files.
type Index struct {
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`

	// Nodes are listed in graph order.
	Nodes []IndexNode `json:"nodes"`
}

// IndexNode is one synchronized dependency.
type IndexNode struct {
	Reference       string `json:"reference"`
	Revision        string `json:"revision"`
	PackageID       string `json:"packageID,omitempty"`
	PackageRevision string `json:"packageRevision,omitempty"`
	Binary          string `json:"binary"`
	Remote          string `json:"remote"`

	// Path is the reference directory relative to the cache root,
	// name/version/user/channel.
	Path string `json:"path"`

	// TreeDigest is the dirhash h1: digest of the synchronized files.
	TreeDigest string `json:"treeDigest"`

	Files []IndexFile `json:"files"`
}

// IndexFile is one verified artifact file.
type IndexFile struct {
	Scope   string `json:"scope"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Subpath string `json:"subpath"`
	NixName string `json:"nixName"`
	Size    int64  `json:"size"`
	SHA256  string `json:"sha256"`
	MD5     string `json:"md5"`
}

// NewIndex returns an empty index with type metadata set.
func NewIndex() *Index {
	return &Index{
		APIVersion: IndexAPIVersion,
		Kind:       IndexKind,
		Nodes:      []IndexNode{},
	}
}

// FindNode returns the node with the given reference.
func (i *Index) FindNode(reference string) (*IndexNode, bool) {
	for n := range i.Nodes {
		if i.Nodes[n].Reference == reference {
			return &i.Nodes[n], true
		}
	}
	return nil, false
}
