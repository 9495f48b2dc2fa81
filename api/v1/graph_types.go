// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package v1

import (
	"encoding/json"
	"fmt"
)

// Graph is the dependency graph produced by `conan info --json`.
// Node order is significant and is preserved by every consumer.
type Graph []GraphNode

// GraphNode is one entry of the dependency graph.
// Pseudo-nodes, such as the consumer conanfile, have IsRef set to false.
type GraphNode struct {
	// IsRef tells whether the node refers to a package reference.
	IsRef bool `json:"is_ref"`

	// Reference is the textual name/version[@user/channel] reference.
	Reference string `json:"reference"`

	// Revision is the recipe revision.
	Revision string `json:"revision,omitempty"`

	// ID is the binary package id computed for this build.
	ID string `json:"id,omitempty"`

	// PackageRevision is the binary package revision.
	PackageRevision string `json:"package_revision,omitempty"`

	// Binary is the availability of a prebuilt package
	// (Cache, Download, Missing, Build, Skip).
	Binary string `json:"binary,omitempty"`

	// Remote is the registry the recipe was resolved from.
	Remote *GraphRemote `json:"remote,omitempty"`

	License     StringList `json:"license,omitempty"`
	Homepage    string     `json:"homepage,omitempty"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
}

// GraphRemote is the remote registry descriptor of a graph node.
type GraphRemote struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// StringList decodes either a JSON string or an array of strings.
// Recipes may declare a single license or a tuple of licenses.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = StringList{s}
	return nil
}

// RefNodes returns the indexes of the nodes that refer to a package reference.
func (g Graph) RefNodes() []int {
	var idx []int
	for i := range g {
		if g[i].IsRef {
			idx = append(idx, i)
		}
	}
	return idx
}
