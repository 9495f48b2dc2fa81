// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package engine drives a synchronization run: nodes are processed one
// at a time in graph order, export before package, and every file of a
// scope is resolved, synchronized and cross-checked against the scope
// manifest before the node descriptor is built.
package engine
