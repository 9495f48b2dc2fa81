// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package remote implements the HTTP transport to conan v2 registries:
// scope listings, metadata-only requests, body downloads and the ordered
// list of header sources a registry declares checksums with.
//
// Failures are reported as *StatusError or *NetworkError so that callers
// can tell transient transport problems apart from integrity failures.
package remote
