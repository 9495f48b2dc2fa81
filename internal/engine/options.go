// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package engine

import (
	"strings"

	"github.com/go-logr/logr"

	"github.com/controlplaneio-fluxcd/conancache/internal/metrics"
)

// Options holds the run settings of the Engine.
type Options struct {
	// concurrency is the number of files of one scope synchronized in parallel.
	concurrency int

	// inspectArchives enables manifest checks of files packed in archives.
	inspectArchives bool

	// only restricts the run to nodes with these reference names.
	only []string

	// maxNodes bounds the number of processed nodes, 0 means unbounded.
	maxNodes int

	// remotes are the configured remote base URLs.
	remotes []string

	// strictRemotes rejects nodes resolved from unconfigured remotes.
	strictRemotes bool

	logger   logr.Logger
	recorder *metrics.Recorder
}

// Option is a functional option for configuring the Engine.
type Option func(*Options)

// WithConcurrency sets the number of files synchronized in parallel.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithInspectArchives enables manifest checks inside scope archives.
func WithInspectArchives(enabled bool) Option {
	return func(o *Options) {
		o.inspectArchives = enabled
	}
}

// WithOnly restricts the run to the given reference names.
func WithOnly(names ...string) Option {
	return func(o *Options) {
		o.only = append(o.only, names...)
	}
}

// WithMaxNodes bounds the number of processed nodes.
func WithMaxNodes(n int) Option {
	return func(o *Options) {
		o.maxNodes = n
	}
}

// WithRemotes sets the configured remote URLs. With strict set,
// nodes resolved from any other remote are rejected.
func WithRemotes(strict bool, urls ...string) Option {
	return func(o *Options) {
		o.strictRemotes = strict
		o.remotes = append(o.remotes, urls...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *Options) {
		o.recorder = r
	}
}

func (o *Options) knownRemote(rawURL string) bool {
	want := normalizeURL(rawURL)
	for _, u := range o.remotes {
		if normalizeURL(u) == want {
			return true
		}
	}
	return false
}

func normalizeURL(s string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(s), "/"))
}
