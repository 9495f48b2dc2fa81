// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// File states recorded by the files counter.
const (
	StateVerifiedReused = "verified_reused"
	StateDownloaded     = "downloaded"
	StateRedownloaded   = "redownloaded"
)

// Node results recorded by the nodes counter.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
)

// Recorder holds the counters of one run in a dedicated registry.
type Recorder struct {
	registry *prometheus.Registry

	files    *prometheus.CounterVec
	assessed *prometheus.CounterVec
	manifest *prometheus.CounterVec
	nodes    *prometheus.CounterVec
	bytes    prometheus.Counter
}

// NewRecorder creates a Recorder and registers its collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conancache_files_total",
				Help: "The number of synchronized files by resulting state.",
			},
			[]string{"state"},
		),
		assessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conancache_files_assessed_total",
				Help: "The number of assessed files by cache state.",
			},
			[]string{"state"},
		),
		manifest: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conancache_manifest_entries_total",
				Help: "The number of manifest entries checked by outcome.",
			},
			[]string{"outcome"},
		),
		nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conancache_nodes_total",
				Help: "The number of processed dependency nodes by result.",
			},
			[]string{"result"},
		),
		bytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "conancache_bytes_downloaded_total",
				Help: "The number of bytes written to the cache from remotes.",
			},
		),
	}
	r.registry.MustRegister(r.files, r.assessed, r.manifest, r.nodes, r.bytes)
	return r
}

// Registry returns the registry holding the run counters.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordFile counts a synchronized file and the bytes it downloaded.
func (r *Recorder) RecordFile(f conan.LocalArtifactFile) {
	switch f.Action {
	case conan.ActionReused:
		r.files.WithLabelValues(StateVerifiedReused).Inc()
	case conan.ActionDownloaded:
		r.files.WithLabelValues(StateDownloaded).Inc()
		r.bytes.Add(float64(f.Size))
	case conan.ActionRedownloaded:
		r.files.WithLabelValues(StateRedownloaded).Inc()
		r.bytes.Add(float64(f.Size))
	}
}

// RecordAssessment counts an assessed file by its cache state.
func (r *Recorder) RecordAssessment(state conan.CacheState) {
	r.assessed.WithLabelValues(string(state)).Inc()
}

// RecordManifest counts n manifest entries with the given outcome.
func (r *Recorder) RecordManifest(outcome string, n int) {
	if n > 0 {
		r.manifest.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordNode counts a processed node.
func (r *Recorder) RecordNode(err error) {
	if err != nil {
		r.nodes.WithLabelValues(ResultFailed).Inc()
		return
	}
	r.nodes.WithLabelValues(ResultSucceeded).Inc()
}

// WriteTextfile writes the counters in the Prometheus text format,
// for collection by the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
