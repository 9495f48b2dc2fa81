// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/descriptor"
	"github.com/controlplaneio-fluxcd/conancache/internal/manifest"
	"github.com/controlplaneio-fluxcd/conancache/internal/metrics"
	"github.com/controlplaneio-fluxcd/conancache/internal/resolver"
)

// ErrUnknownRemote is returned in strict mode for nodes resolved from
// a remote missing in the configuration.
var ErrUnknownRemote = errors.New("remote is not configured")

// Client is the registry transport used by the Engine.
type Client interface {
	resolver.Lister
	cache.Remote
	manifest.Fetcher
}

// Engine synchronizes and verifies the cache artifacts of reconciled nodes.
type Engine struct {
	layout    cache.Layout
	resolver  *resolver.Resolver
	syncer    *cache.Synchronizer
	manifests *manifest.Loader
	checker   *manifest.Checker
	recorder  *metrics.Recorder
	logger    logr.Logger
	opts      Options
}

// New returns an Engine writing to the given cache layout.
func New(client Client, layout cache.Layout, opts ...Option) *Engine {
	options := Options{
		concurrency: 1,
		logger:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.recorder == nil {
		options.recorder = metrics.NewRecorder()
	}

	return &Engine{
		layout:    layout,
		resolver:  resolver.New(client, layout, options.logger),
		syncer:    cache.NewSynchronizer(client, options.logger),
		manifests: manifest.NewLoader(client, layout),
		checker:   manifest.NewChecker(options.logger, options.inspectArchives),
		recorder:  options.recorder,
		logger:    options.logger,
		opts:      options,
	}
}

// Recorder returns the metrics recorder of the Engine.
func (e *Engine) Recorder() *metrics.Recorder {
	return e.recorder
}

// Select applies the node filters in graph order and checks the
// node remotes in strict mode.
func (e *Engine) Select(nodes []conan.Node) ([]conan.Node, error) {
	selected := make([]conan.Node, 0, len(nodes))
	for _, n := range nodes {
		if len(e.opts.only) > 0 && !slices.Contains(e.opts.only, n.Ref.Name) {
			continue
		}
		if e.opts.maxNodes > 0 && len(selected) == e.opts.maxNodes {
			break
		}
		if e.opts.strictRemotes && len(e.opts.remotes) > 0 && !e.opts.knownRemote(n.Remote.URL) {
			return nil, fmt.Errorf("%s: %w: %s", n.Ref, ErrUnknownRemote, n.Remote.URL)
		}
		selected = append(selected, n)
	}
	return selected, nil
}

// Run synchronizes the selected nodes one at a time in graph order and
// passes each descriptor to emit. The first error aborts the run and no
// descriptor is emitted for the failed node or any later node.
func (e *Engine) Run(ctx context.Context, nodes []conan.Node, emit func(*descriptor.Descriptor) error) error {
	selected, err := e.Select(nodes)
	if err != nil {
		return err
	}

	for i := range selected {
		node := &selected[i]
		d, err := e.SyncNode(ctx, node)
		e.recorder.RecordNode(err)
		if err != nil {
			return err
		}
		if err := emit(d); err != nil {
			return fmt.Errorf("%s: %w", node.Ref, err)
		}
	}
	return nil
}

// SyncNode brings every file of the node to the Verified state,
// cross-checks the scope manifests and builds the node descriptor.
func (e *Engine) SyncNode(ctx context.Context, node *conan.Node) (*descriptor.Descriptor, error) {
	log := e.logger.WithValues("ref", node.Ref.String())
	log.Info("synchronizing", "revision", node.RecipeRevision, "binary", node.Binary, "remote", node.Remote.Name)

	removed, err := e.layout.RemoveTempFiles(node.Ref)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		log.V(1).Info("removed leftover temporary files", "count", removed)
	}

	var files []conan.LocalArtifactFile
	for _, scope := range node.Scopes() {
		listed, err := e.resolver.Resolve(ctx, node, scope)
		if err != nil {
			return nil, err
		}

		synced, err := e.forEachFile(ctx, listed, e.syncer.Sync)
		if err != nil {
			return nil, err
		}
		for _, f := range synced {
			e.recorder.RecordFile(f)
		}

		e.checkManifest(ctx, node, scope, synced)
		files = append(files, synced...)
	}

	metadata, err := e.metadata(node, files)
	if err != nil {
		return nil, err
	}

	subpaths := make([]string, 0, len(files))
	for _, f := range files {
		subpaths = append(subpaths, f.Subpath)
	}
	treeDigest, err := cache.TreeDigest(e.layout.ReferenceDir(node.Ref), subpaths)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to compute tree digest: %w", node.Ref, err)
	}

	d, err := descriptor.Build(node, files, metadata, treeDigest)
	if err != nil {
		return nil, err
	}

	log.Info("synchronized", "files", len(files), "digest", treeDigest)
	return d, nil
}

// ResolveNode lists the files of every scope of the node without
// touching the cache.
func (e *Engine) ResolveNode(ctx context.Context, node *conan.Node) ([]conan.LocalArtifactFile, error) {
	var files []conan.LocalArtifactFile
	for _, scope := range node.Scopes() {
		listed, err := e.resolver.Resolve(ctx, node, scope)
		if err != nil {
			return nil, err
		}
		files = append(files, listed...)
	}
	return files, nil
}

// VerifyNode reports the cache state of every file of the node
// without downloading any content.
func (e *Engine) VerifyNode(ctx context.Context, node *conan.Node) ([]conan.LocalArtifactFile, error) {
	listed, err := e.ResolveNode(ctx, node)
	if err != nil {
		return nil, err
	}

	assessed, err := e.forEachFile(ctx, listed, e.syncer.Assess)
	if err != nil {
		return nil, err
	}
	for _, f := range assessed {
		e.recorder.RecordAssessment(f.State)
	}
	return assessed, nil
}

// forEachFile applies fn to the files with bounded parallelism.
// Results keep the input order.
func (e *Engine) forEachFile(ctx context.Context, files []conan.LocalArtifactFile,
	fn func(context.Context, conan.LocalArtifactFile) (conan.LocalArtifactFile, error)) ([]conan.LocalArtifactFile, error) {
	results := make([]conan.LocalArtifactFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.concurrency)
	for i, f := range files {
		g.Go(func() error {
			res, err := fn(gctx, f)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkManifest cross-checks the synchronized files of a scope.
// A missing or malformed manifest is reported and skipped.
func (e *Engine) checkManifest(ctx context.Context, node *conan.Node, scope conan.Scope, files []conan.LocalArtifactFile) {
	m, err := e.manifests.Load(ctx, node, scope)
	if err != nil {
		e.logger.Info("manifest check skipped", "severity", "warning",
			"ref", node.Ref.String(), "scope", scope, "error", err.Error())
		return
	}

	report := e.checker.Check(node.Ref, scope, m, files)
	for _, o := range []manifest.Outcome{manifest.OutcomePass, manifest.OutcomeFail, manifest.OutcomeSkip} {
		e.recorder.RecordManifest(string(o), report.Count(o))
	}
}

// metadata returns the metadata.json of the reference from the local
// cache or generates one from the node.
func (e *Engine) metadata(node *conan.Node, files []conan.LocalArtifactFile) ([]byte, error) {
	data, err := os.ReadFile(e.layout.MetadataPath(node.Ref))
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, os.ErrNotExist):
		return descriptor.GenerateMetadata(node, files)
	default:
		return nil, fmt.Errorf("%s: failed to read metadata: %w", node.Ref, err)
	}
}
