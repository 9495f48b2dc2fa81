// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/config"
	"github.com/controlplaneio-fluxcd/conancache/internal/engine"
	"github.com/controlplaneio-fluxcd/conancache/internal/logger"
	"github.com/controlplaneio-fluxcd/conancache/internal/reconciler"
	"github.com/controlplaneio-fluxcd/conancache/internal/remote"
	"github.com/controlplaneio-fluxcd/conancache/internal/source"
)

// loadConfig reads the --config file or returns the defaults.
func loadConfig() (*config.Config, error) {
	if rootArgs.configFile == "" {
		return config.Default(), nil
	}
	return config.Load(rootArgs.configFile)
}

// newLogger builds the run logger writing to stderr,
// tagged with a unique run id.
func newLogger() (logr.Logger, error) {
	log, err := logger.NewLogger(logOptions, rootCmd.ErrOrStderr())
	if err != nil {
		return log, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return log.WithValues("run", id.String()), nil
}

// newCacheLayout resolves the cache root from the flags, the config
// and the conan environment, in this order.
func newCacheLayout(cfg *config.Config) (cache.Layout, error) {
	root := rootArgs.cacheDir
	if root == "" {
		root = cfg.CacheDir
	}
	if root == "" {
		root = cache.DefaultRoot()
	}
	return cache.NewLayout(root)
}

// newRemoteClient creates a registry client from the config HTTP settings.
func newRemoteClient(cfg *config.Config, log logr.Logger) *remote.Client {
	return remote.NewClient(
		remote.ClientOpt.WithRetries(cfg.HTTP.Retries),
		remote.ClientOpt.WithUserAgent(cfg.HTTP.UserAgent),
		remote.ClientOpt.WithMaxConnsPerHost(cfg.HTTP.MaxConnsPerHost),
		remote.ClientOpt.WithRequestsPerSecond(cfg.HTTP.RequestsPerSecond),
		remote.ClientOpt.WithInsecureHosts(cfg.InsecureHosts()...),
		remote.ClientOpt.WithLogger(log),
	)
}

// session holds the collaborators shared by the run commands.
type session struct {
	cfg    *config.Config
	log    logr.Logger
	layout cache.Layout
	client *remote.Client
}

func newSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger()
	if err != nil {
		return nil, err
	}

	layout, err := newCacheLayout(cfg)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		log:    log,
		layout: layout,
		client: newRemoteClient(cfg, log),
	}, nil
}

// engine returns a run engine with the config sync settings
// and the given overrides.
func (s *session) engine(opts ...engine.Option) *engine.Engine {
	remotes := make([]string, 0, len(s.cfg.Remotes))
	for _, r := range s.cfg.Remotes {
		remotes = append(remotes, r.URL)
	}

	base := []engine.Option{
		engine.WithLogger(s.log),
		engine.WithConcurrency(s.cfg.Sync.Concurrency),
		engine.WithInspectArchives(s.cfg.Sync.InspectArchives),
		engine.WithRemotes(false, remotes...),
	}
	return engine.New(s.client, s.layout, append(base, opts...)...)
}

type inputFlags struct {
	graph string
	lock  string
}

// loadNodes reads the graph and lock documents and reconciles them.
func (s *session) loadNodes(ctx context.Context, in inputFlags) ([]conan.Node, error) {
	if in.graph == "" || in.lock == "" {
		return nil, fmt.Errorf("both --graph and --lock are required")
	}
	if in.graph == source.Stdin && in.lock == source.Stdin {
		return nil, fmt.Errorf("only one of --graph and --lock can be read from stdin")
	}

	loader := source.NewLoader(s.client, rootCmd.InOrStdin())

	graph, err := loader.LoadGraph(ctx, in.graph)
	if err != nil {
		return nil, err
	}

	lock, err := loader.LoadLock(ctx, in.lock)
	if err != nil {
		return nil, err
	}

	if err := reconciler.CheckLockVersion(lock, s.cfg.Lock.VersionConstraint); err != nil {
		return nil, err
	}

	nodes, err := reconciler.Reconcile(graph, lock, reconciler.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		if r, ok := s.cfg.RemoteByURL(n.Remote.URL); ok {
			s.log.V(1).Info("node remote", "ref", n.Ref.String(), "remote", r.Name, "verifySSL", r.Verify())
		}
	}
	return nodes, nil
}
