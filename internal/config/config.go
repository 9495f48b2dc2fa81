// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultRetries is the default number of retries per HTTP request.
	DefaultRetries = 2

	// DefaultMaxConnsPerHost bounds the connections opened to one remote.
	DefaultMaxConnsPerHost = 4

	// DefaultUserAgent is the default User-Agent header.
	DefaultUserAgent = "conancache/1.0"

	// DefaultLockVersionConstraint accepts lockfiles with full references.
	DefaultLockVersionConstraint = ">= 0.4"
)

// Config is the conancache configuration file.
type Config struct {
	// CacheDir is the conan data directory, e.g. ~/.conan/data.
	// +optional
	CacheDir string `json:"cacheDir,omitempty"`

	// Remotes lists the known registries.
	// +optional
	Remotes []Remote `json:"remotes,omitempty"`

	// RemotesFile is a conan remotes.txt file whose entries are appended
	// to Remotes. Relative paths are resolved against the config file.
	// +optional
	RemotesFile string `json:"remotesFile,omitempty"`

	HTTP HTTPConfig `json:"http"`
	Sync SyncConfig `json:"sync"`
	Lock LockConfig `json:"lock"`
}

// Remote is a conan registry.
type Remote struct {
	Name string `json:"name"`
	URL  string `json:"url"`

	// VerifySSL defaults to true.
	// +optional
	VerifySSL *bool `json:"verifySSL,omitempty"`
}

// Verify reports whether TLS certificates are verified for the remote.
func (r Remote) Verify() bool {
	return r.VerifySSL == nil || *r.VerifySSL
}

// HTTPConfig holds the transport settings.
type HTTPConfig struct {
	Retries           int     `json:"retries"`
	MaxConnsPerHost   int     `json:"maxConnsPerHost"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	UserAgent         string  `json:"userAgent,omitempty"`
}

// SyncConfig holds the synchronization settings.
type SyncConfig struct {
	// Concurrency is the number of files of a scope synchronized in parallel.
	Concurrency int `json:"concurrency"`

	// InspectArchives enables manifest checks of files packed in archives.
	InspectArchives bool `json:"inspectArchives"`
}

// LockConfig holds the lockfile settings.
type LockConfig struct {
	// VersionConstraint is a semver range the lock version must match.
	VersionConstraint string `json:"versionConstraint,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Retries:         DefaultRetries,
			MaxConnsPerHost: DefaultMaxConnsPerHost,
			UserAgent:       DefaultUserAgent,
		},
		Sync: SyncConfig{
			Concurrency: 1,
		},
		Lock: LockConfig{
			VersionConstraint: DefaultLockVersionConstraint,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
// Unknown fields are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.RemotesFile != "" {
		remotesPath := cfg.RemotesFile
		if !filepath.IsAbs(remotesPath) {
			remotesPath = filepath.Join(filepath.Dir(path), remotesPath)
		}
		text, err := os.ReadFile(remotesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read remotes file: %w", err)
		}
		remotes, err := ParseRemotesText(string(text))
		if err != nil {
			return nil, fmt.Errorf("failed to parse remotes file %s: %w", remotesPath, err)
		}
		cfg.Remotes = append(cfg.Remotes, remotes...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	names := make(map[string]bool, len(c.Remotes))
	for i, r := range c.Remotes {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("remotes[%d]: name is required", i))
		} else if names[r.Name] {
			errs = append(errs, fmt.Errorf("remotes[%d]: duplicate name %q", i, r.Name))
		}
		names[r.Name] = true

		u, err := url.Parse(r.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("remotes[%d]: invalid URL %q, must be http(s)://host", i, r.URL))
		}
	}

	if c.HTTP.Retries < 0 {
		errs = append(errs, errors.New("http.retries must not be negative"))
	}
	if c.HTTP.MaxConnsPerHost < 0 {
		errs = append(errs, errors.New("http.maxConnsPerHost must not be negative"))
	}
	if c.HTTP.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("http.requestsPerSecond must not be negative"))
	}
	if c.Sync.Concurrency < 1 {
		errs = append(errs, errors.New("sync.concurrency must be at least 1"))
	}
	if c.Lock.VersionConstraint != "" {
		if _, err := semver.NewConstraint(c.Lock.VersionConstraint); err != nil {
			errs = append(errs, fmt.Errorf("lock.versionConstraint '%s' parse error: %w", c.Lock.VersionConstraint, err))
		}
	}

	return errors.Join(errs...)
}

// RemoteByURL returns the configured remote with the given base URL.
func (c *Config) RemoteByURL(rawURL string) (Remote, bool) {
	want := normalizeURL(rawURL)
	for _, r := range c.Remotes {
		if normalizeURL(r.URL) == want {
			return r, true
		}
	}
	return Remote{}, false
}

// InsecureHosts returns the host names of the remotes
// that skip TLS certificate verification.
func (c *Config) InsecureHosts() []string {
	var hosts []string
	for _, r := range c.Remotes {
		if r.Verify() {
			continue
		}
		if u, err := url.Parse(r.URL); err == nil && u.Hostname() != "" {
			hosts = append(hosts, u.Hostname())
		}
	}
	return hosts
}

func normalizeURL(s string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(s), "/"))
}
