// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package remote

import (
	"time"

	"github.com/go-logr/logr"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "conancache/1.0"

// clientOptions holds the internal configuration for the Client.
type clientOptions struct {
	retries           int
	retryWaitMin      time.Duration
	retryWaitMax      time.Duration
	userAgent         string
	maxConnsPerHost   int
	requestsPerSecond float64
	insecureHosts     []string
	checksumSources   []ChecksumSource
	logger            logr.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// ClientOpt contains options for the NewClient function.
var ClientOpt clientOptionBuilder

// clientOptionBuilder is the internal builder for ClientOption functions.
type clientOptionBuilder struct{}

// WithRetries sets the number of retries for HTTP requests.
func (clientOptionBuilder) WithRetries(retries int) ClientOption {
	return func(opts *clientOptions) {
		opts.retries = retries
	}
}

// WithRetryWait sets the minimum and maximum backoff between retries.
func (clientOptionBuilder) WithRetryWait(minWait, maxWait time.Duration) ClientOption {
	return func(opts *clientOptions) {
		opts.retryWaitMin = minWait
		opts.retryWaitMax = maxWait
	}
}

// WithUserAgent sets the User-Agent header for HTTP requests.
func (clientOptionBuilder) WithUserAgent(userAgent string) ClientOption {
	return func(opts *clientOptions) {
		if userAgent != "" {
			opts.userAgent = userAgent
		}
	}
}

// WithMaxConnsPerHost bounds the number of connections per remote host.
// Zero means no limit.
func (clientOptionBuilder) WithMaxConnsPerHost(n int) ClientOption {
	return func(opts *clientOptions) {
		opts.maxConnsPerHost = n
	}
}

// WithRequestsPerSecond rate limits requests per remote host.
// Zero disables rate limiting.
func (clientOptionBuilder) WithRequestsPerSecond(rps float64) ClientOption {
	return func(opts *clientOptions) {
		opts.requestsPerSecond = rps
	}
}

// WithInsecureHosts skips TLS certificate verification for the given hosts.
func (clientOptionBuilder) WithInsecureHosts(hosts ...string) ClientOption {
	return func(opts *clientOptions) {
		opts.insecureHosts = append(opts.insecureHosts, hosts...)
	}
}

// WithChecksumSources replaces the ordered list of checksum header sources.
func (clientOptionBuilder) WithChecksumSources(sources ...ChecksumSource) ClientOption {
	return func(opts *clientOptions) {
		opts.checksumSources = sources
	}
}

// WithLogger sets the logger used for request retries.
func (clientOptionBuilder) WithLogger(logger logr.Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}
