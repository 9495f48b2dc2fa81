// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

// Client talks to conan v2 registries.
type Client struct {
	secure        *retryablehttp.Client
	insecure      *retryablehttp.Client
	insecureHosts map[string]bool
	userAgent     string
	sources       []ChecksumSource
}

// NewClient returns a registry client with retries, a pooled transport
// bounded per host and an optional per-host rate limit.
func NewClient(opts ...ClientOption) *Client {
	// Configure default options.
	options := &clientOptions{
		retries:         2,
		retryWaitMin:    2 * time.Second,
		retryWaitMax:    5 * time.Second,
		userAgent:       DefaultUserAgent,
		checksumSources: DefaultChecksumSources,
		logger:          logr.Discard(),
	}

	// Apply user-provided options.
	for _, opt := range opts {
		opt(options)
	}

	c := &Client{
		secure:        newRetryClient(options, false),
		insecureHosts: make(map[string]bool, len(options.insecureHosts)),
		userAgent:     options.userAgent,
		sources:       options.checksumSources,
	}
	for _, h := range options.insecureHosts {
		c.insecureHosts[strings.ToLower(h)] = true
	}
	if len(c.insecureHosts) > 0 {
		c.insecure = newRetryClient(options, true)
	}
	return c
}

func newRetryClient(options *clientOptions, insecure bool) *retryablehttp.Client {
	var transport http.RoundTripper = newTransport(options.maxConnsPerHost, insecure)
	if options.requestsPerSecond > 0 {
		transport = newRateLimitedTransport(transport, options.requestsPerSecond)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = options.retries
	retryClient.RetryWaitMin = options.retryWaitMin
	retryClient.RetryWaitMax = options.retryWaitMax
	retryClient.HTTPClient = &http.Client{Transport: transport}
	retryClient.Logger = leveledLogger{log: options.logger}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return retryClient
}

// Metadata is the outcome of a metadata-only request.
type Metadata struct {
	URL string

	// ContentLength is the declared body size, -1 when unknown.
	ContentLength int64

	ContentType string
	Checksums   Declared
}

// Download is an open response body with its declared metadata.
// The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	ContentLength int64
	ContentType   string
	Checksums     Declared
}

// Head issues a HEAD request and returns the declared size and checksums.
func (c *Client) Head(ctx context.Context, rawURL string) (*Metadata, error) {
	resp, err := c.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return &Metadata{
		URL:           rawURL,
		ContentLength: contentLength(resp),
		ContentType:   resp.Header.Get("Content-Type"),
		Checksums:     ResolveChecksums(resp.Header, c.sources),
	}, nil
}

// Get issues a GET request and returns the open body.
func (c *Client) Get(ctx context.Context, rawURL string) (*Download, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}

	return &Download{
		Body:          resp.Body,
		ContentLength: contentLength(resp),
		ContentType:   resp.Header.Get("Content-Type"),
		Checksums:     ResolveChecksums(resp.Header, c.sources),
	}, nil
}

// Fetch performs a GET request and returns the whole body.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: http.MethodGet, URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if len(body) == 0 {
		return nil, errors.New("response body is empty")
	}

	return body, nil
}

// ListingEntry is one file name of a scope listing.
type ListingEntry struct {
	Name string

	// Nested is set when the entry carries contents
	// instead of the empty object of a plain file.
	Nested bool
}

// Listing is the decoded `files` document of a scope.
type Listing struct {
	URL     string
	Entries []ListingEntry
}

// List fetches a scope listing of the form {"files": {"<name>": {}}}.
// Entries are sorted by name.
func (c *Client) List(ctx context.Context, rawURL string) (*Listing, error) {
	body, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return ParseListing(rawURL, body)
}

// ParseListing decodes a scope listing document.
func ParseListing(rawURL string, body []byte) (*Listing, error) {
	var doc struct {
		Files map[string]json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrInvalidListing, rawURL, err)
	}
	if doc.Files == nil {
		return nil, fmt.Errorf("%w from %s: files object is missing", ErrInvalidListing, rawURL)
	}

	listing := &Listing{URL: rawURL, Entries: make([]ListingEntry, 0, len(doc.Files))}
	for name, raw := range doc.Files {
		var contents map[string]json.RawMessage
		nested := json.Unmarshal(raw, &contents) != nil || len(contents) > 0
		listing.Entries = append(listing.Entries, ListingEntry{Name: name, Nested: nested})
	}
	sort.Slice(listing.Entries, func(i, j int) bool {
		return listing.Entries[i].Name < listing.Entries[j].Name
	})

	return listing, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	client := c.secure
	if c.insecure != nil && c.insecureHosts[strings.ToLower(parsedURL.Hostname())] {
		client = c.insecure
	}

	// Exhausted retries pass the last response through,
	// so server errors surface with their status code.
	resp, err := client.Do(req)
	if err != nil && resp == nil {
		return nil, &NetworkError{Method: method, URL: rawURL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &StatusError{Method: method, URL: rawURL, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

func contentLength(resp *http.Response) int64 {
	if resp.ContentLength >= 0 {
		return resp.ContentLength
	}
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return -1
}
