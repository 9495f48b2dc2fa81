// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package source reads the graph and lock documents from a file,
// standard input or an HTTP(S) URL.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
)

// Stdin is the location denoting standard input.
const Stdin = "-"

// Fetcher downloads a remote document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Loader reads input documents.
type Loader struct {
	fetcher Fetcher
	stdin   io.Reader
}

// NewLoader returns a Loader. The fetcher is used for http(s)
// locations and stdin for "-".
func NewLoader(fetcher Fetcher, stdin io.Reader) *Loader {
	return &Loader{fetcher: fetcher, stdin: stdin}
}

// Read returns the raw document at location.
func (l *Loader) Read(ctx context.Context, location string) ([]byte, error) {
	switch {
	case location == "":
		return nil, errors.New("document location is required")
	case location == Stdin:
		if l.stdin == nil {
			return nil, errors.New("standard input is not available")
		}
		return io.ReadAll(l.stdin)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if l.fetcher == nil {
			return nil, fmt.Errorf("cannot fetch %s: no HTTP client", location)
		}
		return l.fetcher.Fetch(ctx, location)
	default:
		return os.ReadFile(location)
	}
}

// LoadGraph reads and decodes a `conan info --json` graph.
func (l *Loader) LoadGraph(ctx context.Context, location string) (apiv1.Graph, error) {
	data, err := l.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}

	var graph apiv1.Graph
	if err := decodeStrict(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to decode graph %s: %w", location, err)
	}
	if len(graph.RefNodes()) == 0 {
		return nil, fmt.Errorf("graph %s has no package references", location)
	}
	return graph, nil
}

// LoadLock reads and decodes a conan lockfile.
func (l *Loader) LoadLock(ctx context.Context, location string) (*apiv1.Lock, error) {
	data, err := l.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock: %w", err)
	}

	lock := &apiv1.Lock{}
	if err := json.Unmarshal(data, lock); err != nil {
		return nil, fmt.Errorf("failed to decode lock %s: %w", location, err)
	}
	if len(lock.GraphLock.Nodes) == 0 {
		return nil, fmt.Errorf("lock %s has no graph_lock nodes", location)
	}
	return lock, nil
}

// decodeStrict decodes a JSON document, rejecting trailing data.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after the JSON document")
	}
	return nil
}
