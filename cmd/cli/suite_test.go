// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/controlplaneio-fluxcd/conancache/internal/descriptor"
	"github.com/controlplaneio-fluxcd/conancache/internal/testutils"
)

var timeout = 30 * time.Second

// executeCommand executes a CLI command with the given args and returns the output and error.
// This helper function can be reused across all CLI command tests.
func executeCommand(args []string) (string, error) {
	defer resetCmdArgs()

	// Capture output
	buf := new(bytes.Buffer)

	// Set up the command
	cmd := rootCmd
	cmd.SetArgs(args)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	// Execute command
	err := cmd.Execute()

	return buf.String(), err
}

// resetCmdArgs resets all command-specific flags to their default values.
// This should be called between tests to ensure clean state.
func resetCmdArgs() {
	rootArgs = rootFlags{timeout: timeout}
	logOptions.LogEncoding = "console"
	logOptions.LogLevel = "info"

	versionArgs = versionFlags{}
	syncArgs = syncFlags{output: descriptor.DefaultNixFile}
	verifyArgs = verifyFlags{}
	getFilesArgs = getFilesFlags{output: "table"}
	exportCacheArgs = exportCacheFlags{}
	diffIndexArgs = diffIndexFlags{output: "json-patch-yaml"}
}

// testEnv holds the inputs of a CLI run against a fake registry.
type testEnv struct {
	reg      *testutils.Registry
	dir      string
	cacheDir string
	graph    string
	lock     string
}

// newTestEnv publishes the fixtures and writes the graph and lock
// documents to a temporary directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reg := testutils.NewRegistry(t)
	testutils.Publish(reg)

	dir := t.TempDir()
	env := &testEnv{
		reg:      reg,
		dir:      dir,
		cacheDir: filepath.Join(dir, "data"),
		graph:    filepath.Join(dir, "graph.json"),
		lock:     filepath.Join(dir, "conan.lock"),
	}

	if err := os.WriteFile(env.graph, testutils.MarshalJSON(t, testutils.Graph(reg.URL())), 0o644); err != nil {
		t.Fatalf("failed to write graph: %v", err)
	}
	if err := os.WriteFile(env.lock, testutils.MarshalJSON(t, testutils.Lock()), 0o644); err != nil {
		t.Fatalf("failed to write lock: %v", err)
	}
	return env
}

// args returns the input and cache flags followed by extra.
func (e *testEnv) args(cmd []string, extra ...string) []string {
	args := append([]string{}, cmd...)
	args = append(args, "--graph", e.graph, "--lock", e.lock, "--cache-dir", e.cacheDir)
	return append(args, extra...)
}

func TestMain(m *testing.M) {
	resetCmdArgs()
	os.Exit(m.Run())
}
