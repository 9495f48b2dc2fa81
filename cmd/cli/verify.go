// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/engine"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the cache state of every dependency file without downloading",
	Long: `The verify command checks the remote for every file of every dependency
and compares the declared size and checksums with the local cache.
Files are reported as Absent, Stale or Verified. No content is downloaded.

The command fails when any file is not Verified.`,
	Example: `  # Verify the local cache against the remotes
  conancache verify --graph graph.json --lock conan.lock

  # Verify a single dependency with debug logs
  conancache verify --graph graph.json --lock conan.lock --only zlib --log-level debug`,
	Args: cobra.NoArgs,
	RunE: verifyCmdRun,
}

type verifyFlags struct {
	inputFlags
	only        []string
	metricsFile string
}

var verifyArgs verifyFlags

func init() {
	verifyCmd.Flags().StringVar(&verifyArgs.graph, "graph", "",
		"Path or URL of the conan graph JSON document, '-' reads from stdin.")
	verifyCmd.Flags().StringVar(&verifyArgs.lock, "lock", "",
		"Path or URL of the conan lockfile, '-' reads from stdin.")
	verifyCmd.Flags().StringSliceVar(&verifyArgs.only, "only", nil,
		"Restrict the check to the given reference names.")
	verifyCmd.Flags().StringVar(&verifyArgs.metricsFile, "metrics-file", "",
		"Path of the Prometheus textfile to write the check counters to.")
	rootCmd.AddCommand(verifyCmd)
}

func verifyCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	s, err := newSession()
	if err != nil {
		return err
	}

	nodes, err := s.loadNodes(ctx, verifyArgs.inputFlags)
	if err != nil {
		return err
	}

	e := s.engine(engine.WithOnly(verifyArgs.only...))
	selected, err := e.Select(nodes)
	if err != nil {
		return err
	}

	var rows [][]string
	unverified := 0
	for i := range selected {
		files, err := e.VerifyNode(ctx, &selected[i])
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.State != conan.StateVerified {
				unverified++
			}
			rows = append(rows, []string{f.Ref.String(), string(f.Scope), f.Name, string(f.State)})
		}
	}

	if verifyArgs.metricsFile != "" {
		if err := e.Recorder().WriteTextfile(verifyArgs.metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}

	printTable(rootCmd.OutOrStdout(), []string{"reference", "scope", "file", "state"}, rows)

	if unverified > 0 {
		return fmt.Errorf("%d of %d files are not verified", unverified, len(rows))
	}
	return nil
}
