// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/descriptor"
	"github.com/controlplaneio-fluxcd/conancache/internal/engine"
	"github.com/controlplaneio-fluxcd/conancache/internal/source"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the cache and emit the build descriptors",
	Long: `The sync command reconciles the dependency graph with the lockfile,
brings every export and package file of each dependency to a verified
state in the local conan cache and writes one nix derivation per dependency.

Dependencies are processed in graph order. The first integrity or network
failure aborts the run and no descriptor is written for the failed dependency.`,
	Example: `  # Synchronize the cache and write conancache.nix
  conan info . --json graph.json
  conancache sync --graph graph.json --lock conan.lock

  # Write one file per dependency plus default.nix
  conancache sync --graph graph.json --lock conan.lock --output-dir ./nix

  # Read the graph from stdin and record a run index and metrics
  conan info . --json | conancache sync --graph - --lock conan.lock \
    --index conancache.json --metrics-file conancache.prom

  # Synchronize only zlib
  conancache sync --graph graph.json --lock conan.lock --only zlib`,
	Args: cobra.NoArgs,
	RunE: syncCmdRun,
}

type syncFlags struct {
	inputFlags
	output        string
	outputDir     string
	index         string
	metricsFile   string
	only          []string
	maxNodes      int
	strictRemotes bool
}

var syncArgs = syncFlags{
	output: descriptor.DefaultNixFile,
}

func init() {
	syncCmd.Flags().StringVar(&syncArgs.graph, "graph", "",
		"Path or URL of the conan graph JSON document, '-' reads from stdin.")
	syncCmd.Flags().StringVar(&syncArgs.lock, "lock", "",
		"Path or URL of the conan lockfile, '-' reads from stdin.")
	syncCmd.Flags().StringVarP(&syncArgs.output, "output", "o", syncArgs.output,
		"Path of the nix file holding every derivation, '-' writes to stdout.")
	syncCmd.Flags().StringVar(&syncArgs.outputDir, "output-dir", "",
		"Directory for one nix file per dependency plus default.nix, replaces --output.")
	syncCmd.Flags().StringVar(&syncArgs.index, "index", "",
		"Path of the JSON run index to write.")
	syncCmd.Flags().StringVar(&syncArgs.metricsFile, "metrics-file", "",
		"Path of the Prometheus textfile to write the run counters to.")
	syncCmd.Flags().StringSliceVar(&syncArgs.only, "only", nil,
		"Restrict the run to the given reference names.")
	syncCmd.Flags().IntVar(&syncArgs.maxNodes, "max-nodes", 0,
		"Process at most this many dependencies, 0 means all.")
	syncCmd.Flags().BoolVar(&syncArgs.strictRemotes, "strict-remotes", false,
		"Reject dependencies resolved from remotes missing in the config.")
	rootCmd.AddCommand(syncCmd)
}

func syncCmdRun(cmd *cobra.Command, args []string) error {
	if syncArgs.graph == source.Stdin || syncArgs.lock == source.Stdin {
		if syncArgs.output == source.Stdin && syncArgs.outputDir == "" {
			return errors.New("stdout can not be used for both input and output")
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	s, err := newSession()
	if err != nil {
		return err
	}

	nodes, err := s.loadNodes(ctx, syncArgs.inputFlags)
	if err != nil {
		return err
	}

	e := s.engine(
		engine.WithOnly(syncArgs.only...),
		engine.WithMaxNodes(syncArgs.maxNodes),
		engine.WithRemotes(syncArgs.strictRemotes),
	)

	var dirWriter *descriptor.NixDirWriter
	if syncArgs.outputDir != "" {
		dirWriter, err = descriptor.NewNixDirWriter(syncArgs.outputDir)
		if err != nil {
			return err
		}
	}

	var descriptors []*descriptor.Descriptor
	idx := apiv1.NewIndex()
	runErr := e.Run(ctx, nodes, func(d *descriptor.Descriptor) error {
		if dirWriter != nil {
			if _, err := dirWriter.Add(d); err != nil {
				return err
			}
		}
		descriptors = append(descriptors, d)
		idx.Nodes = append(idx.Nodes, descriptor.IndexNode(d))
		return nil
	})

	if syncArgs.metricsFile != "" {
		if err := e.Recorder().WriteTextfile(syncArgs.metricsFile); err != nil {
			s.log.Error(err, "failed to write metrics file", "path", syncArgs.metricsFile)
		}
	}

	if runErr != nil {
		return runErr
	}

	if dirWriter != nil {
		if err := dirWriter.Close(); err != nil {
			return err
		}
	} else if err := writeDescriptors(syncArgs.output, descriptors); err != nil {
		return err
	}

	if syncArgs.index != "" {
		if err := descriptor.WriteIndex(syncArgs.index, idx); err != nil {
			return err
		}
	}

	if syncArgs.output == source.Stdin && syncArgs.outputDir == "" {
		return nil
	}

	rows := make([][]string, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, syncSummaryRow(d))
	}
	printTable(rootCmd.OutOrStdout(), []string{"reference", "files", "reused", "downloaded", "digest"}, rows)

	return nil
}

// writeDescriptors renders the derivations to a file or stdout.
// The file is only written when rendering succeeds.
func writeDescriptors(output string, descriptors []*descriptor.Descriptor) error {
	var buf bytes.Buffer
	if err := descriptor.Render(&buf, descriptors); err != nil {
		return err
	}

	if output == source.Stdin {
		_, err := rootCmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}

func syncSummaryRow(d *descriptor.Descriptor) []string {
	reused, downloaded := 0, 0
	for _, f := range d.Files {
		switch f.Action {
		case conan.ActionReused:
			reused++
		case conan.ActionDownloaded, conan.ActionRedownloaded:
			downloaded++
		}
	}
	return []string{
		d.Node.FullRef(),
		strconv.Itoa(len(d.Files)),
		strconv.Itoa(reused),
		strconv.Itoa(downloaded),
		d.TreeDigest,
	}
}
