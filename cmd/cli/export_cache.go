// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	cp "github.com/otiai10/copy"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/descriptor"
	"github.com/controlplaneio-fluxcd/conancache/internal/engine"
)

var exportCacheCmd = &cobra.Command{
	Use:   "cache <destination>",
	Short: "Copy the verified cache subtree of every dependency to a directory",
	Long: `The export cache command checks every dependency file against the remote,
then copies the verified files into the destination using the conan data
layout. Every copied file is hashed again and compared with the verified
sha256. The reference metadata.json is copied too, or generated when the
cache has none.

The command fails without copying anything when a file is not Verified.`,
	Example: `  # Seed an offline conan data directory
  conancache export cache ./offline/.conan/data --graph graph.json --lock conan.lock`,
	Args: cobra.ExactArgs(1),
	RunE: exportCacheCmdRun,
}

type exportCacheFlags struct {
	inputFlags
	only []string
}

var exportCacheArgs exportCacheFlags

func init() {
	exportCacheCmd.Flags().StringVar(&exportCacheArgs.graph, "graph", "",
		"Path or URL of the conan graph JSON document, '-' reads from stdin.")
	exportCacheCmd.Flags().StringVar(&exportCacheArgs.lock, "lock", "",
		"Path or URL of the conan lockfile, '-' reads from stdin.")
	exportCacheCmd.Flags().StringSliceVar(&exportCacheArgs.only, "only", nil,
		"Restrict the export to the given reference names.")
	exportCmd.AddCommand(exportCacheCmd)
}

func exportCacheCmdRun(cmd *cobra.Command, args []string) error {
	destination, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	s, err := newSession()
	if err != nil {
		return err
	}
	if destination == s.layout.Root {
		return errors.New("destination must differ from the cache directory")
	}

	nodes, err := s.loadNodes(ctx, exportCacheArgs.inputFlags)
	if err != nil {
		return err
	}

	e := s.engine(engine.WithOnly(exportCacheArgs.only...))
	selected, err := e.Select(nodes)
	if err != nil {
		return err
	}

	verified := make([][]conan.LocalArtifactFile, len(selected))
	for i := range selected {
		files, err := e.VerifyNode(ctx, &selected[i])
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.State != conan.StateVerified {
				return fmt.Errorf("%s %s: %s is %s, run sync first", f.Ref, f.Scope, f.Name, f.State)
			}
		}
		verified[i] = files
	}

	dst, err := cache.NewLayout(destination)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(selected))
	for i, node := range selected {
		for _, f := range verified[i] {
			if err := copyVerified(f, dst.Path(f.Ref, f.Subpath)); err != nil {
				return err
			}
		}

		if err := exportMetadata(s.layout, dst, &selected[i], verified[i]); err != nil {
			return err
		}

		rows = append(rows, []string{node.FullRef(), strconv.Itoa(len(verified[i])), dst.ReferenceDir(node.Ref)})
	}

	printTable(rootCmd.OutOrStdout(), []string{"reference", "files", "destination"}, rows)
	return nil
}

// exportMetadata copies the metadata.json of the reference, or writes
// a generated one when the local cache has none.
func exportMetadata(src, dst cache.Layout, node *conan.Node, files []conan.LocalArtifactFile) error {
	metadata := src.MetadataPath(node.Ref)
	if _, err := os.Stat(metadata); err == nil {
		if err := cp.Copy(metadata, dst.MetadataPath(node.Ref)); err != nil {
			return fmt.Errorf("%s: failed to copy metadata: %w", node.Ref, err)
		}
		return nil
	}

	data, err := descriptor.GenerateMetadata(node, files)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst.MetadataPath(node.Ref), data, 0o644); err != nil {
		return fmt.Errorf("%s: failed to write metadata: %w", node.Ref, err)
	}
	return nil
}

// copyVerified copies a verified file and checks the sha256 of the copy.
func copyVerified(f conan.LocalArtifactFile, target string) error {
	if err := cp.Copy(f.Path, target, cp.Options{PreserveTimes: true}); err != nil {
		return fmt.Errorf("%s %s: failed to copy %s: %w", f.Ref, f.Scope, f.Name, err)
	}

	sums, _, err := cache.HashFile(target)
	if err != nil {
		return err
	}
	if sums.SHA256 != f.Checksums.SHA256 {
		_ = os.Remove(target)
		return &conan.ChecksumMismatchError{
			Ref:   f.Ref,
			Scope: f.Scope,
			File:  f.Name,
			Mismatches: []conan.ChecksumMismatch{{
				Source:    "export",
				Algorithm: conan.SHA256,
				Expected:  f.Checksums.SHA256,
				Actual:    sums.SHA256,
			}},
		}
	}
	return nil
}
