// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
	"github.com/controlplaneio-fluxcd/conancache/internal/engine"
)

var getFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the remote files of every dependency and their cache paths",
	Example: `  # List the files of all dependencies
  conancache get files --graph graph.json --lock conan.lock

  # List the package files of zlib in YAML format
  conancache get files --graph graph.json --lock conan.lock --only zlib --scope package -o yaml`,
	Args: cobra.NoArgs,
	RunE: getFilesCmdRun,
}

type getFilesFlags struct {
	inputFlags
	only   []string
	scope  string
	output string
}

var getFilesArgs = getFilesFlags{
	output: "table",
}

func init() {
	getFilesCmd.Flags().StringVar(&getFilesArgs.graph, "graph", "",
		"Path or URL of the conan graph JSON document, '-' reads from stdin.")
	getFilesCmd.Flags().StringVar(&getFilesArgs.lock, "lock", "",
		"Path or URL of the conan lockfile, '-' reads from stdin.")
	getFilesCmd.Flags().StringSliceVar(&getFilesArgs.only, "only", nil,
		"Restrict the listing to the given reference names.")
	getFilesCmd.Flags().StringVar(&getFilesArgs.scope, "scope", "",
		"Restrict the listing to one scope, can be 'export' or 'package'.")
	getFilesCmd.Flags().StringVarP(&getFilesArgs.output, "output", "o", getFilesArgs.output,
		"Output format, can be 'table', 'json' or 'yaml'.")
	getFilesCmd.RegisterFlagCompletionFunc("scope", scopeCompletionFunc) //nolint:errcheck
	getCmd.AddCommand(getFilesCmd)
}

// fileEntry is the JSON and YAML representation of a listed file.
type fileEntry struct {
	Reference string `json:"reference"`
	Scope     string `json:"scope"`
	Name      string `json:"name"`
	Archive   bool   `json:"archive"`
	URL       string `json:"url"`
	Path      string `json:"path"`
}

func getFilesCmdRun(cmd *cobra.Command, args []string) error {
	var scope conan.Scope
	if getFilesArgs.scope != "" {
		var err error
		if scope, err = conan.ParseScope(getFilesArgs.scope); err != nil {
			return err
		}
	}

	switch getFilesArgs.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format %q, supported formats: table, json, yaml", getFilesArgs.output)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	s, err := newSession()
	if err != nil {
		return err
	}

	nodes, err := s.loadNodes(ctx, getFilesArgs.inputFlags)
	if err != nil {
		return err
	}

	e := s.engine(engine.WithOnly(getFilesArgs.only...))
	selected, err := e.Select(nodes)
	if err != nil {
		return err
	}

	var entries []fileEntry
	for i := range selected {
		files, err := e.ResolveNode(ctx, &selected[i])
		if err != nil {
			return err
		}
		for _, f := range files {
			if scope != "" && f.Scope != scope {
				continue
			}
			entries = append(entries, fileEntry{
				Reference: f.Ref.String(),
				Scope:     string(f.Scope),
				Name:      f.Name,
				Archive:   f.Archive(),
				URL:       f.URL,
				Path:      f.Path,
			})
		}
	}

	switch getFilesArgs.output {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		rootCmd.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		rootCmd.Print(string(data))
	default:
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Reference, e.Scope, e.Name, strconv.FormatBool(e.Archive), e.Path})
		}
		printTable(rootCmd.OutOrStdout(), []string{"reference", "scope", "file", "archive", "path"}, rows)
	}

	return nil
}
