// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"
	"sigs.k8s.io/yaml"

	"github.com/controlplaneio-fluxcd/conancache/internal/descriptor"
)

var diffIndexCmd = &cobra.Command{
	Use:   "index <source> <target>",
	Short: "Diff two run indexes and generate a JSON patch",
	Long: `The diff index command compares two conancache.json run indexes and produces
a JSON patch (RFC 6902) that transforms the source index into the target index.

Two runs over the same graph and lockfile against an unchanged remote
produce identical indexes.`,
	Example: `  # Diff the indexes of two runs (default YAML output)
  conancache diff index before/conancache.json after/conancache.json

  # Diff with JSON patch output and fail on differences
  conancache diff index before/conancache.json after/conancache.json \
    --output=json-patch --exit-code`,
	Args: cobra.ExactArgs(2),
	RunE: diffIndexCmdRun,
}

type diffIndexFlags struct {
	output   string
	exitCode bool
}

var diffIndexArgs = diffIndexFlags{
	output: "json-patch-yaml",
}

func init() {
	diffIndexCmd.Flags().StringVarP(&diffIndexArgs.output, "output", "o", diffIndexArgs.output,
		"Output format for the diff result. Supported formats: json-patch-yaml, json-patch.")
	diffIndexCmd.Flags().BoolVar(&diffIndexArgs.exitCode, "exit-code", false,
		"Return an error when the indexes differ.")

	diffCmd.AddCommand(diffIndexCmd)
}

func diffIndexCmdRun(cmd *cobra.Command, args []string) error {
	if diffIndexArgs.output != "json-patch-yaml" && diffIndexArgs.output != "json-patch" {
		return fmt.Errorf("unsupported output format %q, supported formats: json-patch-yaml, json-patch", diffIndexArgs.output)
	}

	source, err := descriptor.ReadIndex(args[0])
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	target, err := descriptor.ReadIndex(args[1])
	if err != nil {
		return fmt.Errorf("reading target: %w", err)
	}

	patch, err := jsondiff.Compare(source, target, jsondiff.Rationalize())
	if err != nil {
		return fmt.Errorf("computing diff: %w", err)
	}

	if len(patch) == 0 {
		rootCmd.Println(`✔`, "indexes are identical")
		return nil
	}

	switch diffIndexArgs.output {
	case "json-patch":
		patchJSON, err := json.MarshalIndent(patch, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling patch: %w", err)
		}
		rootCmd.Println(string(patchJSON))
	case "json-patch-yaml":
		patchYAML, err := yaml.Marshal(patch)
		if err != nil {
			return fmt.Errorf("marshalling patch: %w", err)
		}
		rootCmd.Print(string(patchYAML))
	}

	if diffIndexArgs.exitCode {
		return fmt.Errorf("indexes differ by %d operations", len(patch))
	}
	return nil
}
