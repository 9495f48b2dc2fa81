// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	RunE:  versionCmdRun,
}

type versionFlags struct {
	short bool
}

var versionArgs versionFlags

func init() {
	versionCmd.Flags().BoolVar(&versionArgs.short, "short", false,
		"If true, prints the version number only.")
	rootCmd.AddCommand(versionCmd)
}

func versionCmdRun(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(rootCmd.OutOrStdout(), "version:", VERSION)
	if err != nil {
		return fmt.Errorf("failed to print version: %w", err)
	}

	if versionArgs.short {
		return nil
	}

	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), "go:", runtime.Version())
	if err != nil {
		return fmt.Errorf("failed to print go version: %w", err)
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				_, err = fmt.Fprintln(rootCmd.OutOrStdout(), "revision:", s.Value)
				if err != nil {
					return fmt.Errorf("failed to print revision: %w", err)
				}
			}
		}
	}

	return nil
}
