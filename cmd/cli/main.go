// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/logger"
)

var (
	VERSION = "0.0.0-dev.0"
)

var rootCmd = &cobra.Command{
	Use:               "conancache",
	Version:           VERSION,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	Short:             "Synchronize and verify a local conan package cache",
	Long: `conancache reconciles a conan dependency graph with its lockfile,
synchronizes the recipe exports and binary packages of every dependency
into the local conan cache, verifies each file against the checksums
declared by the remote and emits one content-addressed build descriptor
per dependency.`,
}

type rootFlags struct {
	timeout    time.Duration
	configFile string
	cacheDir   string
}

var (
	rootArgs = rootFlags{
		timeout: 10 * time.Minute,
	}
	logOptions logger.Options
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", rootArgs.timeout,
		"The length of time to wait before giving up on the current operation.")
	rootCmd.PersistentFlags().StringVar(&rootArgs.configFile, "config", "",
		"Path to the conancache YAML config file.")
	rootCmd.PersistentFlags().StringVar(&rootArgs.cacheDir, "cache-dir", "",
		"The conan data directory, defaults to the config cacheDir or "+cache.DefaultRoot()+".")
	logOptions.BindFlags(rootCmd.PersistentFlags())
	rootCmd.SetOut(os.Stdout)
}

func main() {
	log.SetFlags(0)

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("✗ %v\n", err)
		os.Exit(1)
	}
}
