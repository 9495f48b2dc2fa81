// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"runtime"
	"testing"

	. "github.com/onsi/gomega"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name             string
		args             []string
		expectedOutput   []string
		unexpectedOutput []string
	}{
		{
			name: "full",
			args: []string{"version"},
			expectedOutput: []string{
				"version: " + VERSION,
				"go: " + runtime.Version(),
			},
		},
		{
			name:             "short",
			args:             []string{"version", "--short"},
			expectedOutput:   []string{"version: " + VERSION},
			unexpectedOutput: []string{"go: "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			output, err := executeCommand(tt.args)
			g.Expect(err).ToNot(HaveOccurred())

			for _, expected := range tt.expectedOutput {
				g.Expect(output).To(ContainSubstring(expected))
			}
			for _, unexpected := range tt.unexpectedOutput {
				g.Expect(output).ToNot(ContainSubstring(unexpected))
			}
		})
	}
}

func TestCompletionCmd(t *testing.T) {
	g := NewWithT(t)

	output, err := executeCommand([]string{"completion", "bash"})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(output).To(ContainSubstring("__start_conancache"))

	_, err = executeCommand([]string{"completion", "tcsh"})
	g.Expect(err).To(HaveOccurred())
}
