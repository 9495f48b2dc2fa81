// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

var completionCmd = &cobra.Command{
	Use:   "completion <bash|fish|powershell|zsh>",
	Short: "Generates completion scripts for various shells",
	Example: `  # Load bash completion in the current shell
  . <(conancache completion bash)

  # Load zsh completion for each session
  echo '. <(conancache completion zsh) && compdef _conancache conancache' >> ~/.zshrc

  # Install fish completion
  conancache completion fish > ~/.config/fish/completions/conancache.fish`,
	ValidArgs: []string{"bash", "fish", "powershell", "zsh"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      completionCmdRun,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func completionCmdRun(cmd *cobra.Command, args []string) error {
	out := rootCmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	default:
		return fmt.Errorf("unsupported shell %q", args[0])
	}
}

// scopeCompletionFunc completes the artifact scope names.
func scopeCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var comps []string
	for _, scope := range []conan.Scope{conan.ScopeExport, conan.ScopePackage} {
		if strings.HasPrefix(string(scope), toComplete) {
			comps = append(comps, string(scope))
		}
	}
	return comps, cobra.ShellCompDirectiveNoFileComp
}
