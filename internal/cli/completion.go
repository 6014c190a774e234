package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand prints the shell completion script for bomcheck.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Print a completion script for your shell.

Besides commands and flags, the script completes 'lookup --column' from
the header of the file given with --bom.

  bash:        source <(bomcheck completion bash)
  zsh:         bomcheck completion zsh > "${fpath[1]}/_bomcheck"
  fish:        bomcheck completion fish > ~/.config/fish/completions/bomcheck.fish
  powershell:  bomcheck completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}

// registerLookupCompletions completes --bom with CSV files and --column
// with the header names of that BOM.
func registerLookupCompletions(cmd *cobra.Command) {
	_ = cmd.MarkFlagFilename("bom", "csv")
	_ = cmd.RegisterFlagCompletionFunc("column", completeBOMColumn)
}

func completeBOMColumn(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path, _ := cmd.Flags().GetString("bom")
	if path == "" {
		return []string{defaultBOMColumn}, cobra.ShellCompDirectiveNoFileComp
	}
	header, sample, err := readBOMHeaderFile(path)
	if err != nil {
		cobra.CompDebugln(err.Error(), false)
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	prefix := strings.ToLower(toComplete)
	var names []string
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || !strings.HasPrefix(strings.ToLower(name), prefix) {
			continue
		}
		if i < len(sample) && sample[i] != "" {
			name += "\t" + sample[i]
		}
		names = append(names, name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
