package cli

import (
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for factoryflow.

To load completions:

Bash:
  $ source <(factoryflow completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ factoryflow completion bash > /etc/bash_completion.d/factoryflow
  # macOS:
  $ factoryflow completion bash > $(brew --prefix)/etc/bash_completion.d/factoryflow

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ factoryflow completion zsh > "${fpath[1]}/_factoryflow"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ factoryflow completion fish | source

  # To load completions for each session, execute once:
  $ factoryflow completion fish > ~/.config/fish/completions/factoryflow.fish

PowerShell:
  PS> factoryflow completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> factoryflow completion powershell > factoryflow.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completionDatabase loads the recipe database without logging, since
// anything written during completion ends up in the shell.
func (c *CLI) completionDatabase() (*recipe.Database, bool) {
	db, err := c.openDatabase(log.New(io.Discard))
	return db, err == nil
}

// completeItems completes the first argument with item names. With
// optionalOnly, only items with alternative recipes are offered and the
// second argument completes to candidate indices.
func (c *CLI) completeItems(optionalOnly bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		db, ok := c.completionDatabase()
		if !ok {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		reg := db.Items()

		switch {
		case len(args) == 0:
			ids := reg.Sorted()
			if optionalOnly {
				ids = db.Optional()
			}
			names := make([]string, 0, len(ids))
			for _, id := range ids {
				names = append(names, reg.Name(id))
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		case len(args) == 1 && optionalOnly:
			id, ok := reg.Lookup(args[0])
			if !ok {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return candidateCompletions(db, id), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveKeepOrder
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// candidateCompletions returns "index\trecipe" pairs for id.
func candidateCompletions(db *recipe.Database, id item.ID) []string {
	reg := db.Items()
	cands := db.Candidates(id)
	out := make([]string, len(cands))
	for i, r := range cands {
		out[i] = strconv.Itoa(i) + "\t" + recipe.FormatRecipe(reg, r)
	}
	return out
}
