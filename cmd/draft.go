package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/peejay-git/stallions/internal/llm"
	"github.com/peejay-git/stallions/internal/output"
)

var draftDesc string

var draftCmd = &cobra.Command{
	Use:   "draft <title>",
	Short: "Draft a bounty listing with LLM assistance",
	Long: `Ask the configured Anthropic model to suggest a description,
category, and required skills for a bounty. Prints the suggestion and the
matching 'bounty create' flags; nothing is posted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return draftRun(args[0])
	},
}

func init() {
	draftCmd.Flags().StringVar(&draftDesc, "desc", "", "Rough description to refine")
	rootCmd.AddCommand(draftCmd)
}

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
func newLLMClient() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"))
}

func draftRun(title string) error {
	client := newLLMClient()
	if client == nil {
		return fmt.Errorf("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
	}

	ui.VerboseLog("Drafting bounty %q with %s", title, viper.GetString("anthropic.model"))

	draft, err := client.DraftBounty(context.Background(), title, draftDesc)
	if err != nil {
		return fmt.Errorf("draft bounty: %w", err)
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan("draft"), title)
	fmt.Fprintf(ui.Out, "  Category:   %s\n", draft.Category)
	fmt.Fprintf(ui.Out, "  Skills:     %s\n", strings.Join(draft.Skills, ", "))
	fmt.Fprintf(ui.Out, "  Desc:       %s\n", draft.Description)
	fmt.Fprintln(ui.Out)

	var flags strings.Builder
	fmt.Fprintf(&flags, "stallions bounty create --title %q --category %q --desc %q", title, draft.Category, draft.Description)
	for _, skill := range draft.Skills {
		fmt.Fprintf(&flags, " --skill %q", skill)
	}
	flags.WriteString(" --reward <amount> --deadline <when>")
	ui.Info("To post: %s", flags.String())
	return nil
}
