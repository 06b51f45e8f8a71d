package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/peejay-git/stallions/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an agent post, browse, and settle bounties as the acting
principal. Configure in Claude Code with:

  {
    "mcpServers": {
      "stallions": { "command": "stallions", "args": ["mcp", "--as", "you"] }
    }
  }

Available tools: stallions_list_bounties, stallions_get_bounty,
stallions_create_bounty, stallions_cancel_bounty, stallions_submit_work,
stallions_list_submissions, stallions_accept_submission,
stallions_reject_submission`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := getEngine()
		if err != nil {
			return err
		}
		principal, err := callerPrincipal()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(eng, principal)
		return srv.ServeStdio(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
