package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/peejay-git/stallions/internal/engine"
	"github.com/peejay-git/stallions/internal/models"
	"github.com/peejay-git/stallions/internal/output"
)

var submissionContent string

var submissionCmd = &cobra.Command{
	Use:     "submission",
	Aliases: []string{"sub"},
	Short:   "Manage work submissions",
	Long:    "Submit work against bounties and review submissions as a bounty owner.",
}

var submissionSubmitCmd = &cobra.Command{
	Use:   "submit <bounty-id>",
	Short: "Submit work against a bounty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submissionSubmitRun(args[0])
	},
}

var submissionListCmd = &cobra.Command{
	Use:     "list <bounty-id>",
	Aliases: []string{"ls"},
	Short:   "List submissions for a bounty",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submissionListRun(args[0])
	},
}

var submissionShowCmd = &cobra.Command{
	Use:   "show <submission-id>",
	Short: "Show submission details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submissionShowRun(args[0])
	},
}

var submissionAcceptCmd = &cobra.Command{
	Use:   "accept <submission-id>",
	Short: "Accept a submission, completing the bounty and paying the reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submissionAcceptRun(args[0])
	},
}

var submissionRejectCmd = &cobra.Command{
	Use:   "reject <submission-id>",
	Short: "Reject a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submissionRejectRun(args[0])
	},
}

func init() {
	submissionSubmitCmd.Flags().StringVar(&submissionContent, "content", "", "Work content or a pointer to the artifact (required)")
	_ = submissionSubmitCmd.MarkFlagRequired("content")

	submissionCmd.AddCommand(submissionSubmitCmd)
	submissionCmd.AddCommand(submissionListCmd)
	submissionCmd.AddCommand(submissionShowCmd)
	submissionCmd.AddCommand(submissionAcceptCmd)
	submissionCmd.AddCommand(submissionRejectCmd)
	rootCmd.AddCommand(submissionCmd)
}

func submissionSubmitRun(bountyRef string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	caller, err := callerPrincipal()
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := findBounty(ctx, eng, bountyRef)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would submit work against bounty %s: %s", shortID(b.ID), b.Title)
		return nil
	}

	sub, err := eng.SubmitWork(ctx, caller, b.ID, submissionContent)
	if err != nil {
		return fmt.Errorf("submit work: %w", err)
	}

	ui.Success("Submitted %s against bounty %s", output.Cyan(shortID(sub.ID)), shortID(b.ID))
	return nil
}

func submissionListRun(bountyRef string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := findBounty(ctx, eng, bountyRef)
	if err != nil {
		return err
	}

	subs, err := eng.ListSubmissions(ctx, b.ID)
	if err != nil {
		return err
	}

	if len(subs) == 0 {
		ui.Info("No submissions for bounty %s.", shortID(b.ID))
		return nil
	}

	table := ui.Table([]string{"ID", "Applicant", "Status", "Submitted", "Content"})
	for _, sub := range subs {
		content := sub.Content
		if len(content) > 48 {
			content = content[:45] + "..."
		}
		_ = table.Append([]string{
			shortID(sub.ID),
			string(sub.Applicant),
			output.StatusColor(string(sub.Status)),
			sub.Created.Format("2006-01-02 15:04"),
			content,
		})
	}
	_ = table.Render()
	return nil
}

func submissionShowRun(id string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sub, err := findSubmission(ctx, eng, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  submission by %s\n", output.Cyan(shortID(sub.ID)), sub.Applicant)
	fmt.Fprintf(ui.Out, "  Bounty:     %s\n", shortID(sub.BountyID))
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(sub.Status)))
	fmt.Fprintf(ui.Out, "  Submitted:  %s\n", sub.Created.Format(time.RFC3339))
	if sub.Content != "" {
		fmt.Fprintf(ui.Out, "  Content:    %s\n", sub.Content)
	}
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", sub.ID)
	return nil
}

func submissionAcceptRun(id string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	caller, err := callerPrincipal()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sub, err := findSubmission(ctx, eng, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would accept submission %s by %s", shortID(sub.ID), sub.Applicant)
		return nil
	}

	accepted, err := eng.AcceptSubmission(ctx, caller, sub.ID)
	if err != nil {
		return fmt.Errorf("accept submission: %w", err)
	}

	b, err := eng.GetBounty(ctx, accepted.BountyID)
	if err != nil {
		return err
	}
	ui.Success("Accepted submission %s: paid %d %s to %s", output.Cyan(shortID(accepted.ID)), b.RewardAmount, b.RewardAsset, accepted.Applicant)
	return nil
}

func submissionRejectRun(id string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	caller, err := callerPrincipal()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sub, err := findSubmission(ctx, eng, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would reject submission %s by %s", shortID(sub.ID), sub.Applicant)
		return nil
	}

	rejected, err := eng.RejectSubmission(ctx, caller, sub.ID)
	if err != nil {
		return fmt.Errorf("reject submission: %w", err)
	}

	ui.Success("Rejected submission %s", output.Cyan(shortID(rejected.ID)))
	return nil
}

// findSubmission finds a submission by full ID or prefix match across all
// bounties.
func findSubmission(ctx context.Context, eng *engine.Engine, id string) (*models.Submission, error) {
	// Try exact match first
	if sub, err := eng.GetSubmission(ctx, id); err == nil {
		return sub, nil
	}

	lower := strings.ToLower(id)
	bounties, err := eng.ListBounties(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*models.Submission
	for _, b := range bounties {
		subs, err := eng.ListSubmissions(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if strings.HasPrefix(sub.ID, lower) {
				matches = append(matches, sub)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("submission not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous submission ID %s: matches %d submissions", id, len(matches))
	}
}
