package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/peejay-git/stallions/internal/engine"
	"github.com/peejay-git/stallions/internal/models"
	"github.com/peejay-git/stallions/internal/output"
)

var (
	bountyTitle    string
	bountyDesc     string
	bountyCategory string
	bountyReward   int64
	bountyAsset    string
	bountyDeadline string
	bountySkills   []string
	bountyStatus   string
)

var bountyCmd = &cobra.Command{
	Use:   "bounty",
	Short: "Manage bounties",
	Long:  "Post, browse, update, and cancel bounties.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bountyListRun()
	},
}

var bountyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Post a new bounty",
	Long:  "Post a new bounty owned by the acting principal, with the reward escrowed by reference to --asset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bountyCreateRun()
	},
}

var bountyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List bounties",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bountyListRun()
	},
}

var bountyShowCmd = &cobra.Command{
	Use:   "show <bounty-id>",
	Short: "Show bounty details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bountyShowRun(args[0])
	},
}

var bountyUpdateCmd = &cobra.Command{
	Use:   "update <bounty-id>",
	Short: "Update a bounty you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bountyUpdateRun(cmd, args[0])
	},
}

var bountyCancelCmd = &cobra.Command{
	Use:   "cancel <bounty-id>",
	Short: "Cancel a bounty you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bountyCancelRun(args[0])
	},
}

func init() {
	bountyCreateCmd.Flags().StringVar(&bountyTitle, "title", "", "Bounty title (required)")
	bountyCreateCmd.Flags().StringVar(&bountyDesc, "desc", "", "Bounty description")
	bountyCreateCmd.Flags().StringVar(&bountyCategory, "category", "", "Bounty category")
	bountyCreateCmd.Flags().Int64Var(&bountyReward, "reward", 0, "Reward amount in the smallest unit of the asset (required)")
	bountyCreateCmd.Flags().StringVar(&bountyAsset, "asset", "", "Reward asset (default: config 'default_asset')")
	bountyCreateCmd.Flags().StringVar(&bountyDeadline, "deadline", "", "Submission deadline, RFC3339 or duration like 168h (required)")
	bountyCreateCmd.Flags().StringSliceVar(&bountySkills, "skill", nil, "Required skill (repeatable)")
	_ = bountyCreateCmd.MarkFlagRequired("title")
	_ = bountyCreateCmd.MarkFlagRequired("reward")
	_ = bountyCreateCmd.MarkFlagRequired("deadline")

	bountyListCmd.Flags().StringVar(&bountyStatus, "status", "", "Filter by status: open, in_progress, review, completed, cancelled")

	bountyUpdateCmd.Flags().StringVar(&bountyTitle, "title", "", "New title")
	bountyUpdateCmd.Flags().StringVar(&bountyDesc, "desc", "", "New description")
	bountyUpdateCmd.Flags().StringVar(&bountyCategory, "category", "", "New category")
	bountyUpdateCmd.Flags().Int64Var(&bountyReward, "reward", 0, "New reward amount")
	bountyUpdateCmd.Flags().StringVar(&bountyAsset, "asset", "", "New reward asset")
	bountyUpdateCmd.Flags().StringVar(&bountyDeadline, "deadline", "", "New deadline, RFC3339 or duration")
	bountyUpdateCmd.Flags().StringSliceVar(&bountySkills, "skill", nil, "Replace required skills (repeatable)")
	bountyUpdateCmd.Flags().StringVar(&bountyStatus, "status", "", "New status (applied without a transition check)")

	bountyCmd.AddCommand(bountyCreateCmd)
	bountyCmd.AddCommand(bountyListCmd)
	bountyCmd.AddCommand(bountyShowCmd)
	bountyCmd.AddCommand(bountyUpdateCmd)
	bountyCmd.AddCommand(bountyCancelCmd)
	rootCmd.AddCommand(bountyCmd)
}

// parseDeadline accepts an absolute RFC3339 timestamp or a duration offset
// from now ("72h", "30m").
func parseDeadline(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().UTC().Add(d), nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q: use RFC3339 (2026-09-30T00:00:00Z) or a duration (168h)", s)
}

func bountyCreateRun() error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	caller, err := callerPrincipal()
	if err != nil {
		return err
	}

	deadline, err := parseDeadline(bountyDeadline)
	if err != nil {
		return err
	}

	asset := bountyAsset
	if asset == "" {
		asset = viper.GetString("default_asset")
	}

	if dryRun {
		ui.DryRunMsg("Would post bounty %q (%d %s, deadline %s)", bountyTitle, bountyReward, asset, deadline.Format(time.RFC3339))
		return nil
	}

	b, err := eng.CreateBounty(context.Background(), caller, engine.CreateBountyParams{
		Title:        bountyTitle,
		Description:  bountyDesc,
		Category:     bountyCategory,
		RewardAmount: bountyReward,
		RewardAsset:  asset,
		Deadline:     deadline,
		Skills:       bountySkills,
	})
	if err != nil {
		return fmt.Errorf("create bounty: %w", err)
	}

	ui.Success("Posted bounty %s: %s (%d %s)", output.Cyan(shortID(b.ID)), b.Title, b.RewardAmount, b.RewardAsset)
	return nil
}

func bountyListRun() error {
	eng, err := getEngine()
	if err != nil {
		return err
	}

	bounties, err := eng.ListBounties(context.Background())
	if err != nil {
		return err
	}

	if bountyStatus != "" {
		filtered := bounties[:0]
		for _, b := range bounties {
			if string(b.Status) == bountyStatus {
				filtered = append(filtered, b)
			}
		}
		bounties = filtered
	}

	if len(bounties) == 0 {
		ui.Info("No bounties found.")
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Reward", "Owner", "Status", "Deadline"})
	for _, b := range bounties {
		_ = table.Append([]string{
			shortID(b.ID),
			b.Title,
			fmt.Sprintf("%d %s", b.RewardAmount, b.RewardAsset),
			string(b.Owner),
			output.StatusColor(string(b.Status)),
			b.Deadline.Format("2006-01-02 15:04"),
		})
	}
	_ = table.Render()
	return nil
}

func bountyShowRun(id string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := findBounty(ctx, eng, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(b.ID)), b.Title)
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(b.Status)))
	fmt.Fprintf(ui.Out, "  Owner:      %s\n", b.Owner)
	fmt.Fprintf(ui.Out, "  Reward:     %d %s\n", b.RewardAmount, b.RewardAsset)
	fmt.Fprintf(ui.Out, "  Deadline:   %s\n", b.Deadline.Format(time.RFC3339))
	if b.Category != "" {
		fmt.Fprintf(ui.Out, "  Category:   %s\n", b.Category)
	}
	if b.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:       %s\n", b.Description)
	}
	if len(b.Skills) > 0 {
		fmt.Fprintf(ui.Out, "  Skills:     %s\n", strings.Join(b.Skills, ", "))
	}
	fmt.Fprintf(ui.Out, "  Created:    %s\n", b.Created.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Updated:    %s\n", b.Updated.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", b.ID)

	subs, err := eng.ListSubmissions(ctx, b.ID)
	if err == nil && len(subs) > 0 {
		fmt.Fprintf(ui.Out, "  Submissions:\n")
		for _, sub := range subs {
			fmt.Fprintf(ui.Out, "    %s  %s  %s\n", shortID(sub.ID), sub.Applicant, output.StatusColor(string(sub.Status)))
		}
	}
	return nil
}

func bountyUpdateRun(cmd *cobra.Command, id string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	caller, err := callerPrincipal()
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := findBounty(ctx, eng, id)
	if err != nil {
		return err
	}

	// Only flags the user actually set become patch fields, so an untouched
	// flag never clobbers a stored value.
	var params engine.UpdateBountyParams
	changed := false
	if cmd.Flags().Changed("title") {
		params.Title = &bountyTitle
		changed = true
	}
	if cmd.Flags().Changed("desc") {
		params.Description = &bountyDesc
		changed = true
	}
	if cmd.Flags().Changed("category") {
		params.Category = &bountyCategory
		changed = true
	}
	if cmd.Flags().Changed("reward") {
		params.RewardAmount = &bountyReward
		changed = true
	}
	if cmd.Flags().Changed("asset") {
		params.RewardAsset = &bountyAsset
		changed = true
	}
	if cmd.Flags().Changed("deadline") {
		deadline, err := parseDeadline(bountyDeadline)
		if err != nil {
			return err
		}
		params.Deadline = &deadline
		changed = true
	}
	if cmd.Flags().Changed("skill") {
		params.Skills = &bountySkills
		changed = true
	}
	if cmd.Flags().Changed("status") {
		status := models.BountyStatus(bountyStatus)
		params.Status = &status
		changed = true
	}

	if !changed {
		return fmt.Errorf("no updates specified (use --title, --desc, --category, --reward, --asset, --deadline, --skill, or --status)")
	}

	if dryRun {
		ui.DryRunMsg("Would update bounty %s", shortID(b.ID))
		return nil
	}

	updated, err := eng.UpdateBounty(ctx, caller, b.ID, params)
	if err != nil {
		return fmt.Errorf("update bounty: %w", err)
	}

	ui.Success("Updated bounty %s: %s", output.Cyan(shortID(updated.ID)), updated.Title)
	return nil
}

func bountyCancelRun(id string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	caller, err := callerPrincipal()
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := findBounty(ctx, eng, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would cancel bounty %s: %s", shortID(b.ID), b.Title)
		return nil
	}

	cancelled, err := eng.CancelBounty(ctx, caller, b.ID)
	if err != nil {
		return fmt.Errorf("cancel bounty: %w", err)
	}

	ui.Success("Cancelled bounty %s: %s", output.Cyan(shortID(cancelled.ID)), cancelled.Title)
	return nil
}

// findBounty finds a bounty by full ID or prefix match.
func findBounty(ctx context.Context, eng *engine.Engine, id string) (*models.Bounty, error) {
	// Try exact match first
	if b, err := eng.GetBounty(ctx, id); err == nil {
		return b, nil
	}

	// Try prefix match - list all and filter
	lower := strings.ToLower(id)
	bounties, err := eng.ListBounties(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*models.Bounty
	for _, b := range bounties {
		if strings.HasPrefix(b.ID, lower) {
			matches = append(matches, b)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("bounty not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous bounty ID %s: matches %d bounties", id, len(matches))
	}
}

// shortID returns a truncated ID for display (first 12 chars).
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
