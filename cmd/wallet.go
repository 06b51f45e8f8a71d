package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/peejay-git/stallions/internal/models"
	"github.com/peejay-git/stallions/internal/output"
)

var (
	walletAsset  string
	walletAmount int64
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage local ledger accounts",
	Long: `Inspect and fund accounts in the local asset ledger.

The ledger backs reward payouts when stallions runs self-contained;
'wallet deposit' is a local faucet and never touches a real asset.`,
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [principal]",
	Short: "Show an account balance",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ref string
		if len(args) > 0 {
			ref = args[0]
		}
		return walletBalanceRun(ref)
	},
}

var walletDepositCmd = &cobra.Command{
	Use:   "deposit <principal>",
	Short: "Credit an account (local faucet)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return walletDepositRun(args[0])
	},
}

var walletHistoryCmd = &cobra.Command{
	Use:   "history [principal]",
	Short: "Show transfers involving a principal, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ref string
		if len(args) > 0 {
			ref = args[0]
		}
		return walletHistoryRun(ref)
	},
}

func init() {
	walletBalanceCmd.Flags().StringVar(&walletAsset, "asset", "", "Asset (default: config 'default_asset')")
	walletDepositCmd.Flags().StringVar(&walletAsset, "asset", "", "Asset (default: config 'default_asset')")
	walletDepositCmd.Flags().Int64Var(&walletAmount, "amount", 0, "Amount to credit (required)")
	_ = walletDepositCmd.MarkFlagRequired("amount")

	walletCmd.AddCommand(walletBalanceCmd)
	walletCmd.AddCommand(walletDepositCmd)
	walletCmd.AddCommand(walletHistoryCmd)
	rootCmd.AddCommand(walletCmd)
}

// resolveWalletPrincipal uses the positional arg if given, otherwise the
// acting principal.
func resolveWalletPrincipal(ref string) (models.Principal, error) {
	if ref != "" {
		return models.Principal(ref), nil
	}
	return callerPrincipal()
}

func resolveWalletAsset() string {
	if walletAsset != "" {
		return walletAsset
	}
	return viper.GetString("default_asset")
}

func walletBalanceRun(ref string) error {
	l, err := getLedger()
	if err != nil {
		return err
	}
	principal, err := resolveWalletPrincipal(ref)
	if err != nil {
		return err
	}
	asset := resolveWalletAsset()

	balance, err := l.Balance(context.Background(), principal, asset)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	fmt.Fprintf(ui.Out, "%s: %d %s\n", principal, balance, asset)
	return nil
}

func walletDepositRun(ref string) error {
	l, err := getLedger()
	if err != nil {
		return err
	}
	asset := resolveWalletAsset()
	principal := models.Principal(ref)

	if dryRun {
		ui.DryRunMsg("Would credit %d %s to %s", walletAmount, asset, principal)
		return nil
	}

	if err := l.Deposit(context.Background(), principal, asset, walletAmount); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	ui.Success("Credited %d %s to %s", walletAmount, asset, principal)
	return nil
}

func walletHistoryRun(ref string) error {
	l, err := getLedger()
	if err != nil {
		return err
	}
	principal, err := resolveWalletPrincipal(ref)
	if err != nil {
		return err
	}

	transfers, err := l.History(context.Background(), principal)
	if err != nil {
		return fmt.Errorf("list transfers: %w", err)
	}

	if len(transfers) == 0 {
		ui.Info("No transfers for %s.", principal)
		return nil
	}

	table := ui.Table([]string{"ID", "From", "To", "Amount", "Memo", "When"})
	for _, t := range transfers {
		amount := fmt.Sprintf("%d %s", t.Amount, t.Asset)
		if t.From == principal {
			amount = output.Red("-" + amount)
		} else {
			amount = output.Green("+" + amount)
		}
		_ = table.Append([]string{
			shortID(t.ID),
			string(t.From),
			string(t.To),
			amount,
			t.Memo,
			t.Created.Format("2006-01-02 15:04"),
		})
	}
	_ = table.Render()
	return nil
}
