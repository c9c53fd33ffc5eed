package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sputnik_dao/sdk"
)

func (a *app) fundCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "fund <account> <amount>",
		Short: "Mint funds into a local account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := sdk.Address(args[0])
			if !account.IsValid() {
				return errors.Errorf("invalid account %q", args[0])
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if err := a.rt.host.Credit(account, sdk.Asset(token), amount); err != nil {
				return err
			}
			return a.printBalance(account, sdk.Asset(token))
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token account (default the native token)")
	return cmd
}

func (a *app) balanceCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show the local balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printBalance(sdk.Address(args[0]), sdk.Asset(token))
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token account (default the native token)")
	return cmd
}

func (a *app) printBalance(account sdk.Address, token sdk.Asset) error {
	b, err := a.rt.host.BalanceOf(account, token)
	if err != nil {
		return err
	}
	name := "native"
	if !token.IsNative() {
		name = token.String()
	}
	fmt.Fprintf(a.out, "%s %s %s\n", account, b, name)
	return nil
}

func (a *app) outboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outbox",
		Short: "List payouts and remote calls waiting for an outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := a.rt.host.Outbox()
			if err != nil {
				return err
			}
			for _, r := range reqs {
				if err := printJSON(a.out, r); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) resolveCmd() *cobra.Command {
	var fail bool
	cmd := &cobra.Command{
		Use:   "resolve <request-id>",
		Short: "Settle an outbox entry and report the outcome to the DAO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.rt.host.Resolve(cmd.Context(), args[0], !fail); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "resolved %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&fail, "fail", false, "report the request as failed")
	return cmd
}

func (a *app) delegationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delegation <account>",
		Short: "Show the delegated weight of an account and the total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := a.rt.dao.DelegationBalanceOf(ctx, sdk.Address(args[0]))
			if err != nil {
				return err
			}
			total, err := a.rt.dao.DelegationTotalSupply(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s of %s\n", args[0], w, total)
			return nil
		},
	}
}
