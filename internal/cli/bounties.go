package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
)

func (a *app) bountyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bounty",
		Short: "Claim, complete and inspect bounties",
	}
	cmd.AddCommand(
		a.bountyClaimCmd(),
		a.bountyDoneCmd(),
		a.bountyGiveupCmd(),
		a.bountyListCmd(),
		a.bountyClaimsCmd(),
	)
	return cmd
}

func (a *app) bountyClaimCmd() *cobra.Command {
	var deposit string
	cmd := &cobra.Command{
		Use:     "claim <id> <deadline>",
		Short:   "Claim a bounty, attaching the bounty bond",
		Example: "  daoctl bounty claim 0 48h --as carol.near",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			deadline, err := time.ParseDuration(args[1])
			if err != nil || deadline < 0 {
				return errors.Errorf("invalid deadline %q", args[1])
			}
			bond, err := a.depositOr(cmd, deposit, func(p contract.Policy) sdk.Balance { return p.BountyBond })
			if err != nil {
				return err
			}
			err = a.rt.withDeposit(caller, bond, func() error {
				return a.rt.dao.BountyClaim(cmd.Context(), a.rt.env(caller, bond), id, uint64(deadline))
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "claimed bounty %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&deposit, "deposit", "", "attached deposit (default the policy bounty bond)")
	return cmd
}

func (a *app) bountyDoneCmd() *cobra.Command {
	var account, description, deposit string
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Report a claim as done, opening a BountyDone proposal",
		Long: `Reports the caller's claim as done and attaches the proposal bond. With --account
the claim of another account is checked; an expired claim is released.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			bond, err := a.depositOr(cmd, deposit, func(p contract.Policy) sdk.Balance { return p.ProposalBond })
			if err != nil {
				return err
			}
			var pid *uint64
			err = a.rt.withDeposit(caller, bond, func() error {
				var err error
				pid, err = a.rt.dao.BountyDone(cmd.Context(), a.rt.env(caller, bond), id, sdk.Address(account), description)
				return err
			})
			if err != nil {
				return err
			}
			if pid == nil {
				// nothing was proposed, the attachment goes back
				daoID := sdk.Address(a.rt.cfg.DAO.Account)
				if err := a.rt.host.Transfer(daoID, caller, sdk.AssetNative, bond); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "claim on bounty %d expired\n", id)
				return nil
			}
			fmt.Fprintf(a.out, "proposal %d\n", *pid)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "claimant to check (default the caller)")
	cmd.Flags().StringVar(&description, "description", "", "proposal description")
	cmd.Flags().StringVar(&deposit, "deposit", "", "attached deposit (default the policy bond)")
	return cmd
}

func (a *app) bountyGiveupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "giveup <id>",
		Short: "Release the caller's claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.rt.dao.BountyGiveup(cmd.Context(), a.rt.env(caller, sdk.Zero), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "gave up bounty %d\n", id)
			return nil
		},
	}
}

func (a *app) bountyListCmd() *cobra.Command {
	var from, limit uint64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open bounties with their claim counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			list, err := a.rt.dao.GetBounties(ctx, from, limit)
			if err != nil {
				return err
			}
			for _, b := range list {
				n, err := a.rt.dao.GetBountyNumberOfClaims(ctx, b.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "claims=%d ", n)
				if err := printJSON(a.out, b); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "first bounty id")
	cmd.Flags().Uint64Var(&limit, "limit", contract.MaxViewLimit, "page size")
	return cmd
}

func (a *app) bountyClaimsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claims <account>",
		Short: "List the claims of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := a.rt.dao.GetBountyClaims(cmd.Context(), sdk.Address(args[0]))
			if err != nil {
				return err
			}
			for _, c := range claims {
				if err := printJSON(a.out, c); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
