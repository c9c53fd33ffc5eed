package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the DAO from the dao section of the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.rt.cfg
			var policy contract.VersionedPolicy
			switch {
			case cfg.DAO.PolicyFile != "":
				raw, err := readFileOrValue(cfg.DAO.PolicyFile, "")
				if err != nil {
					return err
				}
				if policy, err = contract.ParseVersionedPolicy(raw); err != nil {
					return err
				}
			case len(cfg.DAO.Council) > 0:
				policy = contract.LegacyPolicy(cfg.CouncilAddresses()...)
			default:
				return errors.New("config needs dao.council or dao.policy_file")
			}

			stakingID := sdk.Address(cfg.DAO.StakingID)
			if stakingID.IsEmpty() && cfg.Staking.Enabled {
				stakingID = sdk.Address(cfg.Staking.Account)
			}
			caller := sdk.Address(a.as)
			if caller.IsEmpty() {
				caller = sdk.Address(cfg.DAO.Account)
			}
			err := a.rt.dao.Init(cmd.Context(), a.rt.env(caller, sdk.Zero), contract.InitArgs{
				Config:    contract.Config{Name: cfg.DAO.Name, Purpose: cfg.DAO.Purpose, Metadata: cfg.DAO.Metadata},
				Policy:    policy,
				StakingID: stakingID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "initialized %s\n", cfg.DAO.Account)
			return nil
		},
	}
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show config, counters and locked bonds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dao := a.rt.dao
			cfg, err := dao.GetConfig(ctx)
			if err != nil {
				return err
			}
			if err := printJSON(a.out, cfg); err != nil {
				return err
			}
			staking, err := dao.GetStakingContract(ctx)
			if err != nil {
				return err
			}
			locked, err := dao.GetLockedAmount(ctx)
			if err != nil {
				return err
			}
			lastProposal, err := dao.GetLastProposalID(ctx)
			if err != nil {
				return err
			}
			lastBounty, err := dao.GetLastBountyID(ctx)
			if err != nil {
				return err
			}
			total, err := dao.DelegationTotalSupply(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "staking_contract: %s\n", staking)
			fmt.Fprintf(a.out, "locked_amount: %s\n", locked)
			fmt.Fprintf(a.out, "last_proposal_id: %d\n", lastProposal)
			fmt.Fprintf(a.out, "last_bounty_id: %d\n", lastBounty)
			fmt.Fprintf(a.out, "delegation_total_supply: %s\n", total)
			return nil
		},
	}
}

func (a *app) policyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the current policy as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.rt.dao.GetPolicy(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := contract.EncodePolicyJSON(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, string(raw))
			return nil
		},
	}
}

func (a *app) proposeCmd() *cobra.Command {
	var input, file, deposit string
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Submit a proposal, attaching the policy bond",
		Example: `  daoctl propose --as alice.near --input '{"description":"ping","kind":"Vote"}'
  daoctl propose --as alice.near --input '{"description":"pay","kind":{"Transfer":{"token_id":"","receiver_id":"bob.near","amount":"10","msg":null}}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			raw, err := readFileOrValue(file, input)
			if err != nil {
				return err
			}
			in, err := contract.ParseProposalInput(raw)
			if err != nil {
				return err
			}
			bond, err := a.depositOr(cmd, deposit, func(p contract.Policy) sdk.Balance { return p.ProposalBond })
			if err != nil {
				return err
			}
			var id uint64
			err = a.rt.withDeposit(caller, bond, func() error {
				var err error
				id, err = a.rt.dao.AddProposal(cmd.Context(), a.rt.env(caller, bond), in)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "proposal %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", `proposal JSON {"description":...,"kind":...}`)
	cmd.Flags().StringVar(&file, "file", "", "read the proposal JSON from a file")
	cmd.Flags().StringVar(&deposit, "deposit", "", "attached deposit (default the policy bond)")
	return cmd
}

// depositOr parses an explicit --deposit or falls back to a bond from the policy.
func (a *app) depositOr(cmd *cobra.Command, explicit string, fromPolicy func(contract.Policy) sdk.Balance) (sdk.Balance, error) {
	if explicit != "" {
		return parseAmount(explicit)
	}
	p, err := a.rt.dao.GetPolicy(cmd.Context())
	if err != nil {
		return sdk.Zero, err
	}
	return fromPolicy(p), nil
}

func (a *app) actCmd() *cobra.Command {
	var memo string
	cmd := &cobra.Command{
		Use:   "act <id> <action>",
		Short: "Vote on, finalize or remove a proposal",
		Long: `Actions: VoteApprove, VoteReject, VoteRemove, Finalize, RemoveProposal, MoveToHub.
The new status of the proposal is printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			action, err := contract.ParseAction(args[1])
			if err != nil {
				return errors.Wrapf(err, "action %q", args[1])
			}
			status, err := a.rt.dao.ActProposal(cmd.Context(), a.rt.env(caller, sdk.Zero), id, action, memo)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "proposal %d %s\n", id, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&memo, "memo", "", "free text logged with the vote")
	return cmd
}

func (a *app) proposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal <id>",
		Short: "Print one proposal as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.rt.dao.GetProposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(a.out, p)
		},
	}
}

func (a *app) proposalsCmd() *cobra.Command {
	var from, limit uint64
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List proposals, one JSON document per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.rt.dao.GetProposals(cmd.Context(), from, limit)
			if err != nil {
				return err
			}
			for _, p := range list {
				if err := printJSON(a.out, p); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "first proposal id")
	cmd.Flags().Uint64Var(&limit, "limit", contract.MaxViewLimit, "page size")
	return cmd
}
