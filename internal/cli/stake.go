package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
	"sputnik_dao/staking"
)

func (a *app) stakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Deposit vote tokens and delegate them through the staking account",
	}
	cmd.AddCommand(
		a.stakeAmountCmd("deposit", "Deposit vote tokens", func(s *staking.Staking, cmd *cobra.Command, env sdk.Env, amount sdk.Balance) error {
			u, err := s.Deposit(cmd.Context(), env, amount)
			if err != nil {
				return err
			}
			return printJSON(a.out, u)
		}),
		a.stakeAmountCmd("withdraw", "Withdraw undelegated vote tokens", func(s *staking.Staking, cmd *cobra.Command, env sdk.Env, amount sdk.Balance) error {
			u, err := s.Withdraw(cmd.Context(), env, amount)
			if err != nil {
				return err
			}
			return printJSON(a.out, u)
		}),
		a.stakeMoveCmd("delegate", "Delegate vote tokens to an account", (*staking.Staking).DelegateTo),
		a.stakeMoveCmd("undelegate", "Take delegated vote tokens back, starting the cooldown", (*staking.Staking).UndelegateFrom),
		&cobra.Command{
			Use:   "user <account>",
			Short: "Show a depositor",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.staking()
				if err != nil {
					return err
				}
				u, err := s.GetUser(sdk.Address(args[0]))
				if err != nil {
					return err
				}
				return printJSON(a.out, u)
			},
		},
	)
	return cmd
}

func (a *app) staking() (*staking.Staking, error) {
	if a.rt.staking == nil {
		return nil, errors.New("staking is not enabled in the config")
	}
	return a.rt.staking, nil
}

// stakingEnv is the env a user call into the staking account runs with.
func (a *app) stakingEnv() (sdk.Env, error) {
	caller, err := a.caller()
	if err != nil {
		return sdk.Env{}, err
	}
	return sdk.Env{
		CurrentAccount: sdk.Address(a.rt.cfg.Staking.Account),
		Predecessor:    caller,
		BlockTimestamp: a.rt.at,
	}, nil
}

func (a *app) stakeAmountCmd(use, short string, fn func(*staking.Staking, *cobra.Command, sdk.Env, sdk.Balance) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.staking()
			if err != nil {
				return err
			}
			env, err := a.stakingEnv()
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return fn(s, cmd, env, amount)
		},
	}
}

type moveFunc func(s *staking.Staking, ctx context.Context, env sdk.Env, account sdk.Address, amount sdk.Balance) (contract.DelegationResult, error)

func (a *app) stakeMoveCmd(use, short string, fn moveFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <account> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.staking()
			if err != nil {
				return err
			}
			env, err := a.stakingEnv()
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			res, err := fn(s, cmd.Context(), env, sdk.Address(args[0]), amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s -> %s (total %s)\n", args[0], res.Prev, res.New, res.Total)
			return nil
		},
	}
}
