package contract

import (
	"context"

	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// DelegationResult is what every ledger move reports back to the staking collaborator.
type DelegationResult struct {
	Prev  sdk.Balance
	New   sdk.Balance
	Total sdk.Balance
}

// requireStaking enforces that only the configured staking collaborator moves weight.
func (cc *callCtx) requireStaking() error {
	s, err := cc.state()
	if err != nil {
		return err
	}
	if s.StakingID.IsEmpty() {
		return ErrNoStaking
	}
	if cc.caller() != s.StakingID {
		return errors.Wrapf(ErrNotStakingContract, "caller %s", cc.caller())
	}
	return nil
}

// RegisterDelegation opens a zero weight entry for account. Registering twice keeps the
// existing weight.
func (c *Contract) RegisterDelegation(ctx context.Context, env sdk.Env, account sdk.Address) error {
	return c.run(ctx, env, "register_delegation", func(cc *callCtx) error {
		if err := cc.requireStaking(); err != nil {
			return err
		}
		if !account.IsValid() {
			return errors.Wrapf(ErrInvalidAccountID, "account %q", account)
		}
		_, registered, err := cc.delegationOf(account)
		if err != nil || registered {
			return err
		}
		cc.setDelegation(account, sdk.Zero)
		s, _ := cc.state()
		cc.emit(delegationEvent("register", account, sdk.Zero, sdk.Zero, s.TotalDelegation))
		return nil
	})
}

// Delegate adds amount to a registered account and to the total.
func (c *Contract) Delegate(ctx context.Context, env sdk.Env, account sdk.Address, amount sdk.Balance) (DelegationResult, error) {
	var res DelegationResult
	err := c.run(ctx, env, "delegate", func(cc *callCtx) error {
		if err := cc.requireStaking(); err != nil {
			return err
		}
		prev, registered, err := cc.delegationOf(account)
		if err != nil {
			return err
		}
		if !registered {
			return errors.Wrapf(ErrNotRegistered, "account %s", account)
		}
		res, err = cc.moveDelegation(account, prev, prev.Add(amount))
		if err != nil {
			return err
		}
		cc.emit(delegationEvent("delegate", account, res.Prev, res.New, res.Total))
		return nil
	})
	return res, err
}

// Undelegate takes amount back out. Taking more than the account holds means the staking
// collaborator lost track of its own books.
func (c *Contract) Undelegate(ctx context.Context, env sdk.Env, account sdk.Address, amount sdk.Balance) (DelegationResult, error) {
	var res DelegationResult
	err := c.run(ctx, env, "undelegate", func(cc *callCtx) error {
		if err := cc.requireStaking(); err != nil {
			return err
		}
		prev, _, err := cc.delegationOf(account)
		if err != nil {
			return err
		}
		next, ok := prev.SafeSub(amount)
		if !ok {
			return errors.Wrapf(ErrInvalidStakingContract, "account %s holds %s, undelegate %s", account, prev, amount)
		}
		res, err = cc.moveDelegation(account, prev, next)
		if err != nil {
			return err
		}
		cc.emit(delegationEvent("undelegate", account, res.Prev, res.New, res.Total))
		return nil
	})
	return res, err
}

// moveDelegation sets account from prev to next and shifts the total by the same delta.
func (cc *callCtx) moveDelegation(account sdk.Address, prev, next sdk.Balance) (DelegationResult, error) {
	var total sdk.Balance
	err := cc.mutate(func(s *daoState) error {
		rest, ok := s.TotalDelegation.SafeSub(prev)
		if !ok {
			return errors.Wrapf(ErrDelegationTotalMismatch, "total %s below entry %s", s.TotalDelegation, prev)
		}
		s.TotalDelegation = rest.Add(next)
		total = s.TotalDelegation
		return nil
	})
	if err != nil {
		return DelegationResult{}, err
	}
	cc.setDelegation(account, next)
	return DelegationResult{Prev: prev, New: next, Total: total}, nil
}
