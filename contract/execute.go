package contract

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// executeProposal marks p approved and applies its payload. In-contract kinds finish right
// here and get their bonds back; transfers, payouts and remote calls leave a pending record
// and the bonds wait for the callback.
func (cc *callCtx) executeProposal(policy *Policy, p *Proposal) error {
	p.Status = StatusApproved
	async := false
	var err error

	switch k := p.Kind.(type) {
	case ChangeConfig:
		cc.setConfig(k.Config)
	case ChangePolicy:
		if !k.Policy.IsCurrent() {
			return ErrInvalidPolicy
		}
		err = cc.savePolicy(k.Policy.Upgrade())
	case AddMemberToRole:
		err = cc.updatePolicy(p.ID, policy, func(np *Policy) error {
			return np.AddMemberToRole(k.Role, k.MemberID)
		})
	case RemoveMemberFromRole:
		err = cc.updatePolicy(p.ID, policy, func(np *Policy) error {
			return np.RemoveMemberFromRole(k.Role, k.MemberID)
		})
	case FunctionCall:
		actions := make([]sdk.FunctionCallAction, len(k.Actions))
		for i, a := range k.Actions {
			actions[i] = sdk.FunctionCallAction{Method: a.MethodName, Args: a.Args, Deposit: a.Deposit, Gas: a.Gas}
		}
		async = true
		cc.dispatch(p.ID, sdk.RemoteCall{Receiver: k.ReceiverID, Actions: actions})
	case UpgradeSelf:
		async = true
		cc.dispatch(p.ID, sdk.RemoteCall{
			Receiver: cc.env.CurrentAccount,
			Actions:  []sdk.FunctionCallAction{{Method: "upgrade", Args: []byte(k.Hash), Gas: GasForUpgradeSelf}},
		})
	case UpgradeRemote:
		async = true
		cc.dispatch(p.ID, sdk.RemoteCall{
			Receiver: k.ReceiverID,
			Actions:  []sdk.FunctionCallAction{{Method: k.MethodName, Args: []byte(k.Hash), Gas: GasForUpgradeRemote}},
		})
	case Transfer:
		async = true
		cc.payout(p.ID, sdk.Payout{
			Token:    k.TokenID,
			Receiver: k.ReceiverID,
			Amount:   k.Amount,
			Memo:     p.Description,
			Msg:      k.Msg,
		})
	case SetStakingContract:
		err = cc.mutate(func(s *daoState) error {
			if !s.StakingID.IsEmpty() {
				return ErrStakingContractCantChange
			}
			s.StakingID = k.StakingID
			return nil
		})
	case AddBounty:
		_, err = cc.addBounty(k.Bounty)
	case BountyDone:
		async, err = cc.executeBountyPayout(p, k, true)
	case VoteKind:
	case ChangeDelegationWeight:
		err = cc.setDelegationWeight(k.AccountID, k.Amount)
	case ChangePolicyAddOrUpdateRole:
		err = cc.updatePolicy(p.ID, policy, func(np *Policy) error {
			np.AddOrUpdateRole(k.Role)
			return nil
		})
	case ChangePolicyRemoveRole:
		err = cc.updatePolicy(p.ID, policy, func(np *Policy) error {
			if !np.RemoveRole(k.Role) {
				return errors.Wrap(errRoleNotFound, k.Role)
			}
			return nil
		})
	case ChangePolicyUpdateDefaultVotePolicy:
		err = cc.updatePolicy(p.ID, policy, func(np *Policy) error {
			np.UpdateDefaultVotePolicy(k.VotePolicy)
			return nil
		})
	case ChangePolicyUpdateParameters:
		err = cc.updatePolicy(p.ID, policy, func(np *Policy) error {
			np.UpdateParameters(k.Parameters)
			return nil
		})
	default:
		return errors.Wrapf(ErrInvalidKind, "kind %T", p.Kind)
	}
	if err != nil {
		return err
	}
	if async {
		cc.emit(executedEvent(p.ID, p.Kind.Label(), "pending"))
		return nil
	}
	cc.emit(executedEvent(p.ID, p.Kind.Label(), "done"))
	return cc.returnBonds(p)
}

// updatePolicy applies fn to a copy of the policy. Lookup problems inside fn are warnings:
// the proposal still counts as executed. A result that no longer validates (say, the last
// role removed) is dropped with a warning and the old policy stays.
func (cc *callCtx) updatePolicy(id uint64, policy *Policy, fn func(np *Policy) error) error {
	np := policy.Clone()
	if err := fn(&np); err != nil {
		cc.emit(warnEvent(id, err))
	}
	if err := np.Validate(); err != nil {
		cc.emit(warnEvent(id, err))
		return nil
	}
	return cc.savePolicy(np)
}

// rejectProposal settles a proposal that will not execute. A BountyDone proposal releases
// its claim either way.
func (cc *callCtx) rejectProposal(p *Proposal, returnBonds bool) error {
	if returnBonds {
		if err := cc.returnBonds(p); err != nil {
			return err
		}
	}
	if k, ok := p.Kind.(BountyDone); ok {
		if _, err := cc.executeBountyPayout(p, k, false); err != nil {
			return err
		}
	}
	return nil
}

// returnBonds unlocks and refunds the proposal bond, plus the claim bond of a BountyDone.
func (cc *callCtx) returnBonds(p *Proposal) error {
	total := p.Bond.Add(p.ClaimBond)
	if total.IsZero() {
		return nil
	}
	if err := cc.unlock(total); err != nil {
		return err
	}
	cc.refund(p.Proposer, total, "proposal")
	return nil
}

// refund sends native funds back without waiting for the outcome.
func (cc *callCtx) refund(to sdk.Address, amount sdk.Balance, reason string) {
	cc.schedulePayout(sdk.Payout{
		ID:       uuid.NewString(),
		Token:    sdk.AssetNative,
		Receiver: to,
		Amount:   amount,
		Memo:     "bond refund: " + reason,
	}, nil)
	cc.emit(bondEvent(to, amount, false, reason))
}

// payout schedules a ledger move whose outcome the proposal waits for.
func (cc *callCtx) payout(proposalID uint64, p sdk.Payout) {
	pending := cc.newPending(proposalID, PendingKindPayout)
	p.ID = pending.CallID
	id := proposalID
	cc.schedulePayout(p, &id)
}

// dispatch schedules a remote call whose outcome the proposal waits for.
func (cc *callCtx) dispatch(proposalID uint64, call sdk.RemoteCall) {
	pending := cc.newPending(proposalID, PendingKindDispatch)
	call.ID = pending.CallID
	cc.scheduleCall(call, proposalID)
}

// setDelegationWeight overrides one entry and keeps the total equal to the sum.
func (cc *callCtx) setDelegationWeight(account sdk.Address, amount sdk.Balance) error {
	prev, _, err := cc.delegationOf(account)
	if err != nil {
		return err
	}
	res, err := cc.moveDelegation(account, prev, amount)
	if err != nil {
		return err
	}
	cc.emit(delegationEvent("set", account, res.Prev, res.New, res.Total))
	return nil
}
