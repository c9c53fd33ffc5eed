package contract

import (
	"context"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sputnik_dao/sdk"
)

// -----------------------------------------------------------------------------
// Submission
// -----------------------------------------------------------------------------

// AddProposal stores a new proposal and returns its id. The caller must attach exactly
// the policy's proposal bond, which stays locked until the proposal resolves.
// Example payload: {"description":"pay alice","kind":{"Transfer":{"token_id":"","receiver_id":"alice.near","amount":"1000","msg":null}}}
func (c *Contract) AddProposal(ctx context.Context, env sdk.Env, in ProposalInput) (uint64, error) {
	var id uint64
	err := c.run(ctx, env, "add_proposal", func(cc *callCtx) error {
		p, err := cc.addProposal(in, sdk.Zero)
		if err != nil {
			return err
		}
		id = p.ID
		return nil
	})
	return id, err
}

// addProposal is shared with bounty_done, which settles a claim bond on top.
func (cc *callCtx) addProposal(in ProposalInput, claimBond sdk.Balance) (*Proposal, error) {
	policy, err := cc.loadPolicy()
	if err != nil {
		return nil, err
	}
	st, err := cc.state()
	if err != nil {
		return nil, err
	}
	if cc.env.AttachedDeposit.Cmp(policy.ProposalBond) != 0 {
		return nil, errors.Wrapf(ErrMinBond, "attached %s, bond is %s", cc.env.AttachedDeposit, policy.ProposalBond)
	}
	if in.Kind == nil {
		return nil, errors.Wrap(ErrInvalidKind, "missing kind")
	}
	if len(in.Description) > MaxDescriptionLength || !utf8.ValidString(in.Description) {
		return nil, ErrInvalidDescription
	}
	if err := in.Kind.validate(); err != nil {
		return nil, err
	}
	switch k := in.Kind.(type) {
	case SetStakingContract:
		if !st.StakingID.IsEmpty() {
			return nil, ErrStakingContractCantChange
		}
	case BountyDone:
		if _, err := cc.getBounty(k.BountyID); err != nil {
			return nil, err
		}
	}

	user, err := cc.userInfo(cc.caller())
	if err != nil {
		return nil, err
	}
	if _, ok := policy.CanExecute(user, in.Kind.Label(), ActionAddProposal); !ok {
		return nil, errors.Wrapf(ErrPermissionDenied, "%s:%s", in.Kind.Label(), ActionAddProposal)
	}

	p := newProposal(st.LastProposalID, cc.caller(), in, cc.now(), cc.env.AttachedDeposit)
	p.ClaimBond = claimBond
	cc.saveProposal(p)
	if err := cc.mutate(func(s *daoState) error {
		s.LastProposalID++
		return nil
	}); err != nil {
		return nil, err
	}
	if err := cc.lock(p.Bond); err != nil {
		return nil, err
	}
	cc.emit(proposalAddedEvent(p.ID, p.Proposer, in.Kind.Label()))
	cc.emit(bondEvent(p.Proposer, p.Bond, true, "proposal"))
	return p, nil
}

// -----------------------------------------------------------------------------
// Acting on proposals
// -----------------------------------------------------------------------------

// ActProposal applies action to proposal id on behalf of the caller and returns the status
// the engine derived. Memo is only logged.
//
// A vote that leaves the proposal unresolved only stores the tally. When the period has
// run out the returned status is Expired while the stored one stays InProgress; a Finalize
// settles it and returns the bond.
func (c *Contract) ActProposal(ctx context.Context, env sdk.Env, id uint64, action Action, memo string) (ProposalStatus, error) {
	var status ProposalStatus
	err := c.run(ctx, env, "act_proposal", func(cc *callCtx) error {
		var err error
		status, err = cc.actProposal(id, action, memo)
		return err
	})
	return status, err
}

func (cc *callCtx) actProposal(id uint64, action Action, memo string) (ProposalStatus, error) {
	policy, err := cc.loadPolicy()
	if err != nil {
		return 0, err
	}
	p, err := cc.getProposal(id)
	if err != nil {
		return 0, err
	}
	user, err := cc.userInfo(cc.caller())
	if err != nil {
		return 0, err
	}
	roles, allowed := policy.CanExecute(user, p.Kind.Label(), action)
	if !allowed {
		return 0, errors.Wrapf(ErrPermissionDenied, "%s:%s", p.Kind.Label(), action)
	}
	if memo != "" {
		cc.log.Debug("proposal memo", zap.Uint64("id", id), zap.String("memo", memo))
	}

	switch action {
	case ActionAddProposal:
		return 0, ErrWrongAction
	case ActionRemoveProposal:
		return cc.removeProposal(p)
	case ActionVoteApprove, ActionVoteReject, ActionVoteRemove:
		vote, _ := action.toVote()
		return cc.vote(policy, p, user, roles, vote, memo)
	case ActionFinalize:
		return cc.finalize(policy, p)
	case ActionMoveToHub:
		return p.Status, nil
	}
	return 0, ErrUnknownVoteAction
}

// removeProposal is spam removal: the record goes away and its bond is forfeited.
func (cc *callCtx) removeProposal(p *Proposal) (ProposalStatus, error) {
	pending, err := cc.getPending(p.ID)
	if err != nil {
		return 0, err
	}
	if pending != nil {
		return 0, errors.Wrapf(ErrProposalNotInProgress, "proposal %d waits for call %s", p.ID, pending.CallID)
	}
	if err := cc.rejectProposal(p, false); err != nil {
		return 0, err
	}
	cc.deleteProposal(p.ID)
	cc.emit(proposalRemovedEvent(p.ID, cc.caller()))
	return StatusRemoved, nil
}

func (cc *callCtx) vote(policy *Policy, p *Proposal, user UserInfo, roles []string, vote Vote, memo string) (ProposalStatus, error) {
	if p.Status != StatusInProgress {
		return 0, errors.Wrapf(ErrProposalNotReadyForVote, "proposal %d is %s", p.ID, p.Status)
	}
	if err := p.updateVotes(user.Account, roles, vote, policy, user.Amount); err != nil {
		return 0, err
	}
	cc.emit(voteEvent(p.ID, user.Account, vote, roles, memo))

	st, err := cc.state()
	if err != nil {
		return 0, err
	}
	status, err := policy.ProposalStatus(p, roles, st.TotalDelegation, cc.now())
	if err != nil {
		return 0, err
	}
	switch status {
	case StatusApproved:
		err = cc.executeProposal(policy, p)
	case StatusRemoved:
		p.Status = StatusRemoved
		err = cc.rejectProposal(p, false)
		cc.deleteProposal(p.ID)
		cc.emit(statusEvent(p.ID, p.Status))
		return status, err
	case StatusRejected:
		p.Status = StatusRejected
		err = cc.rejectProposal(p, true)
	}
	if err != nil {
		return 0, err
	}
	cc.saveProposal(p)
	if p.Status != StatusInProgress {
		cc.emit(statusEvent(p.ID, p.Status))
	}
	return status, nil
}

// finalize re-derives the status over every role. Only an approval or an expiry may come
// out of it; it never serves to change a decision.
func (cc *callCtx) finalize(policy *Policy, p *Proposal) (ProposalStatus, error) {
	st, err := cc.state()
	if err != nil {
		return 0, err
	}
	status, err := policy.ProposalStatus(p, policy.RoleNames(), st.TotalDelegation, cc.now())
	if err != nil {
		return 0, err
	}
	switch status {
	case StatusApproved:
		err = cc.executeProposal(policy, p)
	case StatusExpired:
		p.Status = StatusExpired
		err = cc.rejectProposal(p, true)
	default:
		return 0, errors.Wrapf(ErrProposalNotExpiredOrFailed, "proposal %d is %s", p.ID, status)
	}
	if err != nil {
		return 0, err
	}
	cc.saveProposal(p)
	cc.emit(statusEvent(p.ID, p.Status))
	return status, nil
}
