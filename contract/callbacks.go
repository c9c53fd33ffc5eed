package contract

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// PendingKind says which collaborator a pending call went to.
type PendingKind uint8

const (
	PendingKindPayout PendingKind = iota
	PendingKindDispatch
)

func (k PendingKind) String() string {
	if k == PendingKindPayout {
		return "payout"
	}
	return "dispatch"
}

// PendingCall is the suspended half of an approved proposal. It is keyed by proposal id,
// carries a fresh call id for correlation and is consumed exactly once by the callback.
type PendingCall struct {
	ProposalID  uint64
	CallID      string
	Kind        PendingKind
	ScheduledAt uint64
}

func (cc *callCtx) newPending(proposalID uint64, kind PendingKind) *PendingCall {
	p := &PendingCall{
		ProposalID:  proposalID,
		CallID:      uuid.NewString(),
		Kind:        kind,
		ScheduledAt: cc.now(),
	}
	cc.savePending(p)
	return p
}

// OnProposalCallback delivers the outcome of call callID. Only the DAO account itself may
// call it, and each call id is accepted once. Success finishes the proposal and returns
// its bonds; failure parks it as Failed until someone finalizes it.
func (c *Contract) OnProposalCallback(ctx context.Context, env sdk.Env, callID string, success bool) error {
	return c.run(ctx, env, "on_proposal_callback", func(cc *callCtx) error {
		if env.Predecessor != env.CurrentAccount {
			return errors.Wrapf(ErrNotSelf, "caller %s", env.Predecessor)
		}
		pending, err := cc.pendingByCall(callID)
		if err != nil {
			return err
		}
		p, err := cc.getProposal(pending.ProposalID)
		if err != nil {
			return err
		}
		if p.Status != StatusApproved {
			return errors.Wrapf(ErrUnexpectedProposalForUpdate, "proposal %d is %s", p.ID, p.Status)
		}
		cc.deletePending(pending)

		if success {
			if err := cc.callbackSuccess(p); err != nil {
				return err
			}
		} else {
			p.Status = StatusFailed
			cc.emit(executedEvent(p.ID, p.Kind.Label(), "failed"))
		}
		cc.saveProposal(p)
		cc.emit(statusEvent(p.ID, p.Status))
		return nil
	})
}

func (cc *callCtx) callbackSuccess(p *Proposal) error {
	if k, ok := p.Kind.(BountyDone); ok {
		if err := cc.consumeBountySlot(p.ID, k.BountyID); err != nil {
			return err
		}
	}
	p.Status = StatusApproved
	cc.emit(executedEvent(p.ID, p.Kind.Label(), "done"))
	return cc.returnBonds(p)
}
