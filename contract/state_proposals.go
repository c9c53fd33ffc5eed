package contract

import (
	"github.com/pkg/errors"
)

// getProposal loads proposal id or fails with ErrNoProposal.
func (c *callCtx) getProposal(id uint64) (*Proposal, error) {
	raw, err := c.st.get(proposalKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.Wrapf(ErrNoProposal, "proposal %d", id)
	}
	return decodeProposal(id, raw)
}

func (c *callCtx) saveProposal(p *Proposal) {
	c.st.set(proposalKey(p.ID), encodeProposal(p))
}

func (c *callCtx) deleteProposal(id uint64) {
	c.st.del(proposalKey(id))
}

// getPending loads the in flight call of a proposal, nil when there is none.
func (c *callCtx) getPending(proposalID uint64) (*PendingCall, error) {
	raw, err := c.st.get(pendingKey(proposalID))
	if err != nil || raw == nil {
		return nil, err
	}
	return decodePendingCall(proposalID, raw)
}

// pendingByCall resolves a call id to its pending record.
func (c *callCtx) pendingByCall(callID string) (*PendingCall, error) {
	raw, err := c.st.get(pendingCallKey(callID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.Wrapf(ErrUnexpectedCallback, "call %s", callID)
	}
	if len(raw) != 8 {
		return nil, corrupt(errors.New("bad length"), "pending index")
	}
	p, err := c.getPending(unpackU64BE(raw))
	if err != nil {
		return nil, err
	}
	if p == nil || p.CallID != callID {
		return nil, errors.Wrapf(ErrUnexpectedCallback, "call %s", callID)
	}
	return p, nil
}

func (c *callCtx) savePending(p *PendingCall) {
	c.st.set(pendingKey(p.ProposalID), encodePendingCall(p))
	c.st.set(pendingCallKey(p.CallID), packU64BE(p.ProposalID, nil))
}

func (c *callCtx) deletePending(p *PendingCall) {
	c.st.del(pendingKey(p.ProposalID))
	c.st.del(pendingCallKey(p.CallID))
}
