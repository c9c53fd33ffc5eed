package contract

import (
	"context"

	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// Read views. They share the call lock so a view never sees half a commit, and they
// never write.

// GetConfig returns the DAO config.
func (c *Contract) GetConfig(ctx context.Context) (Config, error) {
	var cfg Config
	err := c.view(ctx, func(cc *callCtx) error {
		var err error
		cfg, err = cc.config()
		return err
	})
	return cfg, err
}

// GetPolicy returns a copy of the current policy.
func (c *Contract) GetPolicy(ctx context.Context) (Policy, error) {
	var p Policy
	err := c.view(ctx, func(cc *callCtx) error {
		policy, err := cc.loadPolicy()
		if err != nil {
			return err
		}
		p = policy.Clone()
		return nil
	})
	return p, err
}

// GetStakingContract returns the staking collaborator, empty when none is set.
func (c *Contract) GetStakingContract(ctx context.Context) (sdk.Address, error) {
	var id sdk.Address
	err := c.view(ctx, func(cc *callCtx) error {
		s, err := cc.state()
		if err != nil {
			return err
		}
		id = s.StakingID
		return nil
	})
	return id, err
}

// GetLockedAmount is the sum of all bonds currently held, forfeited ones included.
func (c *Contract) GetLockedAmount(ctx context.Context) (sdk.Balance, error) {
	var locked sdk.Balance
	err := c.view(ctx, func(cc *callCtx) error {
		s, err := cc.state()
		if err != nil {
			return err
		}
		locked = s.LockedAmount
		return nil
	})
	return locked, err
}

// GetLastProposalID is the id the next proposal gets, equal to the number ever added.
func (c *Contract) GetLastProposalID(ctx context.Context) (uint64, error) {
	var id uint64
	err := c.view(ctx, func(cc *callCtx) error {
		s, err := cc.state()
		if err != nil {
			return err
		}
		id = s.LastProposalID
		return nil
	})
	return id, err
}

// GetProposal returns proposal id or an ErrNoProposal miss.
func (c *Contract) GetProposal(ctx context.Context, id uint64) (*Proposal, error) {
	var p *Proposal
	err := c.view(ctx, func(cc *callCtx) error {
		var err error
		p, err = cc.getProposal(id)
		return err
	})
	return p, err
}

// GetProposals lists up to limit proposals starting at id from. Removed ids are skipped,
// so fewer than limit may come back.
// Example payload: {"from_index":0,"limit":10}
func (c *Contract) GetProposals(ctx context.Context, from uint64, limit uint64) ([]*Proposal, error) {
	var out []*Proposal
	err := c.view(ctx, func(cc *callCtx) error {
		s, err := cc.state()
		if err != nil {
			return err
		}
		for id := from; id < clampEnd(from, limit, s.LastProposalID); id++ {
			p, err := cc.getProposal(id)
			if errors.Is(err, ErrNoProposal) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// GetLastBountyID is the id the next bounty gets.
func (c *Contract) GetLastBountyID(ctx context.Context) (uint64, error) {
	var id uint64
	err := c.view(ctx, func(cc *callCtx) error {
		s, err := cc.state()
		if err != nil {
			return err
		}
		id = s.LastBountyID
		return nil
	})
	return id, err
}

// GetBounty returns bounty id or an ErrNoBounty miss.
func (c *Contract) GetBounty(ctx context.Context, id uint64) (*Bounty, error) {
	var b *Bounty
	err := c.view(ctx, func(cc *callCtx) error {
		var err error
		b, err = cc.getBounty(id)
		return err
	})
	return b, err
}

// GetBounties lists live bounties in [from, from+limit).
func (c *Contract) GetBounties(ctx context.Context, from uint64, limit uint64) ([]*Bounty, error) {
	var out []*Bounty
	err := c.view(ctx, func(cc *callCtx) error {
		s, err := cc.state()
		if err != nil {
			return err
		}
		for id := from; id < clampEnd(from, limit, s.LastBountyID); id++ {
			b, err := cc.getBounty(id)
			if errors.Is(err, ErrNoBounty) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	return out, err
}

// GetBountyClaims lists the claims account holds, empty when none.
func (c *Contract) GetBountyClaims(ctx context.Context, account sdk.Address) ([]BountyClaim, error) {
	var out []BountyClaim
	err := c.view(ctx, func(cc *callCtx) error {
		var err error
		out, err = cc.claimsOf(account)
		return err
	})
	return out, err
}

// GetBountyNumberOfClaims is how many claims bounty id currently has.
func (c *Contract) GetBountyNumberOfClaims(ctx context.Context, id uint64) (uint64, error) {
	var n uint64
	err := c.view(ctx, func(cc *callCtx) error {
		var err error
		n, err = cc.claimCount(id)
		return err
	})
	return n, err
}

// DelegationBalanceOf is account's voting weight, zero when unregistered.
func (c *Contract) DelegationBalanceOf(ctx context.Context, account sdk.Address) (sdk.Balance, error) {
	var b sdk.Balance
	err := c.view(ctx, func(cc *callCtx) error {
		var err error
		b, _, err = cc.delegationOf(account)
		return err
	})
	return b, err
}

// DelegationTotalSupply is the sum of all delegation entries.
func (c *Contract) DelegationTotalSupply(ctx context.Context) (sdk.Balance, error) {
	var total sdk.Balance
	err := c.view(ctx, func(cc *callCtx) error {
		s, err := cc.state()
		if err != nil {
			return err
		}
		total = s.TotalDelegation
		return nil
	})
	return total, err
}

// EvaluateProposal derives the status proposal id would have at time now over all roles,
// the same way Finalize does, without acting on it.
func (c *Contract) EvaluateProposal(ctx context.Context, id uint64, now uint64) (ProposalStatus, error) {
	var status ProposalStatus
	err := c.view(ctx, func(cc *callCtx) error {
		policy, err := cc.loadPolicy()
		if err != nil {
			return err
		}
		p, err := cc.getProposal(id)
		if err != nil {
			return err
		}
		s, err := cc.state()
		if err != nil {
			return err
		}
		status, err = policy.ProposalStatus(p, policy.RoleNames(), s.TotalDelegation, now)
		return err
	})
	return status, err
}

// GetPendingCall returns the call proposal id waits for, nil when it waits for nothing.
func (c *Contract) GetPendingCall(ctx context.Context, proposalID uint64) (*PendingCall, error) {
	var p *PendingCall
	err := c.view(ctx, func(cc *callCtx) error {
		var err error
		p, err = cc.getPending(proposalID)
		return err
	})
	return p, err
}

// clampEnd bounds a page to MaxViewLimit and to the last assigned id.
func clampEnd(from, limit, last uint64) uint64 {
	if limit > MaxViewLimit {
		limit = MaxViewLimit
	}
	end := from + limit
	if end < from || end > last {
		end = last
	}
	return end
}
