package contract

import (
	"context"
	"unicode/utf8"

	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// Bounty is a task the DAO pays Amount of Token for, up to Times completions.
// MaxDeadline caps the deadline a claimer may ask for, in nanoseconds.
type Bounty struct {
	ID          uint64
	Description string
	Token       sdk.Asset
	Amount      sdk.Balance
	Times       uint32
	MaxDeadline uint64
}

func (b Bounty) validate() error {
	if len(b.Description) > MaxDescriptionLength || !utf8.ValidString(b.Description) {
		return errors.Wrap(ErrInvalidBounty, "description")
	}
	if !b.Token.IsNative() && !sdk.Address(b.Token).IsValid() {
		return errors.Wrapf(ErrInvalidBounty, "token %q", b.Token)
	}
	if b.Times == 0 {
		return errors.Wrap(ErrInvalidBounty, "times must be positive")
	}
	return nil
}

// BountyClaim is one account's reservation of a bounty. Bond is what the claimer
// attached, so giving up refunds exactly that even after the policy changed.
type BountyClaim struct {
	BountyID  uint64
	StartTime uint64
	Deadline  uint64
	Completed bool
	Bond      sdk.Balance
}

func (c BountyClaim) expired(now uint64) bool {
	return now > c.StartTime+c.Deadline
}

// addBounty stores b under the next bounty id.
func (cc *callCtx) addBounty(b Bounty) (uint64, error) {
	var id uint64
	err := cc.mutate(func(s *daoState) error {
		id = s.LastBountyID
		s.LastBountyID++
		return nil
	})
	if err != nil {
		return 0, err
	}
	b.ID = id
	cc.saveBounty(&b)
	cc.emit(bountyAddedEvent(id, &b))
	return id, nil
}

// -----------------------------------------------------------------------------
// Claims
// -----------------------------------------------------------------------------

// BountyClaim reserves bounty id for the caller until deadline nanoseconds from now.
// The caller must attach exactly the policy's bounty bond.
// Example payload: {"id":3,"deadline":"86400000000000"}
func (c *Contract) BountyClaim(ctx context.Context, env sdk.Env, id uint64, deadline uint64) error {
	return c.run(ctx, env, "bounty_claim", func(cc *callCtx) error {
		policy, err := cc.loadPolicy()
		if err != nil {
			return err
		}
		if cc.env.AttachedDeposit.Cmp(policy.BountyBond) != 0 {
			return errors.Wrapf(ErrBountyWrongBond, "attached %s, bond is %s", cc.env.AttachedDeposit, policy.BountyBond)
		}
		bounty, err := cc.getBounty(id)
		if err != nil {
			return err
		}
		count, err := cc.claimCount(id)
		if err != nil {
			return err
		}
		if count >= uint64(bounty.Times) {
			return errors.Wrapf(ErrBountyAllClaimed, "bounty %d", id)
		}
		if deadline > bounty.MaxDeadline {
			return errors.Wrapf(ErrBountyWrongDeadline, "%d above %d", deadline, bounty.MaxDeadline)
		}
		claims, err := cc.claimsOf(cc.caller())
		if err != nil {
			return err
		}
		if findClaim(claims, id) >= 0 {
			return errors.Wrapf(ErrBountyAlreadyClaimed, "bounty %d", id)
		}
		claims = append(claims, BountyClaim{
			BountyID:  id,
			StartTime: cc.now(),
			Deadline:  deadline,
			Bond:      cc.env.AttachedDeposit,
		})
		cc.setClaims(cc.caller(), claims)
		if _, err := cc.addCount(bountyClaimCountKey(id), 1); err != nil {
			return err
		}
		if err := cc.lock(cc.env.AttachedDeposit); err != nil {
			return err
		}
		cc.emit(bountyClaimEvent("claim", id, cc.caller()))
		cc.emit(bondEvent(cc.caller(), cc.env.AttachedDeposit, true, "bounty"))
		return nil
	})
}

// BountyDone reports the claim of account on bounty id as done and opens a bounty_done
// proposal paying account. An empty account means the caller. A claim past its deadline
// is released instead, which anyone may trigger; its bond is forfeited. The caller
// attaches the proposal bond as for any proposal.
func (c *Contract) BountyDone(ctx context.Context, env sdk.Env, id uint64, account sdk.Address, description string) (*uint64, error) {
	var proposalID *uint64
	err := c.run(ctx, env, "bounty_done", func(cc *callCtx) error {
		if account.IsEmpty() {
			account = cc.caller()
		}
		claims, err := cc.claimsOf(account)
		if err != nil {
			return err
		}
		i := findClaim(claims, id)
		if i < 0 {
			return errors.Wrapf(ErrNoClaim, "bounty %d by %s", id, account)
		}
		claim := claims[i]
		if claim.Completed {
			return errors.Wrapf(ErrBountyClaimCompleted, "bounty %d by %s", id, account)
		}
		if claim.expired(cc.now()) {
			if _, err := cc.removeClaim(account, id); err != nil {
				return err
			}
			cc.emit(bountyClaimEvent("expired", id, account))
			return nil
		}
		if cc.caller() != account {
			return errors.Wrapf(ErrBountyDoneMustBeSelf, "caller %s", cc.caller())
		}
		p, err := cc.addProposal(ProposalInput{
			Description: description,
			Kind:        BountyDone{BountyID: id, ReceiverID: account},
		}, claim.Bond)
		if err != nil {
			return err
		}
		claims[i].Completed = true
		cc.setClaims(account, claims)
		cc.emit(bountyClaimEvent("done", id, account))
		proposalID = &p.ID
		return nil
	})
	return proposalID, err
}

// BountyGiveup drops the caller's claim on bounty id. Inside the forgiveness period the
// bond comes back, afterwards it stays with the DAO.
func (c *Contract) BountyGiveup(ctx context.Context, env sdk.Env, id uint64) error {
	return c.run(ctx, env, "bounty_giveup", func(cc *callCtx) error {
		policy, err := cc.loadPolicy()
		if err != nil {
			return err
		}
		claims, err := cc.claimsOf(cc.caller())
		if err != nil {
			return err
		}
		i := findClaim(claims, id)
		if i < 0 {
			return errors.Wrapf(ErrNoClaim, "bounty %d by %s", id, cc.caller())
		}
		if claims[i].Completed {
			return errors.Wrapf(ErrBountyClaimCompleted, "bounty %d", id)
		}
		claim, err := cc.removeClaim(cc.caller(), id)
		if err != nil {
			return err
		}
		cc.emit(bountyClaimEvent("giveup", id, cc.caller()))
		if cc.now() > claim.StartTime+policy.BountyForgivenessPeriod {
			return nil
		}
		if err := cc.unlock(claim.Bond); err != nil {
			return err
		}
		cc.refund(cc.caller(), claim.Bond, "bounty")
		return nil
	})
}

func findClaim(claims []BountyClaim, id uint64) int {
	for i, c := range claims {
		if c.BountyID == id {
			return i
		}
	}
	return -1
}

// removeClaim deletes account's claim on bountyID and releases its slot. Funds are left
// alone, the caller decides what happens to the bond.
func (cc *callCtx) removeClaim(account sdk.Address, bountyID uint64) (BountyClaim, error) {
	claims, err := cc.claimsOf(account)
	if err != nil {
		return BountyClaim{}, err
	}
	i := findClaim(claims, bountyID)
	if i < 0 {
		return BountyClaim{}, errors.Wrapf(ErrNoClaim, "bounty %d by %s", bountyID, account)
	}
	claim := claims[i]
	claims = append(claims[:i], claims[i+1:]...)
	cc.setClaims(account, claims)
	if _, err := cc.addCount(bountyClaimCountKey(bountyID), -1); err != nil {
		return BountyClaim{}, corrupt(err, "bounty claim count")
	}
	return claim, nil
}

// -----------------------------------------------------------------------------
// Payout
// -----------------------------------------------------------------------------

// executeBountyPayout settles the claim behind a bounty_done proposal. The claim goes
// away in both cases; only success pays, and the returned flag says a callback will
// follow. The claim is already gone when a failed payout gets finalized later.
func (cc *callCtx) executeBountyPayout(p *Proposal, k BountyDone, success bool) (bool, error) {
	if _, err := cc.removeClaim(k.ReceiverID, k.BountyID); err != nil && !errors.Is(err, ErrNoClaim) {
		return false, err
	}
	if !success {
		return false, nil
	}
	bounty, err := cc.getBounty(k.BountyID)
	if err != nil {
		return false, err
	}
	cc.payout(p.ID, sdk.Payout{
		Token:    bounty.Token,
		Receiver: k.ReceiverID,
		Amount:   bounty.Amount,
		Memo:     "bounty " + UInt64ToString(k.BountyID),
	})
	return true, nil
}

// consumeBountySlot counts one paid completion and retires the bounty on the last one.
func (cc *callCtx) consumeBountySlot(proposalID, bountyID uint64) error {
	bounty, err := cc.getBounty(bountyID)
	if errors.Is(err, ErrNoBounty) {
		cc.emit(warnEvent(proposalID, err))
		return nil
	}
	if err != nil {
		return err
	}
	if bounty.Times <= 1 {
		cc.deleteBounty(bountyID)
		cc.emit(bountyRemovedEvent(bountyID))
		return nil
	}
	bounty.Times--
	cc.saveBounty(bounty)
	return nil
}
