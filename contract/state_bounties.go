package contract

import (
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

func (c *callCtx) getBounty(id uint64) (*Bounty, error) {
	raw, err := c.st.get(bountyKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.Wrapf(ErrNoBounty, "bounty %d", id)
	}
	return decodeBounty(id, raw)
}

func (c *callCtx) saveBounty(b *Bounty) {
	c.st.set(bountyKey(b.ID), encodeBounty(b))
}

// deleteBounty drops the record only. Claims still holding the bounty keep its
// claim count alive until they are released; the counter key goes away at zero.
func (c *callCtx) deleteBounty(id uint64) {
	c.st.del(bountyKey(id))
}

// claimsOf lists every claim account holds, empty when none.
func (c *callCtx) claimsOf(account sdk.Address) ([]BountyClaim, error) {
	raw, err := c.st.get(bountyClaimsKey(account))
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeClaims(raw)
}

// setClaims drops the key once the list is empty.
func (c *callCtx) setClaims(account sdk.Address, claims []BountyClaim) {
	if len(claims) == 0 {
		c.st.del(bountyClaimsKey(account))
		return
	}
	c.st.set(bountyClaimsKey(account), encodeClaims(claims))
}

func (c *callCtx) claimCount(bountyID uint64) (uint64, error) {
	return c.getCount(bountyClaimCountKey(bountyID))
}
