package contract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
)

const bountyDeadline uint64 = 1_000_000

// addBounty runs an AddBounty proposal through the council and returns the new id.
func addBounty(t *testing.T, ct *contractTest, b contract.Bounty) uint64 {
	t.Helper()
	id := ct.propose(t, alice, contract.AddBounty{Bounty: b})
	require.Equal(t, contract.StatusApproved, ct.approve(t, id, alice, bob))
	last, err := ct.c.GetLastBountyID(ct.ctx)
	require.NoError(t, err)
	return last - 1
}

func testBounty(times uint32) contract.Bounty {
	return contract.Bounty{
		Description: "fix the bug",
		Amount:      bal(100),
		Times:       times,
		MaxDeadline: bountyDeadline,
	}
}

func (ct *contractTest) claim(caller sdk.Address, id uint64, deadline uint64) error {
	return ct.c.BountyClaim(ct.ctx, ct.env(caller, contract.DefaultBountyBond), id, deadline)
}

func (ct *contractTest) done(caller sdk.Address, id uint64, account sdk.Address) (*uint64, error) {
	return ct.c.BountyDone(ct.ctx, ct.env(caller, contract.DefaultProposalBond), id, account, "done")
}

func (ct *contractTest) claimCount(t *testing.T, id uint64) uint64 {
	t.Helper()
	n, err := ct.c.GetBountyNumberOfClaims(ct.ctx, id)
	require.NoError(t, err)
	return n
}

// =============================================================================
// Claims
// =============================================================================

func TestBountyClaimRules(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(2))

	err := ct.c.BountyClaim(ct.ctx, ct.env(carol, bal(1)), id, 10)
	assert.ErrorIs(t, err, contract.ErrBountyWrongBond)
	assert.ErrorIs(t, ct.claim(carol, id, bountyDeadline+1), contract.ErrBountyWrongDeadline)
	assert.ErrorIs(t, ct.claim(carol, 42, 10), contract.ErrNoBounty)

	require.NoError(t, ct.claim(carol, id, 10))
	assert.ErrorIs(t, ct.claim(carol, id, 10), contract.ErrBountyAlreadyClaimed)
	require.NoError(t, ct.claim(bob, id, 10))
	assert.ErrorIs(t, ct.claim(alice, id, 10), contract.ErrBountyAllClaimed)

	assert.Equal(t, uint64(2), ct.claimCount(t, id))
	assert.Equal(t, bonds(2), ct.locked(t))

	claims, err := ct.c.GetBountyClaims(ct.ctx, carol)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, contract.BountyClaim{
		BountyID:  id,
		StartTime: startTime,
		Deadline:  10,
		Bond:      contract.DefaultBountyBond,
	}, claims[0])
}

func TestBountyGiveupWithinForgiveness(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(1))
	require.NoError(t, ct.claim(carol, id, 10))

	ct.advance(contract.DefaultBountyForgivenessPeriod)
	require.NoError(t, ct.c.BountyGiveup(ct.ctx, ct.env(carol, sdk.Zero), id))

	assert.Equal(t, sdk.Zero, ct.locked(t))
	assert.Equal(t, contract.DefaultBountyBond, ct.host.PaidTo(carol, sdk.AssetNative))
	assert.Equal(t, uint64(0), ct.claimCount(t, id))

	// the slot is free again
	require.NoError(t, ct.claim(bob, id, 10))
}

func TestBountyGiveupAfterForgivenessKeepsBond(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(1))
	require.NoError(t, ct.claim(carol, id, 10))
	lockedBefore := ct.locked(t)

	ct.advance(contract.DefaultBountyForgivenessPeriod + 1)
	require.NoError(t, ct.c.BountyGiveup(ct.ctx, ct.env(carol, sdk.Zero), id))

	assert.Equal(t, lockedBefore, ct.locked(t))
	assert.True(t, ct.host.PaidTo(carol, sdk.AssetNative).IsZero())
	claims, err := ct.c.GetBountyClaims(ct.ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, claims)
	assert.Equal(t, uint64(0), ct.claimCount(t, id))

	err = ct.c.BountyGiveup(ct.ctx, ct.env(carol, sdk.Zero), id)
	assert.ErrorIs(t, err, contract.ErrNoClaim)
}

// =============================================================================
// Completion
// =============================================================================

func TestBountyDoneTimesOneRemovesBounty(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(1))
	require.NoError(t, ct.claim(carol, id, 10))

	pid, err := ct.done(carol, id, "")
	require.NoError(t, err)
	require.NotNil(t, pid)
	assert.Equal(t, bonds(2), ct.locked(t))

	claims, err := ct.c.GetBountyClaims(ct.ctx, carol)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.True(t, claims[0].Completed)

	p := ct.proposal(t, *pid)
	assert.Equal(t, contract.BountyDone{BountyID: id, ReceiverID: carol}, p.Kind)

	assert.Equal(t, contract.StatusApproved, ct.approve(t, *pid, alice, bob))
	assert.Equal(t, sdk.Zero, ct.locked(t))
	assert.Equal(t, bal(100).Add(bonds(2)), ct.host.PaidTo(carol, sdk.AssetNative))

	_, err = ct.c.GetBounty(ct.ctx, id)
	assert.ErrorIs(t, err, contract.ErrNoBounty)
	assert.ErrorIs(t, ct.claim(bob, id, 10), contract.ErrNoBounty)
	claims, err = ct.c.GetBountyClaims(ct.ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestBountyDoneDecrementsTimes(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(2))
	require.NoError(t, ct.claim(carol, id, 10))
	pid, err := ct.done(carol, id, "")
	require.NoError(t, err)
	ct.approve(t, *pid, alice, bob)

	b, err := ct.c.GetBounty(ct.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), b.Times)
	assert.Equal(t, uint64(0), ct.claimCount(t, id))
}

func TestBountyDoneWaitsForTokenPayout(t *testing.T) {
	ct := SetupCouncilTest(t)
	b := testBounty(1)
	b.Token = "usdc.near"
	id := addBounty(t, ct, b)
	require.NoError(t, ct.claim(carol, id, 10))
	pid, err := ct.done(carol, id, "")
	require.NoError(t, err)
	ct.approve(t, *pid, alice, bob)

	// token payouts stay pending on the mock host
	pending, err := ct.c.GetPendingCall(ct.ctx, *pid)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, contract.PendingKindPayout, pending.Kind)
	_, err = ct.c.GetBounty(ct.ctx, id)
	require.NoError(t, err, "bounty stays until the payout lands")

	require.NoError(t, ct.callback(t, pending.CallID, true))
	_, err = ct.c.GetBounty(ct.ctx, id)
	assert.ErrorIs(t, err, contract.ErrNoBounty)
	assert.Equal(t, bal(100), ct.host.PaidTo(carol, "usdc.near"))
	assert.Equal(t, sdk.Zero, ct.locked(t))
}

func TestBountyDoneRules(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(2))
	require.NoError(t, ct.claim(carol, id, 10))

	_, err := ct.done(bob, id, "")
	assert.ErrorIs(t, err, contract.ErrNoClaim)
	_, err = ct.done(bob, id, carol)
	assert.ErrorIs(t, err, contract.ErrBountyDoneMustBeSelf)

	_, err = ct.done(carol, id, "")
	require.NoError(t, err)
	_, err = ct.done(carol, id, "")
	assert.ErrorIs(t, err, contract.ErrBountyClaimCompleted)
	err = ct.c.BountyGiveup(ct.ctx, ct.env(carol, sdk.Zero), id)
	assert.ErrorIs(t, err, contract.ErrBountyClaimCompleted)
}

func TestBountyDoneAfterDeadlineReleasesClaim(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(1))
	require.NoError(t, ct.claim(carol, id, 10))

	ct.advance(11)
	pid, err := ct.c.BountyDone(ct.ctx, ct.env(bob, sdk.Zero), id, carol, "")
	require.NoError(t, err)
	assert.Nil(t, pid)
	assert.Equal(t, uint64(0), ct.claimCount(t, id))
	assert.Equal(t, contract.DefaultBountyBond, ct.locked(t), "expired claims forfeit their bond")

	require.NoError(t, ct.claim(bob, id, 10))
}

func TestBountyDoneRejectedFreesClaim(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(1))
	require.NoError(t, ct.claim(carol, id, 10))
	pid, err := ct.done(carol, id, "")
	require.NoError(t, err)

	_, err = ct.act(alice, *pid, contract.ActionVoteReject)
	require.NoError(t, err)
	status, err := ct.act(bob, *pid, contract.ActionVoteReject)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusRejected, status)

	assert.Equal(t, sdk.Zero, ct.locked(t))
	assert.Equal(t, bonds(2), ct.host.PaidTo(carol, sdk.AssetNative))
	assert.Equal(t, uint64(0), ct.claimCount(t, id))
	b, err := ct.c.GetBounty(ct.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), b.Times)
}

func TestActiveClaimsNeverExceedTimes(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(2))
	for _, who := range []sdk.Address{alice, bob, carol, outsider} {
		_ = ct.claim(who, id, 10)
		b, err := ct.c.GetBounty(ct.ctx, id)
		require.NoError(t, err)
		assert.LessOrEqual(t, ct.claimCount(t, id), uint64(b.Times))
	}
	assert.Equal(t, uint64(2), ct.claimCount(t, id))
}

func TestGetBounties(t *testing.T) {
	ct := SetupCouncilTest(t)
	addBounty(t, ct, testBounty(1))
	addBounty(t, ct, testBounty(3))

	list, err := ct.c.GetBounties(ct.ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(1), list[1].ID)
	assert.Equal(t, uint32(3), list[1].Times)
	assert.Equal(t, "fix the bug", list[0].Description)
}

// =============================================================================
// Retirement and recovery
// =============================================================================

// retireWhileClaimed pays out a one-time token bounty to carol while bob already holds
// the slot her approval freed. It returns the bounty id.
func retireWhileClaimed(t *testing.T, ct *contractTest) uint64 {
	t.Helper()
	b := testBounty(1)
	b.Token = "usdc.near"
	id := addBounty(t, ct, b)
	require.NoError(t, ct.claim(carol, id, 10))
	pid, err := ct.done(carol, id, "")
	require.NoError(t, err)
	ct.approve(t, *pid, alice, bob)

	require.NoError(t, ct.claim(bob, id, 10))
	pending, err := ct.c.GetPendingCall(ct.ctx, *pid)
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.NoError(t, ct.callback(t, pending.CallID, true))

	_, err = ct.c.GetBounty(ct.ctx, id)
	require.ErrorIs(t, err, contract.ErrNoBounty)
	assert.Equal(t, uint64(1), ct.claimCount(t, id), "bob still holds his claim")
	assert.Equal(t, contract.DefaultBountyBond, ct.locked(t))
	return id
}

func TestGiveupAfterBountyRetired(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := retireWhileClaimed(t, ct)

	require.NoError(t, ct.c.BountyGiveup(ct.ctx, ct.env(bob, sdk.Zero), id))
	assert.Equal(t, uint64(0), ct.claimCount(t, id))
	assert.Equal(t, sdk.Zero, ct.locked(t))
	assert.Equal(t, contract.DefaultBountyBond, ct.host.PaidTo(bob, sdk.AssetNative))
}

func TestExpiredClaimReleasedAfterBountyRetired(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := retireWhileClaimed(t, ct)

	ct.advance(11)
	pid, err := ct.c.BountyDone(ct.ctx, ct.env(carol, sdk.Zero), id, bob, "")
	require.NoError(t, err)
	assert.Nil(t, pid)
	assert.Equal(t, uint64(0), ct.claimCount(t, id))
	claims, err := ct.c.GetBountyClaims(ct.ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, claims)
	assert.Equal(t, contract.DefaultBountyBond, ct.locked(t), "expired claims forfeit their bond")
}

func TestRemovedBountyDoneFreesClaim(t *testing.T) {
	policy := contract.DefaultPolicy([]sdk.Address{alice, bob})
	policy.Roles[1].Permissions = append(policy.Roles[1].Permissions, "*:RemoveProposal")
	ct := SetupContractTest(t, contract.CurrentPolicy(policy))
	id := addBounty(t, ct, testBounty(1))
	require.NoError(t, ct.claim(carol, id, 10))
	pid, err := ct.done(carol, id, "")
	require.NoError(t, err)

	status, err := ct.act(alice, *pid, contract.ActionRemoveProposal)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusRemoved, status)

	assert.Equal(t, uint64(0), ct.claimCount(t, id))
	claims, err := ct.c.GetBountyClaims(ct.ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, claims)
	assert.Equal(t, bonds(2), ct.locked(t), "removed proposals forfeit both bonds")
	assert.True(t, ct.host.PaidTo(carol, sdk.AssetNative).IsZero())

	b, err := ct.c.GetBounty(ct.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), b.Times)
	require.NoError(t, ct.claim(bob, id, 10))
}

func TestFailedBountyPayoutFinalizes(t *testing.T) {
	ct := SetupCouncilTest(t)
	id := addBounty(t, ct, testBounty(1))
	require.NoError(t, ct.claim(carol, id, 10))
	pid, err := ct.done(carol, id, "")
	require.NoError(t, err)

	ct.host.FailPayouts = true
	ct.approve(t, *pid, alice, bob)
	assert.Equal(t, contract.StatusFailed, ct.proposal(t, *pid).Status)
	assert.Equal(t, bonds(2), ct.locked(t), "bonds stay locked while failed")
	assert.Equal(t, uint64(0), ct.claimCount(t, id))
	b, err := ct.c.GetBounty(ct.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), b.Times)

	ct.host.FailPayouts = false
	ct.host.Reset()
	status, err := ct.act(alice, *pid, contract.ActionFinalize)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusApproved, status)

	assert.Equal(t, bal(100).Add(bonds(2)), ct.host.PaidTo(carol, sdk.AssetNative))
	assert.Equal(t, sdk.Zero, ct.locked(t))
	_, err = ct.c.GetBounty(ct.ctx, id)
	assert.ErrorIs(t, err, contract.ErrNoBounty)
}
